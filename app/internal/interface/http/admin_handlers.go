package http

import (
	"net/http"

	domcategory "example.com/storefront/app/internal/domain/category"
	"example.com/storefront/app/internal/domain/deletion"
)

type categoryRequest struct {
	Name        string `json:"name" validate:"max=255"`
	Description string `json:"description"`
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categorySvc.List(r.Context())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	resp := make([]map[string]any, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, mapCategory(c))
	}
	writeJSON(w, http.StatusOK, "categories retrieved", resp)
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	c, err := a.categorySvc.Create(r.Context(), &domcategory.Category{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "category created", mapCategory(c))
}

func (a *API) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	c, err := a.categorySvc.GetByID(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "category retrieved", mapCategory(c))
}

func (a *API) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req categoryRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	c, err := a.categorySvc.Update(r.Context(), &domcategory.Category{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "category updated", mapCategory(c))
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	a.guardedDelete(w, r, deletion.KindCategory)
}

func (a *API) handleCategoryDeletable(w http.ResponseWriter, r *http.Request) {
	a.deletable(w, r, deletion.KindCategory)
}
