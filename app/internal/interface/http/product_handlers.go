package http

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"example.com/storefront/app/internal/domain/deletion"
	domproduct "example.com/storefront/app/internal/domain/product"
)

type createProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	IsActive    *bool           `json:"is_active"`
	Features    []string        `json:"features" validate:"omitempty,dive,required"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
}

type updateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id" validate:"omitempty,gt=0"`
	IsActive    *bool           `json:"is_active"`
	Features    []string        `json:"features" validate:"omitempty,dive,required"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func productFilter(r *http.Request) (domproduct.ListFilter, error) {
	var filter domproduct.ListFilter
	if cid := r.URL.Query().Get("category_id"); cid != "" {
		id, err := strconv.ParseInt(cid, 10, 64)
		if err != nil {
			return filter, errInvalidQuery("category_id")
		}
		filter.CategoryID = &id
	}
	return filter, nil
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	filter.OnlyActive = true
	a.listProducts(w, r, filter)
}

func (a *API) handleListProductsAdmin(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if v := r.URL.Query().Get("only_active"); v == "1" || v == "true" {
		filter.OnlyActive = true
	}
	a.listProducts(w, r, filter)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request, filter domproduct.ListFilter) {
	products, err := a.productSvc.List(r.Context(), filter)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	resp := make([]map[string]any, 0, len(products))
	for _, p := range products {
		resp = append(resp, mapProduct(p))
	}
	writeJSON(w, http.StatusOK, "products retrieved", resp)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	p, err := a.productSvc.GetByID(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "product retrieved", mapProduct(p))
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	p, err := a.productSvc.Create(r.Context(), &domproduct.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		IsActive:    isActive,
		Features:    req.Features,
		Images:      req.Images,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "product created", mapProduct(p))
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req updateProductRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	// The service always writes IsActive; keep the stored flag unless sent.
	var isActive bool
	if req.IsActive != nil {
		isActive = *req.IsActive
	} else {
		current, err := a.productSvc.GetByID(r.Context(), id)
		if err != nil {
			a.handleDomainError(w, r, err)
			return
		}
		isActive = current.IsActive
	}

	p, err := a.productSvc.Update(r.Context(), &domproduct.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		IsActive:    isActive,
		Features:    req.Features,
		Images:      req.Images,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "product updated", mapProduct(p))
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	a.guardedDelete(w, r, deletion.KindProduct)
}

func (a *API) handleProductDeletable(w http.ResponseWriter, r *http.Request) {
	a.deletable(w, r, deletion.KindProduct)
}

func (a *API) handleBulkDeleteProducts(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.guardSvc.DeleteProducts(r.Context(), req.IDs); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "products deleted")
}
