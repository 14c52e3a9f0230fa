package http

import (
	"net/http"

	"example.com/storefront/app/internal/domain/deletion"
	domuser "example.com/storefront/app/internal/domain/user"
	useruc "example.com/storefront/app/internal/usecase/user"
)

type updateUserRoleRequest struct {
	RoleCode string `json:"role_code" validate:"required"`
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var filter domuser.ListUsersFilter
	if role := r.URL.Query().Get("role"); role != "" {
		code := domuser.RoleCode(role)
		filter.RoleCode = &code
	}

	users, err := a.userSvc.ListUsers(r.Context(), filter)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(users))
	for _, u := range users {
		resp = append(resp, mapUser(u))
	}
	writeJSON(w, http.StatusOK, "users retrieved", resp)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	u, err := a.userSvc.GetUser(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "user retrieved", mapUser(u))
}

func (a *API) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	executor := getAuthUser(r.Context())
	if executor == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req updateUserRoleRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	role, err := domuser.ParseRoleCode(req.RoleCode)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	u, err := a.userSvc.UpdateRole(r.Context(), useruc.UpdateRoleInput{
		ExecutorID: executor.UserID,
		ID:         id,
		RoleCode:   role,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "user role updated", mapUser(u))
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	a.guardedDelete(w, r, deletion.KindUser)
}

func (a *API) handleUserDeletable(w http.ResponseWriter, r *http.Request) {
	a.deletable(w, r, deletion.KindUser)
}
