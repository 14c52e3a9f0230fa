package http

import (
	"net/http"
	"strconv"

	domorder "example.com/storefront/app/internal/domain/order"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (a *API) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	orders, err := a.orderSvc.History(r.Context(), user.UserID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "order history retrieved", mapOrders(orders))
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var filter domorder.ListFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := domorder.Status(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("user_id"); s != "" {
		userID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, errInvalidQuery("user_id"))
			return
		}
		filter.UserID = &userID
	}

	orders, err := a.orderSvc.List(r.Context(), filter)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "orders retrieved", mapOrders(orders))
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	order, err := a.orderSvc.GetByID(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "order retrieved", mapOrder(order))
}

func (a *API) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req updateOrderStatusRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	order, err := a.orderSvc.UpdateStatus(r.Context(), id, domorder.Status(req.Status))
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "order status updated", mapOrder(order))
}
