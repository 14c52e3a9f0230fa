package http

import (
	"net/http"
)

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

type updateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	cart, err := a.cartSvc.GetCart(r.Context(), user.UserID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "cart retrieved", mapCart(cart))
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.cartSvc.AddItem(r.Context(), user.UserID, req.ProductID, req.Quantity)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "item added to cart", mapCartItem(item))
}

func (a *API) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req updateCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.cartSvc.UpdateItem(r.Context(), user.UserID, productID, req.Quantity)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "cart item updated", mapCartItem(item))
}

func (a *API) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.cartSvc.RemoveItem(r.Context(), user.UserID, productID); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "item removed")
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	if err := a.cartSvc.Clear(r.Context(), user.UserID); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "cart cleared")
}

func (a *API) handleListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := a.cartSvc.AllCarts(r.Context())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	resp := make([]map[string]any, 0, len(carts))
	for i := range carts {
		resp = append(resp, mapCart(&carts[i]))
	}
	writeJSON(w, http.StatusOK, "carts retrieved", resp)
}

func (a *API) handleGetUserCart(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := a.cartSvc.UserCart(r.Context(), userID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "cart retrieved", mapCart(cart))
}

func (a *API) handleClearUserCart(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.cartSvc.ClearUserCart(r.Context(), userID); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "cart cleared")
}

func (a *API) handleAdminUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req updateCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.cartSvc.UpdateCartItem(r.Context(), id, req.Quantity)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "cart item updated", mapCartItem(item))
}

func (a *API) handleAdminRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.cartSvc.RemoveCartItem(r.Context(), id); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "cart item removed")
}
