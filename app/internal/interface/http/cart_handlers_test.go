package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type cartView struct {
	UserID int64 `json:"user_id"`
	Items  []struct {
		ID        int64  `json:"id"`
		ProductID int64  `json:"product_id"`
		Quantity  int64  `json:"quantity"`
		Name      string `json:"name"`
		Price     string `json:"price"`
		Amount    string `json:"amount"`
	} `json:"items"`
	Total string `json:"total"`
}

func TestCart_AddItemAndGetCart(t *testing.T) {
	env := setupAPI(t)
	c := env.addCategory(t, "kitchen")
	pan := env.addProduct(t, "pan", "80.50", c.ID)

	rec := env.do(t, http.MethodPost, "/api/v1/me/cart/items", env.customerToken, map[string]any{
		"product_id": pan.ID,
		"quantity":   2,
	})
	requireStatus(t, rec, http.StatusCreated)

	rec = env.do(t, http.MethodPost, "/api/v1/me/cart/items", env.customerToken, map[string]any{
		"product_id": pan.ID,
		"quantity":   1,
	})
	requireStatus(t, rec, http.StatusCreated)

	rec = env.do(t, http.MethodGet, "/api/v1/me/cart", env.customerToken, nil)
	requireStatus(t, rec, http.StatusOK)

	var cart cartView
	decodeEnvelope(t, rec, &cart)
	require.Equal(t, env.customer.ID, cart.UserID)
	require.Len(t, cart.Items, 1)
	require.Equal(t, int64(3), cart.Items[0].Quantity)
	require.Equal(t, "pan", cart.Items[0].Name)
	require.Equal(t, "80.50", cart.Items[0].Price)
	require.Equal(t, "241.50", cart.Items[0].Amount)
	require.Equal(t, "241.50", cart.Total)
}

func TestCart_EmptyCartHasNoItems(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodGet, "/api/v1/me/cart", env.customerToken, nil)
	requireStatus(t, rec, http.StatusOK)

	var cart cartView
	decodeEnvelope(t, rec, &cart)
	require.Empty(t, cart.Items)
	require.Equal(t, "0.00", cart.Total)
}

func TestCart_AddUnknownProductReturns404(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/api/v1/me/cart/items", env.customerToken, map[string]any{
		"product_id": 9999,
		"quantity":   1,
	})
	requireStatus(t, rec, http.StatusNotFound)
}

func TestCart_AddZeroQuantityReturns400(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/api/v1/me/cart/items", env.customerToken, map[string]any{
		"product_id": 1,
		"quantity":   0,
	})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestCart_UpdateAndRemoveItem(t *testing.T) {
	env := setupAPI(t)
	c := env.addCategory(t, "kitchen")
	pan := env.addProduct(t, "pan", "10", c.ID)
	env.addToCart(t, env.customer.ID, pan.ID, 1)

	path := fmt.Sprintf("/api/v1/me/cart/items/%d", pan.ID)
	rec := env.do(t, http.MethodPut, path, env.customerToken, map[string]any{"quantity": 4})
	requireStatus(t, rec, http.StatusOK)

	var item struct {
		Quantity int64  `json:"quantity"`
		Amount   string `json:"amount"`
	}
	decodeEnvelope(t, rec, &item)
	require.Equal(t, int64(4), item.Quantity)
	require.Equal(t, "40.00", item.Amount)

	rec = env.do(t, http.MethodDelete, path, env.customerToken, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodDelete, path, env.customerToken, nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestCart_Clear(t *testing.T) {
	env := setupAPI(t)
	c := env.addCategory(t, "kitchen")
	pan := env.addProduct(t, "pan", "10", c.ID)
	env.addToCart(t, env.customer.ID, pan.ID, 2)

	rec := env.do(t, http.MethodDelete, "/api/v1/me/cart", env.customerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	require.Empty(t, env.store.itemsLocked(env.customer.ID))
}

func TestCart_WithoutAuthReturns401(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodGet, "/api/v1/me/cart", "", nil)
	requireStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(t, http.MethodGet, "/api/v1/me/cart", "garbage", nil)
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestAdminCart_ViewAndEditUserCart(t *testing.T) {
	env := setupAPI(t)
	c := env.addCategory(t, "kitchen")
	pan := env.addProduct(t, "pan", "10", c.ID)
	env.addToCart(t, env.customer.ID, pan.ID, 2)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/carts/%d", env.customer.ID), env.adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var cart cartView
	decodeEnvelope(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	itemID := cart.Items[0].ID

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/cart-items/%d", itemID), env.adminToken, map[string]any{"quantity": 5})
	requireStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/cart-items/%d", itemID), env.adminToken, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/carts/%d", 9999), env.adminToken, nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestAdminCart_CustomerForbidden(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/carts/%d", env.customer.ID), env.customerToken, nil)
	requireStatus(t, rec, http.StatusForbidden)
}

func TestAdminCart_ListCarts(t *testing.T) {
	env := setupAPI(t)
	c := env.addCategory(t, "kitchen")
	pan := env.addProduct(t, "pan", "10", c.ID)
	mug := env.addProduct(t, "mug", "2.50", c.ID)
	env.addToCart(t, env.customer.ID, pan.ID, 2)
	env.addToCart(t, env.admin.ID, mug.ID, 4)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/carts", env.adminToken, nil)
	requireStatus(t, rec, http.StatusOK)

	var carts []cartView
	resp := decodeEnvelope(t, rec, &carts)
	require.Equal(t, "carts retrieved", resp.Message)
	require.Len(t, carts, 2)

	byUser := map[int64]cartView{}
	for _, cart := range carts {
		byUser[cart.UserID] = cart
	}
	require.Equal(t, "20.00", byUser[env.customer.ID].Total)
	require.Equal(t, "10.00", byUser[env.admin.ID].Total)
	require.Equal(t, "mug", byUser[env.admin.ID].Items[0].Name)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/carts", env.customerToken, nil)
	requireStatus(t, rec, http.StatusForbidden)
}
