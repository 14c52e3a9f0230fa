package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"example.com/storefront/app/internal/domain/payment"
	checkoutuc "example.com/storefront/app/internal/usecase/checkout"
	settlementuc "example.com/storefront/app/internal/usecase/settlement"
)

type initiateCheckoutRequest struct {
	FirstName string          `json:"first_name" validate:"required"`
	LastName  string          `json:"last_name" validate:"required"`
	Email     string          `json:"email" validate:"required,email"`
	Address   string          `json:"address" validate:"required"`
	Phone     string          `json:"phone" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

type verifyCheckoutRequest struct {
	Reference string `json:"reference" validate:"required"`
	OrderCode string `json:"order_code" validate:"omitempty,max=32"`
}

func (a *API) handleInitiateCheckout(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	var req initiateCheckoutRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	started, err := a.checkoutSvc.Initiate(r.Context(), checkoutuc.InitiateInput{
		UserID: user.UserID,
		Payer: payment.Payer{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Address:   req.Address,
			Phone:     req.Phone,
		},
		Amount: req.Amount,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "payment initialized", map[string]any{
		"redirect_url": started.RedirectURL,
		"reference":    started.Reference,
	})
}

// handleVerifyCheckout settles the order for a gateway reference. Replays
// answer 200 with the order created by the first call.
func (a *API) handleVerifyCheckout(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	var req verifyCheckoutRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := a.settlementSvc.Settle(r.Context(), settlementuc.SettleInput{
		UserID:    user.UserID,
		Reference: req.Reference,
		OrderCode: req.OrderCode,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	status, message := http.StatusOK, "order already exists"
	if res.Created {
		status, message = http.StatusCreated, "order created successfully"
	}
	writeJSON(w, status, message, mapOrder(res.Order))
}
