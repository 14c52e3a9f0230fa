package payment

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be a positive value in whole minor units")
	ErrInitiationFailed   = errors.New("payment initiation failed")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrReferenceRequired  = errors.New("payment reference is required")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUnexpectedResponse = errors.New("unexpected payment gateway response")
)
