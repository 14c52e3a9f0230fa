package payment

import "fmt"

// Payer is the identity supplied at checkout and echoed back by the gateway
// on verification.
type Payer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

// FullName joins first and last name for display.
func (p Payer) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

type TransactionStatus string

const (
	TransactionSuccess   TransactionStatus = "success"
	TransactionFailed    TransactionStatus = "failed"
	TransactionAbandoned TransactionStatus = "abandoned"
	// TransactionRejected is reported when the gateway refuses the lookup,
	// typically for a reference it never issued.
	TransactionRejected TransactionStatus = "rejected"
)

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	CallbackURL string
	Metadata    Payer
}

type Initialization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type Verification struct {
	Reference   string
	Status      TransactionStatus
	AmountMinor int64
	Metadata    Payer
}

func (v *Verification) Succeeded() bool {
	return v != nil && v.Status == TransactionSuccess
}

// VerificationError reports a settlement attempt that could not be backed by a
// confirmed payment. Indeterminate is set when the gateway could not be reached
// in time; such attempts are safe to retry.
type VerificationError struct {
	Reference     string
	Status        TransactionStatus
	Indeterminate bool
	Err           error
}

func (e *VerificationError) Error() string {
	if e.Indeterminate {
		return fmt.Sprintf("payment %s could not be verified: %v", e.Reference, e.Err)
	}
	return fmt.Sprintf("payment %s failed with status %q", e.Reference, e.Status)
}

func (e *VerificationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrPaymentFailed
}
