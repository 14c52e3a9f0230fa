package security

import (
	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	domuser "example.com/storefront/app/internal/domain/user"
)

// BcryptService hashes account passwords. Cost 0 means bcrypt.DefaultCost;
// tests pass bcrypt.MinCost to stay fast.
type BcryptService struct {
	cost int
}

func NewBcryptService(cost int) *BcryptService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptService{cost: cost}
}

func (s *BcryptService) Hash(password string) (string, error) {
	// bcrypt reads at most 72 bytes.
	if len(password) > 72 {
		return "", domuser.ErrInvalidCredential
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// Compare returns domuser.ErrInvalidCredential on a mismatch.
func (s *BcryptService) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return domuser.ErrInvalidCredential
	default:
		return errors.Wrap(err, "compare password")
	}
}
