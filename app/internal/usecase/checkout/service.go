package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domcart "example.com/storefront/app/internal/domain/cart"
	"example.com/storefront/app/internal/domain/payment"
	domuser "example.com/storefront/app/internal/domain/user"
)

type CartRepository interface {
	ListItems(ctx context.Context, userID int64) ([]domcart.Item, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domuser.User, error)
}

type Gateway interface {
	Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Initialization, error)
}

type Service struct {
	cartRepo    CartRepository
	userRepo    UserRepository
	gateway     Gateway
	callbackURL string
	newRef      func() string
	lg          *zap.Logger
}

func NewService(cartRepo CartRepository, userRepo UserRepository, gateway Gateway, callbackURL string, lg *zap.Logger) *Service {
	return &Service{
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		callbackURL: callbackURL,
		newRef:      uuid.NewString,
		lg:          lg,
	}
}

type InitiateInput struct {
	UserID int64
	Payer  payment.Payer
	// Amount is in major units.
	Amount decimal.Decimal
}

type Initiation struct {
	RedirectURL string
	Reference   string
}

// Initiate opens a gateway transaction for the user's cart. Nothing is
// written locally; the returned reference is what the client later settles.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (*Initiation, error) {
	minor, err := payment.ToMinor(in.Amount)
	if err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	items, err := s.cartRepo.ListItems(ctx, in.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	if len(items) == 0 {
		return nil, domcart.ErrCartEmpty
	}

	reference := s.newRef()
	init, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:       u.Email,
		AmountMinor: minor,
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata:    in.Payer,
	})
	if err != nil {
		s.lg.Warn("Payment initialization failed",
			zap.Int64("user_id", in.UserID),
			zap.String("reference", reference),
			zap.Error(err),
		)
		if errors.Is(err, payment.ErrInitiationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", payment.ErrInitiationFailed, err)
	}

	s.lg.Info("Payment initialized",
		zap.Int64("user_id", in.UserID),
		zap.String("reference", reference),
		zap.Int64("amount_minor", minor),
	)
	return &Initiation{RedirectURL: init.AuthorizationURL, Reference: reference}, nil
}
