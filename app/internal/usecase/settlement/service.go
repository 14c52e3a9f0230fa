// Package settlement turns a verified payment plus the payer's cart into
// exactly one order.
//
// Settlement is triggered by the client after the gateway redirect and can be
// replayed any number of times. The store's uniqueness constraints on the
// payment reference and the order code decide races: an insert that loses is
// answered with the winner's order instead of an error.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	domcart "example.com/storefront/app/internal/domain/cart"
	domorder "example.com/storefront/app/internal/domain/order"
	"example.com/storefront/app/internal/domain/payment"
)

const (
	maxCodeAttempts      = 5
	defaultNotifyTimeout = 10 * time.Second
	notificationSubject  = "Notification of Payment"
)

type Verifier interface {
	Verify(ctx context.Context, reference string) (*payment.Verification, error)
}

type OrderRepository interface {
	Settle(ctx context.Context, d domorder.Draft) (*domorder.Order, error)
	FindExisting(ctx context.Context, reference, code string) (*domorder.Order, error)
	GetByReference(ctx context.Context, reference string) (*domorder.Order, error)
	GetByCode(ctx context.Context, code string) (*domorder.Order, error)
}

type CartRepository interface {
	ListItems(ctx context.Context, userID int64) ([]domcart.Item, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EventPublisher announces settled orders to downstream consumers.
type EventPublisher interface {
	PublishOrderSettled(ctx context.Context, o *domorder.Order) error
}

type Recorder interface {
	SettlementOutcome(outcome string)
}

const (
	OutcomeCreated       = "created"
	OutcomeReplayed      = "replayed"
	OutcomePaymentFailed = "payment_failed"
	OutcomeIndeterminate = "indeterminate"
	OutcomeEmptyCart     = "empty_cart"
	OutcomeError         = "error"
)

type Service struct {
	verifier Verifier
	orders   OrderRepository
	carts    CartRepository
	mailer   Mailer
	events   EventPublisher
	recorder Recorder
	newCode  func() string
	lg       *zap.Logger

	notifyTimeout time.Duration
}

type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithCodeGenerator replaces domorder.NewCode.
func WithCodeGenerator(fn func() string) Option {
	return func(s *Service) { s.newCode = fn }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifyTimeout = d }
}

func NewService(
	verifier Verifier,
	orders OrderRepository,
	carts CartRepository,
	mailer Mailer,
	lg *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		verifier:      verifier,
		orders:        orders,
		carts:         carts,
		mailer:        mailer,
		newCode:       domorder.NewCode,
		lg:            lg,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SettleInput struct {
	UserID    int64
	Reference string
	// OrderCode is optional; when empty a code is generated.
	OrderCode string
}

type Result struct {
	Order *domorder.Order
	// Created is false when the call replayed an earlier settlement.
	Created bool
}

func (s *Service) Settle(ctx context.Context, in SettleInput) (*Result, error) {
	res, err := s.settle(ctx, in)
	s.record(res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) settle(ctx context.Context, in SettleInput) (*Result, error) {
	if in.Reference == "" {
		return nil, payment.ErrReferenceRequired
	}
	code, err := domorder.NormalizeCode(in.OrderCode)
	if err != nil {
		return nil, err
	}
	lg := s.lg.With(zap.String("reference", in.Reference), zap.Int64("user_id", in.UserID))

	verification, err := s.verifier.Verify(ctx, in.Reference)
	if err != nil {
		lg.Warn("Payment verification unavailable", zap.Error(err))
		return nil, &payment.VerificationError{Reference: in.Reference, Indeterminate: true, Err: err}
	}
	if !verification.Succeeded() {
		return nil, &payment.VerificationError{Reference: in.Reference, Status: verification.Status}
	}

	existing, err := s.orders.FindExisting(ctx, in.Reference, code)
	switch {
	case err == nil:
		return &Result{Order: existing}, nil
	case !errors.Is(err, domorder.ErrOrderNotFound):
		return nil, errors.Wrap(err, "find existing order")
	}

	items, err := s.carts.ListItems(ctx, in.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	if len(items) == 0 {
		return s.settledElsewhere(ctx, in.Reference)
	}

	draft := domorder.Draft{
		Code:          code,
		UserID:        in.UserID,
		Payer:         verification.Metadata,
		Amount:        payment.FromMinor(verification.AmountMinor),
		TransactionID: in.Reference,
	}
	generated := draft.Code == ""
	if generated {
		draft.Code = s.newCode()
	}

	for attempt := 1; ; attempt++ {
		created, err := s.orders.Settle(ctx, draft)
		switch {
		case err == nil:
			lg.Info("Order settled",
				zap.String("order_code", created.Code),
				zap.String("amount", created.Amount.StringFixed(payment.MinorUnitExp)),
				zap.Int("items", len(created.Items)),
			)
			s.announce(ctx, created)
			return &Result{Order: created, Created: true}, nil

		case errors.Is(err, domorder.ErrDuplicateReference):
			lg.Info("Settlement lost race, returning winner")
			return s.existingByReference(ctx, in.Reference)

		case errors.Is(err, domorder.ErrDuplicateCode) && generated && attempt < maxCodeAttempts:
			lg.Debug("Order code collision, regenerating", zap.String("order_code", draft.Code))
			draft.Code = s.newCode()

		case errors.Is(err, domorder.ErrDuplicateCode) && !generated:
			winner, err := s.orders.GetByCode(ctx, draft.Code)
			if err != nil {
				return nil, errors.Wrap(err, "get order by code")
			}
			return &Result{Order: winner}, nil

		case errors.Is(err, domcart.ErrCartEmpty):
			return s.settledElsewhere(ctx, in.Reference)

		default:
			return nil, errors.Wrap(err, "settle order")
		}
	}
}

// settledElsewhere handles an empty cart: a concurrent settlement of the same
// reference may just have consumed it.
func (s *Service) settledElsewhere(ctx context.Context, reference string) (*Result, error) {
	o, err := s.orders.GetByReference(ctx, reference)
	switch {
	case err == nil:
		return &Result{Order: o}, nil
	case errors.Is(err, domorder.ErrOrderNotFound):
		return nil, domcart.ErrCartEmpty
	default:
		return nil, errors.Wrap(err, "get order by reference")
	}
}

func (s *Service) existingByReference(ctx context.Context, reference string) (*Result, error) {
	o, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		return nil, errors.Wrap(err, "get order by reference")
	}
	return &Result{Order: o}, nil
}

// announce sends the payer notification and the settled event. Both are best
// effort and run after the order is committed.
func (s *Service) announce(ctx context.Context, o *domorder.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	lg := s.lg.With(zap.String("order_code", o.Code))
	if s.mailer != nil && o.Payer.Email != "" {
		if err := s.mailer.Send(ctx, o.Payer.Email, notificationSubject, notificationBody(o)); err != nil {
			lg.Warn("Payment notification not sent", zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishOrderSettled(ctx, o); err != nil {
			lg.Warn("Order settled event not published", zap.Error(err))
		}
	}
}

func notificationBody(o *domorder.Order) string {
	return fmt.Sprintf(
		"Hello %s,\n\nYour payment of %s has been received. Your order ID is %s.\n",
		o.FullName(), o.Amount.StringFixed(payment.MinorUnitExp), o.Code,
	)
}

func (s *Service) record(res *Result, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.SettlementOutcome(outcomeOf(res, err))
}

func outcomeOf(res *Result, err error) string {
	var verr *payment.VerificationError
	switch {
	case err == nil && res.Created:
		return OutcomeCreated
	case err == nil:
		return OutcomeReplayed
	case errors.As(err, &verr) && verr.Indeterminate:
		return OutcomeIndeterminate
	case errors.As(err, &verr):
		return OutcomePaymentFailed
	case errors.Is(err, domcart.ErrCartEmpty):
		return OutcomeEmptyCart
	default:
		return OutcomeError
	}
}
