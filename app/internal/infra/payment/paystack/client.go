// Package paystack is a client for the Paystack transaction API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"example.com/storefront/app/internal/domain/payment"
)

const (
	DefaultBaseURL = "https://api.paystack.co"

	defaultTimeout     = 10 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = 30 * time.Second
)

type Config struct {
	BaseURL   string
	SecretKey string
	// Timeout bounds every call, including the wait for the response body.
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

type Client struct {
	http    *http.Client
	baseURL string
	secret  string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	lg      *zap.Logger
}

func New(cfg Config, lg *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.SecretKey,
		timeout: cfg.Timeout,
		lg:      lg,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "paystack",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A 4xx answer means the gateway is up.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || errors.As(err, &apiErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	return c
}

// APIError is a 4xx answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %d %s", e.StatusCode, e.Message)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeBody struct {
	Email       string        `json:"email"`
	Amount      int64         `json:"amount"`
	Reference   string        `json:"reference"`
	CallbackURL string        `json:"callback_url,omitempty"`
	Metadata    payment.Payer `json:"metadata"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (c *Client) Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Initialization, error) {
	body, err := json.Marshal(initializeBody{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode initialize request")
	}

	env, err := c.call(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrInitiationFailed, err)
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %s", payment.ErrInitiationFailed, env.Message)
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: %w", payment.ErrInitiationFailed, payment.ErrUnexpectedResponse)
	}
	return &payment.Initialization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Verify looks a transaction up by reference. A gateway that refuses the
// lookup yields a TransactionRejected verification rather than an error;
// errors mean the outcome is unknown.
func (c *Client) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	env, err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		c.lg.Info("Verification rejected by gateway",
			zap.String("reference", reference),
			zap.Int("status_code", apiErr.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return &payment.Verification{Reference: reference, Status: payment.TransactionRejected}, nil
	case err != nil:
		return nil, err
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrap(payment.ErrUnexpectedResponse, err.Error())
	}
	v := &payment.Verification{
		Reference:   data.Reference,
		Status:      payment.TransactionStatus(data.Status),
		AmountMinor: data.Amount,
	}
	if v.Reference == "" {
		v.Reference = reference
	}
	// Metadata comes back as whatever was sent, or an empty string.
	if len(data.Metadata) > 0 && data.Metadata[0] == '{' {
		if err := json.Unmarshal(data.Metadata, &v.Metadata); err != nil {
			return nil, errors.Wrap(payment.ErrUnexpectedResponse, err.Error())
		}
	}
	return v, nil
}

func (c *Client) call(ctx context.Context, method, path string, body []byte) (*envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", payment.ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(payment.ErrUnexpectedResponse, err.Error())
	}
	return &env, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", payment.ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return raw, nil
}
