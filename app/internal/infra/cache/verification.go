// Package cache keeps confirmed payment verifications in Redis so that
// replayed settlements skip the gateway round trip.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"example.com/storefront/app/internal/domain/payment"
)

const defaultTTL = 24 * time.Hour

type Verifier interface {
	Verify(ctx context.Context, reference string) (*payment.Verification, error)
}

// VerificationCache decorates a Verifier. Only successful verifications are
// stored: a failed or pending transaction may still change on the gateway.
type VerificationCache struct {
	next   Verifier
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	lg     *zap.Logger
}

func NewVerificationCache(next Verifier, client *redis.Client, ttl time.Duration, lg *zap.Logger) *VerificationCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &VerificationCache{next: next, client: client, ttl: ttl, lg: lg}
}

type record struct {
	Reference   string        `json:"reference"`
	Status      string        `json:"status"`
	AmountMinor int64         `json:"amount_minor"`
	Payer       payment.Payer `json:"payer"`
}

func (c *VerificationCache) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	if v, ok := c.get(ctx, reference); ok {
		return v, nil
	}

	// Concurrent replays of the same reference share one gateway call. The
	// shared call outlives any single caller; each caller still gives up when
	// its own ctx is done.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(reference, func() (any, error) {
		v, err := c.next.Verify(shared, reference)
		if err != nil {
			return nil, err
		}
		if v.Succeeded() {
			c.set(shared, v)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v := *res.Val.(*payment.Verification)
		return &v, nil
	}
}

func (c *VerificationCache) get(ctx context.Context, reference string) (*payment.Verification, bool) {
	data, err := c.client.Get(ctx, cacheKey(reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.lg.Warn("Verification cache read failed", zap.String("reference", reference), zap.Error(err))
		return nil, false
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		c.lg.Warn("Verification cache entry corrupt", zap.String("reference", reference), zap.Error(err))
		return nil, false
	}
	return &payment.Verification{
		Reference:   r.Reference,
		Status:      payment.TransactionStatus(r.Status),
		AmountMinor: r.AmountMinor,
		Metadata:    r.Payer,
	}, true
}

func (c *VerificationCache) set(ctx context.Context, v *payment.Verification) {
	data, err := json.Marshal(record{
		Reference:   v.Reference,
		Status:      string(v.Status),
		AmountMinor: v.AmountMinor,
		Payer:       v.Metadata,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(v.Reference), data, c.ttl).Err(); err != nil {
		c.lg.Warn("Verification cache write failed", zap.String("reference", v.Reference), zap.Error(err))
	}
}

func cacheKey(reference string) string {
	return "payment:verification:" + reference
}
