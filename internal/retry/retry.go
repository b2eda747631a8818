// Package retry runs operations with exponential backoff and jitter,
// deciding retryability from the error taxonomy rather than per-call
// predicates.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// Policy configures backoff and which error categories are worth retrying.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// Jitter is the fraction of the delay randomized, 0.0 to 1.0.
	Jitter float64
	// Retryable lists categories eligible for another attempt. Empty means
	// only CategoryTransient.
	Retryable []types.ErrorCategory
}

// DefaultPolicy suits broker and provider round-trips.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
		Retryable:   []types.ErrorCategory{types.CategoryTransient, types.CategoryUnavailable},
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier <= 1.0 {
		p.Multiplier = 2.0
	}
	if p.Jitter < 0 || p.Jitter > 1.0 {
		p.Jitter = 0.1
	}
	if len(p.Retryable) == 0 {
		p.Retryable = []types.ErrorCategory{types.CategoryTransient}
	}
	return p
}

func (p Policy) retryable(err error) bool {
	category := types.Classify(err)
	for _, c := range p.Retryable {
		if category == c {
			return true
		}
	}
	return false
}

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		rngMu.Lock()
		jitter := rng.Float64() * p.Jitter * d
		sign := rng.Float64() < 0.5
		rngMu.Unlock()
		if sign {
			d -= jitter
		} else {
			d += jitter
		}
	}
	if d < float64(time.Millisecond) {
		d = float64(time.Millisecond)
	}
	return time.Duration(d)
}

// Do runs fn under policy. Non-retryable errors (rejections, quota, config)
// return immediately; exhausted attempts wrap the last error.
func Do(ctx context.Context, policy Policy, name string, fn func() error) error {
	p := policy.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, "operation succeeded after retry", "op", name, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !p.retryable(err) {
			logger.Debug(ctx, "error not retryable", "op", name,
				"category", types.Classify(err).String(), "error", err.Error())
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.delay(attempt)
		logger.Warn(ctx, "operation failed, retrying", "op", name,
			"attempt", attempt, "delay", delay.String(), "error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s: %d attempts exhausted: %w", name, p.MaxAttempts, lastErr)
}
