package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// transient is the error classification interface used across the codebase.
// Errors that report IsTransient() == true are retried; everything else
// fails fast.
type transient interface {
	IsTransient() bool
}

// Policy parameterizes retrying of a blocking external call: a bounded number
// of attempts with exponentially growing delays between them.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64

	// Sleep is overridable for tests; nil means a real timer
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the backend contract: up to 3 attempts, delays of
// 1s then 2s between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Multiplier:  2,
	}
}

// ExhaustedError wraps the final error after all attempts failed
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsTransient returns false: the retry budget is spent
func (e *ExhaustedError) IsTransient() bool {
	return false
}

// Do runs op, retrying transient failures with exponential backoff. A
// non-transient error is returned immediately. When every attempt fails
// transiently the last error is wrapped in an *ExhaustedError.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, delay); err != nil {
				return err
			}
			delay = time.Duration(float64(delay) * p.multiplier())
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func (p Policy) multiplier() float64 {
	if p.Multiplier <= 0 {
		return 2
	}
	return p.Multiplier
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isTransient walks the error chain looking for a transient classification
func isTransient(err error) bool {
	for err != nil {
		if t, ok := err.(transient); ok {
			return t.IsTransient()
		}
		err = errors.Unwrap(err)
	}
	return false
}
