package retry

import (
	"context"
	"errors"
	"time"

	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/pkg/random"
)

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

var rng = random.FromTime()

// Do calls fn until it succeeds, the attempts run out or ctx is done.
// Delays grow exponentially from Base up to Max with symmetric jitter.
func Do(ctx context.Context, retryPolicy config.Retry, fn func() error) error {
	d := retryPolicy.Base
	var err error

	for i := 0; i < retryPolicy.Attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}
		if i == retryPolicy.Attempts-1 {
			break
		}

		delay := d
		if retryPolicy.JitterFactor > 0 {
			jitter := 1 + retryPolicy.JitterFactor*(2*rng.Float64()-1)
			delay = time.Duration(float64(delay) * jitter)
		}
		if retryPolicy.Max > 0 && delay > retryPolicy.Max {
			delay = retryPolicy.Max
		}

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}

		d *= 2
		if retryPolicy.Max > 0 && d > retryPolicy.Max {
			d = retryPolicy.Max
		}
	}
	return err
}
