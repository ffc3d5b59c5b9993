// Package retry backs off between attempts at remote store operations.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

// Settings controls the backoff schedule. MaxRetries of 0 retries forever;
// MaxBackoff of 0 leaves the backoff uncapped.
type Settings struct {
	InitialBackoff time.Duration
	Multiplier     int
	MaxBackoff     time.Duration
	MaxRetries     int
}

func (s Settings) Verify() error {
	if s.InitialBackoff <= 0 {
		return errors.Newf("initial backoff must be set to >= 0, got %s", s.InitialBackoff)
	}
	if s.Multiplier < 1 {
		return errors.Newf("multiplier must be >= 1, got %d", s.Multiplier)
	}
	if s.MaxBackoff > 0 && s.InitialBackoff > s.MaxBackoff {
		return errors.Newf("initial backoff (%s) must be less than max backoff (%s)", s.InitialBackoff, s.MaxBackoff)
	}
	return nil
}

// DefaultSettings are used for model store writes: three attempts, starting
// at half a second.
func DefaultSettings() Settings {
	return Settings{
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     5 * time.Second,
		MaxRetries:     3,
	}
}

// Retry tracks the attempt count and when the next attempt is due.
type Retry struct {
	Iteration int
	StartTime time.Time
	NextRetry time.Time

	settings Settings
}

func NewRetry(settings Settings) (*Retry, error) {
	return NewRetryWithTime(time.Now(), settings)
}

func NewRetryWithTime(t time.Time, settings Settings) (*Retry, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}
	return &Retry{
		Iteration: 1,
		StartTime: t,
		NextRetry: t.Add(settings.InitialBackoff),
		settings:  settings,
	}, nil
}

func (r *Retry) ShouldContinue() bool {
	if r.settings.MaxRetries == 0 {
		return true
	}
	return r.Iteration < r.settings.MaxRetries
}

func (r *Retry) Next() {
	d := r.settings.InitialBackoff * time.Duration(math.Pow(float64(r.settings.Multiplier), float64(r.Iteration)))
	if r.settings.MaxBackoff > 0 && d > r.settings.MaxBackoff {
		d = r.settings.MaxBackoff
	}
	r.Iteration++
	r.NextRetry = r.NextRetry.Add(d)
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	cause error
}

func (e *permanentError) Error() string { return e.cause.Error() }
func (e *permanentError) Unwrap() error { return e.cause }

// Permanent wraps err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{cause: err}
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts run
// out or ctx is done. onRetry, if set, is called with each failure that is
// about to be retried. The last error is returned unwrapped.
func Do(
	ctx context.Context, settings Settings, fn func(ctx context.Context) error, onRetry func(attempt int, err error),
) error {
	r, err := NewRetry(settings)
	if err != nil {
		return err
	}
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.cause
		}
		if !r.ShouldContinue() {
			return errors.Wrapf(err, "giving up after %d attempts", r.Iteration)
		}
		if onRetry != nil {
			onRetry(r.Iteration, err)
		}
		t := time.NewTimer(time.Until(r.NextRetry))
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.CombineErrors(ctx.Err(), err)
		case <-t.C:
		}
		r.Next()
	}
}
