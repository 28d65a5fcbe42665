// Package resilience wraps calls to flaky upstream services in a circuit
// breaker, so a failing dependency is given time to recover instead of being
// hit on every user request.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without calling the operation while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultMaxFailures = 5
	defaultOpenTimeout = time.Minute
)

// Settings configures a Breaker. Zero values select the defaults.
type Settings struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures int
	// OpenTimeout is how long the breaker stays open before letting one
	// trial call through.
	OpenTimeout time.Duration
	// Ignore lists errors that are passed through without counting as
	// failures, such as a request the upstream rejected on its merits.
	Ignore []error
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a closed breaker.
func NewBreaker(s Settings, log *slog.Logger) *Breaker {
	if s.MaxFailures <= 0 {
		s.MaxFailures = defaultMaxFailures
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = defaultOpenTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	maxFailures := uint32(s.MaxFailures)
	ignore := append([]error(nil), s.Ignore...)

	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A caller giving up is not the upstream's fault.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			for _, target := range ignore {
				if errors.Is(err, target) {
					return true
				}
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})}
}

// Execute runs op unless the breaker is open.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State reports "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
