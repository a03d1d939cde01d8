package remote

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/fluxo-pos/pkg/config"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

const breakerName = "remote-orders"

// BreakerSubmitter fails fast while the remote store keeps failing, so
// checkouts fall back to the local queue without waiting on timeouts.
type BreakerSubmitter struct {
	next Submitter
	cb   *gobreaker.CircuitBreaker[Receipt]
}

func NewBreakerSubmitter(next Submitter, cfg config.BreakerConfig, logg *logger.Logger) *BreakerSubmitter {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 3
	}
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Rejected payloads say nothing about the remote's health.
			return err == nil ||
				pkgerrors.IsCode(err, pkgerrors.CodeValidation) ||
				pkgerrors.IsCode(err, pkgerrors.CodeConflict)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logg == nil {
				return
			}
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "remote order breaker changed state")
		},
	}
	return &BreakerSubmitter{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[Receipt](settings),
	}
}

func (b *BreakerSubmitter) Submit(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) (Receipt, error) {
	receipt, err := b.cb.Execute(func() (Receipt, error) {
		return b.next.Submit(ctx, header, lines)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remote store temporarily unavailable")
	}
	return receipt, err
}

// State is the breaker's current state name.
func (b *BreakerSubmitter) State() string {
	return b.cb.State().String()
}

// SubmitWithTimeout adapts a Submitter to the plain submit function used by
// the queue drain, bounding each call by timeout.
func SubmitWithTimeout(s Submitter, timeout time.Duration) func(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) error {
	return func(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		_, err := s.Submit(ctx, header, lines)
		return err
	}
}
