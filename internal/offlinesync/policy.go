package offlinesync

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
)

// RetryMode selects which queued records a drain picks up.
type RetryMode string

const (
	// ModePendingOnly replays pending records only. A record that failed once
	// stays in error until it is requeued by hand.
	ModePendingOnly RetryMode = "pending_only"
	// ModeRetryErrors also replays error records, subject to MaxAttempts and
	// backoff.
	ModeRetryErrors RetryMode = "retry_errors"
)

const (
	defaultBackoffBase = 30 * time.Second
	defaultBackoffMax  = 15 * time.Minute
)

// ParseRetryMode converts configuration input into a RetryMode.
func ParseRetryMode(value string) (RetryMode, error) {
	switch RetryMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModePendingOnly:
		return ModePendingOnly, nil
	case ModeRetryErrors:
		return ModeRetryErrors, nil
	default:
		return "", fmt.Errorf("invalid retry mode %q", value)
	}
}

// RetryPolicy decides whether a queued record is eligible for a drain.
type RetryPolicy struct {
	Mode RetryMode
	// MaxAttempts caps retries of error records; 0 means unbounded.
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultRetryPolicy replays pending records only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Mode: ModePendingOnly}
}

// Eligible reports whether rec should be replayed at now.
func (p RetryPolicy) Eligible(rec models.PendingOrder, now time.Time) bool {
	switch rec.SyncStatus {
	case enums.SyncStatusPending:
		return true
	case enums.SyncStatusError:
		if p.Mode != ModeRetryErrors {
			return false
		}
		if p.MaxAttempts > 0 && rec.RetryCount >= p.MaxAttempts {
			return false
		}
		if rec.LastAttemptAt == nil {
			return true
		}
		return !now.Before(rec.LastAttemptAt.Add(p.Backoff(rec.RetryCount)))
	default:
		return false
	}
}

// Backoff is the wait after the given number of failures: the base doubled
// per extra failure, capped at the max.
func (p RetryPolicy) Backoff(failures int) time.Duration {
	base := p.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	max := p.BackoffMax
	if max <= 0 {
		max = defaultBackoffMax
	}
	if failures <= 1 {
		return minDuration(base, max)
	}
	wait := base
	for i := 1; i < failures; i++ {
		wait = nextBackoff(wait, base, max)
		if wait >= max {
			return max
		}
	}
	return wait
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
