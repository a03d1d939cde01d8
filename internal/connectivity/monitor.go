package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

const defaultProbeTimeout = 3 * time.Second

// Pinger is anything that can prove the remote store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks whether the remote store is reachable. Going from offline to
// online raises a resync flag that the caller consumes; the monitor never
// starts a sync itself.
type Monitor struct {
	mu         sync.RWMutex
	online     bool
	wasOffline bool
	changedAt  time.Time
	logg       *logger.Logger
	now        func() time.Time
}

// NewMonitor starts in the given state. logg may be nil.
func NewMonitor(initialOnline bool, logg *logger.Logger) *Monitor {
	return &Monitor{
		online:    initialOnline,
		changedAt: time.Now(),
		logg:      logg,
		now:       time.Now,
	}
}

// Set records the latest observation.
func (m *Monitor) Set(ctx context.Context, online bool) {
	m.mu.Lock()
	changed := m.online != online
	if changed {
		if online && !m.online {
			m.wasOffline = true
		}
		m.online = online
		m.changedAt = m.now()
	}
	m.mu.Unlock()

	if changed && m.logg != nil {
		ctx = m.logg.WithField(ctx, "online", online)
		if online {
			m.logg.Info(ctx, "remote store reachable again")
		} else {
			m.logg.Warn(ctx, "remote store unreachable; orders will be queued locally")
		}
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// WasOffline reports whether an offline to online transition is still
// unacknowledged.
func (m *Monitor) WasOffline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wasOffline
}

func (m *Monitor) ResetWasOffline() {
	m.mu.Lock()
	m.wasOffline = false
	m.mu.Unlock()
}

// ConsumeResync reads and clears the resync flag in one step.
func (m *Monitor) ConsumeResync() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	flag := m.wasOffline
	m.wasOffline = false
	return flag
}

// ChangedAt is when the online state last flipped.
func (m *Monitor) ChangedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.changedAt
}

// Probe pings the remote with a timeout and records the outcome.
func (m *Monitor) Probe(ctx context.Context, pinger Pinger, timeout time.Duration) bool {
	if pinger == nil {
		m.Set(ctx, false)
		return false
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	online := pinger.Ping(probeCtx) == nil
	m.Set(ctx, online)
	return online
}
