package offlinesync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
	"github.com/angelmondragon/fluxo-pos/pkg/metrics"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

// SubmitFunc sends one queued order to the remote store. It owns its own
// timeout.
type SubmitFunc func(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) error

// Store is the subset of the local queue a drain needs.
type Store interface {
	ListPending(ctx context.Context) ([]models.PendingOrder, error)
	MarkSyncing(ctx context.Context, id string) error
	MarkError(ctx context.Context, id, message string) error
	Remove(ctx context.Context, id string) error
	CountPending(ctx context.Context) (int, error)
}

// Lock extends single-flight across processes sharing a queue.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// State is the UI-facing view of the orchestrator.
type State struct {
	IsSyncing    bool       `json:"is_syncing"`
	PendingCount int        `json:"pending_count"`
	LastSyncTime *time.Time `json:"last_sync_time"`
	Error        *string    `json:"error"`
	LastSynced   int        `json:"last_synced"`
	LastFailed   int        `json:"last_failed"`
}

// Result summarizes one Sync call. Skipped is set when another drain was
// already running.
type Result struct {
	Synced  int  `json:"synced"`
	Failed  int  `json:"failed"`
	Skipped bool `json:"skipped"`
}

// Params configure an Orchestrator.
type Params struct {
	Store    Store
	Logger   *logger.Logger
	Lock     Lock
	Notifier Notifier
	Metrics  *metrics.SyncMetrics
	Policy   RetryPolicy
	Clock    func() time.Time
}

// Orchestrator drains the local queue against the remote store. Create one
// per process.
type Orchestrator struct {
	store    Store
	logg     *logger.Logger
	lock     Lock
	notifier Notifier
	metrics  *metrics.SyncMetrics
	policy   RetryPolicy
	now      func() time.Time

	running atomic.Bool

	mu    sync.RWMutex
	state State
}

func New(params Params) (*Orchestrator, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(params.Logger)
	}
	policy := params.Policy
	if policy.Mode == "" {
		policy.Mode = ModePendingOnly
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		store:    params.Store,
		logg:     params.Logger,
		lock:     params.Lock,
		notifier: notifier,
		metrics:  params.Metrics,
		policy:   policy,
		now:      clock,
	}, nil
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snapshot := o.state
	if o.state.LastSyncTime != nil {
		t := *o.state.LastSyncTime
		snapshot.LastSyncTime = &t
	}
	if o.state.Error != nil {
		msg := *o.state.Error
		snapshot.Error = &msg
	}
	return snapshot
}

// RefreshPendingCount reloads the pending badge count from the queue.
func (o *Orchestrator) RefreshPendingCount(ctx context.Context) (int, error) {
	count, err := o.store.CountPending(ctx)
	if err != nil {
		return 0, err
	}
	o.mu.Lock()
	o.state.PendingCount = count
	o.mu.Unlock()
	o.metrics.SetPending(count)
	return count, nil
}

// HasEligible reports whether a drain started now would replay anything
// under the retry policy. In retry_errors mode that includes failed records
// whose backoff has elapsed.
func (o *Orchestrator) HasEligible(ctx context.Context) (bool, error) {
	records, err := o.store.ListPending(ctx)
	if err != nil {
		return false, err
	}
	now := o.now()
	for _, rec := range records {
		if o.policy.Eligible(rec, now) {
			return true, nil
		}
	}
	return false, nil
}

// IsSyncing reports whether a drain is in flight.
func (o *Orchestrator) IsSyncing() bool {
	return o.running.Load()
}

// Sync replays every eligible queued order, one at a time, through submit.
// A concurrent call returns immediately with Skipped set. Failures of
// individual records are recorded on the record and counted; only a failure
// to read the queue is returned. Once started, the pass runs to completion
// even if ctx is cancelled.
func (o *Orchestrator) Sync(ctx context.Context, submit SubmitFunc) (Result, error) {
	if submit == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "submit function required")
	}
	if !o.running.CompareAndSwap(false, true) {
		o.metrics.DrainSkipped()
		return Result{Skipped: true}, nil
	}
	defer o.running.Store(false)

	if o.lock != nil {
		acquired, err := o.lock.Acquire(ctx)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sync lock")
		}
		if !acquired {
			o.logg.Info(ctx, "another terminal process is draining the queue; skipping")
			o.metrics.DrainSkipped()
			return Result{Skipped: true}, nil
		}
		defer func() {
			if err := o.lock.Release(context.WithoutCancel(ctx)); err != nil {
				o.logg.Error(ctx, "failed to release sync lock", err)
			}
		}()
	}

	ctx = context.WithoutCancel(ctx)
	o.setSyncing(true)
	defer o.setSyncing(false)

	start := o.now()
	records, err := o.store.ListPending(ctx)
	if err != nil {
		o.recordError(err)
		o.metrics.DrainFailed()
		o.logg.Error(ctx, "failed to read pending orders", err)
		return Result{}, err
	}

	var result Result
	for _, rec := range records {
		if !o.policy.Eligible(rec, start) {
			continue
		}
		if o.replay(ctx, rec, submit) {
			result.Synced++
		} else {
			result.Failed++
		}
	}

	if _, err := o.RefreshPendingCount(ctx); err != nil {
		o.logg.Error(ctx, "failed to refresh pending count", err)
	}

	finished := o.now()
	o.mu.Lock()
	o.state.LastSyncTime = &finished
	o.state.Error = nil
	o.state.LastSynced = result.Synced
	o.state.LastFailed = result.Failed
	o.mu.Unlock()

	o.metrics.DrainCompleted(finished.Sub(start))
	o.notifier.Notify(ctx, Summary{Synced: result.Synced, Failed: result.Failed, At: finished})
	return result, nil
}

// replay runs one record through the syncing -> removed | error cycle and
// reports whether the remote accepted it.
func (o *Orchestrator) replay(ctx context.Context, rec models.PendingOrder, submit SubmitFunc) bool {
	recCtx := o.logg.WithPendingID(ctx, rec.ID)

	if err := o.store.MarkSyncing(recCtx, rec.ID); err != nil {
		o.logg.Error(recCtx, "failed to mark pending order syncing", err)
		o.metrics.RecordFailed()
		return false
	}

	if err := submit(recCtx, rec.OrderData, rec.OrderItems); err != nil {
		o.logg.Warn(o.logg.WithField(recCtx, "error", err.Error()), "pending order replay failed")
		if markErr := o.store.MarkError(recCtx, rec.ID, err.Error()); markErr != nil {
			o.logg.Error(recCtx, "failed to record replay error", markErr)
		}
		o.metrics.RecordFailed()
		return false
	}

	if err := o.store.Remove(recCtx, rec.ID); err != nil {
		o.logg.Error(recCtx, "replayed order could not be removed from the queue", err)
	}
	o.metrics.RecordSynced()
	return true
}

func (o *Orchestrator) setSyncing(v bool) {
	o.mu.Lock()
	o.state.IsSyncing = v
	o.mu.Unlock()
}

func (o *Orchestrator) recordError(err error) {
	msg := err.Error()
	o.mu.Lock()
	o.state.Error = &msg
	o.mu.Unlock()
}
