package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/fluxo-pos/api/responses"
	"github.com/angelmondragon/fluxo-pos/internal/offlinesync"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// SyncOrchestrator is the drain surface the sync endpoints drive.
type SyncOrchestrator interface {
	State() offlinesync.State
	Sync(ctx context.Context, submit offlinesync.SubmitFunc) (offlinesync.Result, error)
	RefreshPendingCount(ctx context.Context) (int, error)
}

// PendingQueue is the local queue as seen by the sync endpoints.
type PendingQueue interface {
	ListPending(ctx context.Context) ([]models.PendingOrder, error)
	Get(ctx context.Context, id string) (*models.PendingOrder, error)
	Requeue(ctx context.Context, id string) error
}

type syncDrainResponse struct {
	Result offlinesync.Result `json:"result"`
	State  offlinesync.State  `json:"state"`
}

// SyncState reports the orchestrator state with a fresh pending count.
func SyncState(orch SyncOrchestrator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orch == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync unavailable"))
			return
		}
		if _, err := orch.RefreshPendingCount(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orch.State())
	}
}

// SyncDrain runs a manual drain. It refuses while the remote is unreachable.
func SyncDrain(orch SyncOrchestrator, submit offlinesync.SubmitFunc, online OnlineReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orch == nil || submit == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync unavailable"))
			return
		}
		if online != nil && !online.IsOnline() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "terminal is offline"))
			return
		}

		result, err := orch.Sync(r.Context(), submit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Skipped {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, syncDrainResponse{Result: result, State: orch.State()})
	}
}

// SyncPendingList lists every queued order with its sync status.
func SyncPendingList(queue PendingQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue unavailable"))
			return
		}
		rows, err := queue.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// SyncPendingGet returns one queued order, including its last error.
func SyncPendingGet(queue PendingQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue unavailable"))
			return
		}
		pendingID, err := pendingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := queue.Get(r.Context(), pendingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// SyncRequeue moves a failed order back to pending.
func SyncRequeue(queue PendingQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue unavailable"))
			return
		}
		pendingID, err := pendingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := queue.Requeue(r.Context(), pendingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": pendingID, "status": "pending"})
	}
}

func pendingIDParam(r *http.Request) (string, error) {
	pendingID := strings.TrimSpace(chi.URLParam(r, "pendingId"))
	if pendingID == "" || len(pendingID) > 64 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "pending id required")
	}
	return pendingID, nil
}
