package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/fluxo-pos/api/responses"
	"github.com/angelmondragon/fluxo-pos/pkg/config"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is anything the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineReporter reports the last known remote reachability.
type OnlineReporter interface {
	IsOnline() bool
	ChangedAt() time.Time
}

// Readiness gathers what /health/ready inspects. Only Local is required for
// the terminal to be ready.
type Readiness struct {
	Local    Pinger
	Online   OnlineReporter
	Breaker  interface{ State() string }
	Sessions interface{ Count() int }
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fluxo-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails only when the local store is unusable. A terminal
// without the remote store is still ready to take orders.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fluxo-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if deps.Local != nil {
			if err := deps.Local.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "local store unavailable"))
				return
			}
		}

		body := map[string]any{"status": "ready", "remote": "unknown"}
		if deps.Online != nil {
			body["remote"] = "offline"
			if deps.Online.IsOnline() {
				body["remote"] = "online"
			}
			body["remote_since"] = deps.Online.ChangedAt().UTC()
		}
		if deps.Breaker != nil {
			body["breaker"] = deps.Breaker.State()
		}
		if deps.Sessions != nil {
			body["open_carts"] = deps.Sessions.Count()
		}
		responses.WriteSuccess(w, body)
	}
}
