package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/pkg/config"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubBreaker string

func (s stubBreaker) State() string { return string(s) }

func TestHealthReadyReportsRemoteState(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	sessions := cart.NewSessions()
	sessions.Get("s-1")
	HealthReady(cfg, nil, Readiness{
		Local:    stubPinger{},
		Online:   stubOnline(false),
		Breaker:  stubBreaker("open"),
		Sessions: sessions,
	}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body map[string]any
	decodeData(t, resp, &body)
	if body["remote"] != "offline" {
		t.Fatalf("expected remote offline, got %v", body["remote"])
	}
	if body["breaker"] != "open" {
		t.Fatalf("expected breaker state, got %v", body["breaker"])
	}
	if body["open_carts"] != float64(1) {
		t.Fatalf("expected one open cart, got %v", body["open_carts"])
	}
	if resp.Header().Get("X-Fluxo-Env") != "dev" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReadyFailsWithoutLocalStore(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, Readiness{Local: stubPinger{err: errors.New("disk i/o error")}, Online: stubOnline(true)}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
