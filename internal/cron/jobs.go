package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/fluxo-pos/internal/catalog"
	"github.com/angelmondragon/fluxo-pos/internal/connectivity"
	"github.com/angelmondragon/fluxo-pos/internal/offlinesync"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

const (
	ConnectivityJobName   = "connectivity-probe"
	SyncJobName           = "offline-sync"
	CatalogRefreshJobName = "catalog-refresh"
)

type monitor interface {
	IsOnline() bool
	Probe(ctx context.Context, pinger connectivity.Pinger, timeout time.Duration) bool
	ConsumeResync() bool
}

// ConnectivityJob pings the remote store and updates the monitor.
type ConnectivityJob struct {
	monitor monitor
	pinger  connectivity.Pinger
	timeout time.Duration
	every   time.Duration
}

func NewConnectivityJob(m monitor, pinger connectivity.Pinger, timeout, every time.Duration) (*ConnectivityJob, error) {
	if m == nil {
		return nil, fmt.Errorf("connectivity monitor required")
	}
	if pinger == nil {
		return nil, fmt.Errorf("pinger required")
	}
	return &ConnectivityJob{monitor: m, pinger: pinger, timeout: timeout, every: every}, nil
}

func (j *ConnectivityJob) Name() string         { return ConnectivityJobName }
func (j *ConnectivityJob) Every() time.Duration { return j.every }

func (j *ConnectivityJob) Run(ctx context.Context) error {
	j.monitor.Probe(ctx, j.pinger, j.timeout)
	return nil
}

type syncer interface {
	Sync(ctx context.Context, submit offlinesync.SubmitFunc) (offlinesync.Result, error)
	RefreshPendingCount(ctx context.Context) (int, error)
	HasEligible(ctx context.Context) (bool, error)
}

type SyncJobParams struct {
	Logger       *logger.Logger
	Orchestrator syncer
	Monitor      monitor
	Submit       offlinesync.SubmitFunc
	Every        time.Duration
}

// SyncJob drains the local queue while online. It runs when the terminal has
// just reconnected or when the retry policy finds records to replay.
type SyncJob struct {
	logg    *logger.Logger
	orch    syncer
	monitor monitor
	submit  offlinesync.SubmitFunc
	every   time.Duration
}

func NewSyncJob(params SyncJobParams) (*SyncJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orchestrator == nil {
		return nil, fmt.Errorf("sync orchestrator required")
	}
	if params.Monitor == nil {
		return nil, fmt.Errorf("connectivity monitor required")
	}
	if params.Submit == nil {
		return nil, fmt.Errorf("submit function required")
	}
	return &SyncJob{
		logg:    params.Logger,
		orch:    params.Orchestrator,
		monitor: params.Monitor,
		submit:  params.Submit,
		every:   params.Every,
	}, nil
}

func (j *SyncJob) Name() string         { return SyncJobName }
func (j *SyncJob) Every() time.Duration { return j.every }

func (j *SyncJob) Run(ctx context.Context) error {
	if !j.monitor.IsOnline() {
		return nil
	}
	pending, err := j.orch.RefreshPendingCount(ctx)
	if err != nil {
		return err
	}
	eligible := pending > 0
	if !eligible {
		if eligible, err = j.orch.HasEligible(ctx); err != nil {
			return err
		}
	}
	reconnected := j.monitor.ConsumeResync()
	if !reconnected && !eligible {
		return nil
	}

	result, err := j.orch.Sync(ctx, j.submit)
	if err != nil {
		return err
	}
	if result.Skipped {
		j.logg.Debug(ctx, "sync already in progress")
		return nil
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"synced":      result.Synced,
		"failed":      result.Failed,
		"reconnected": reconnected,
	}), "offline queue drained")
	return nil
}

type refresher interface {
	Refresh(ctx context.Context) (catalog.RefreshResult, error)
}

// CatalogRefreshJob keeps the offline catalog cache current.
type CatalogRefreshJob struct {
	catalog refresher
	monitor monitor
	every   time.Duration
}

func NewCatalogRefreshJob(c refresher, m monitor, every time.Duration) (*CatalogRefreshJob, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if m == nil {
		return nil, fmt.Errorf("connectivity monitor required")
	}
	return &CatalogRefreshJob{catalog: c, monitor: m, every: every}, nil
}

func (j *CatalogRefreshJob) Name() string         { return CatalogRefreshJobName }
func (j *CatalogRefreshJob) Every() time.Duration { return j.every }

func (j *CatalogRefreshJob) Run(ctx context.Context) error {
	if !j.monitor.IsOnline() {
		return nil
	}
	_, err := j.catalog.Refresh(ctx)
	return err
}
