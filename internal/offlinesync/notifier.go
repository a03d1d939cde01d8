package offlinesync

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// Summary is the outcome reported to the cashier after a drain.
type Summary struct {
	Synced int
	Failed int
	At     time.Time
}

// Notifier surfaces drain summaries.
type Notifier interface {
	Notify(ctx context.Context, summary Summary)
}

// LogNotifier writes "N synced" / "M failed" lines to the structured log.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Notify(ctx context.Context, summary Summary) {
	if n == nil || n.logg == nil {
		return
	}
	if summary.Synced == 0 && summary.Failed == 0 {
		return
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"event":  "offline_sync.summary",
		"synced": summary.Synced,
		"failed": summary.Failed,
	})
	if summary.Synced > 0 {
		n.logg.Info(ctx, fmtCount(summary.Synced, "synced"))
	}
	if summary.Failed > 0 {
		n.logg.Warn(ctx, fmtCount(summary.Failed, "failed"))
	}
}

func fmtCount(n int, verb string) string {
	noun := "orders"
	if n == 1 {
		noun = "order"
	}
	return fmt.Sprintf("%d %s %s", n, noun, verb)
}
