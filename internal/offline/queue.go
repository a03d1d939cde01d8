package offline

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/fluxo-pos/internal/repo"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/ids"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

const pendingIDPrefix = "offline"

// Queue is the terminal's durable store of orders awaiting replay, plus the
// read-only catalog caches used while offline.
type Queue struct {
	repo.Base
	now func() time.Time
}

// Option customizes a Queue.
type Option func(*Queue)

// WithClock overrides the clock used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

func NewQueue(db *gorm.DB, opts ...Option) *Queue {
	q := &Queue{
		Base: repo.NewBase(db),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Migrate creates the local tables and indexes.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&models.PendingOrder{},
		&models.Product{},
		&models.Customer{},
		&models.Promotion{},
	); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "migrate local store")
	}
	return nil
}

// Enqueue stores an order as pending and returns its id. The row is
// committed before Enqueue returns.
func (q *Queue) Enqueue(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) (string, error) {
	now := q.now().UTC()
	if lines == nil {
		lines = []types.OrderLine{}
	}
	record := models.PendingOrder{
		ID:         ids.Timestamped(pendingIDPrefix, now),
		OrderData:  header,
		OrderItems: lines,
		CreatedAt:  now,
		SyncStatus: enums.SyncStatusPending,
	}
	if err := q.DB(ctx).Create(&record).Error; err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, "enqueue pending order")
	}
	return record.ID, nil
}

// ListPending returns every queued record regardless of status, oldest first.
func (q *Queue) ListPending(ctx context.Context) ([]models.PendingOrder, error) {
	var rows []models.PendingOrder
	err := q.DB(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list pending orders")
	}
	return rows, nil
}

// Get loads one record.
func (q *Queue) Get(ctx context.Context, id string) (*models.PendingOrder, error) {
	var row models.PendingOrder
	err := q.DB(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pending order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load pending order")
	}
	return &row, nil
}

// MarkSyncing flags a record as being replayed. Unknown ids are ignored.
func (q *Queue) MarkSyncing(ctx context.Context, id string) error {
	now := q.now().UTC()
	err := q.DB(ctx).Model(&models.PendingOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status":     enums.SyncStatusSyncing,
			"last_attempt_at": now,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "mark pending order syncing")
	}
	return nil
}

// MarkError records a failed replay and bumps the retry count. Unknown ids
// are ignored.
func (q *Queue) MarkError(ctx context.Context, id, message string) error {
	now := q.now().UTC()
	err := q.DB(ctx).Model(&models.PendingOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status":     enums.SyncStatusError,
			"error_message":   message,
			"retry_count":     gorm.Expr("retry_count + 1"),
			"last_attempt_at": now,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "mark pending order error")
	}
	return nil
}

// Remove deletes a record. It is the only way a record leaves the queue.
func (q *Queue) Remove(ctx context.Context, id string) error {
	if err := q.DB(ctx).Where("id = ?", id).Delete(&models.PendingOrder{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "remove pending order")
	}
	return nil
}

// CountPending counts records in pending status only.
func (q *Queue) CountPending(ctx context.Context) (int, error) {
	var count int64
	err := q.DB(ctx).Model(&models.PendingOrder{}).
		Where("sync_status = ?", enums.SyncStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count pending orders")
	}
	return int(count), nil
}

// Requeue moves a failed record back to pending so the next drain picks it
// up. The retry count and last error are kept.
func (q *Queue) Requeue(ctx context.Context, id string) error {
	return q.Transaction(ctx, func(tx repo.Base) error {
		var row models.PendingOrder
		err := tx.DB(ctx).Where("id = ?", id).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pending order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load pending order")
		}
		if row.SyncStatus != enums.SyncStatusError {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only failed orders can be requeued").
				WithDetails(map[string]any{"sync_status": row.SyncStatus})
		}
		err = tx.DB(ctx).Model(&models.PendingOrder{}).
			Where("id = ?", id).
			Update("sync_status", enums.SyncStatusPending).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "requeue pending order")
		}
		return nil
	})
}

// ResetSyncing returns records stranded in syncing by a crash to pending.
func (q *Queue) ResetSyncing(ctx context.Context) (int64, error) {
	res := q.DB(ctx).Model(&models.PendingOrder{}).
		Where("sync_status = ?", enums.SyncStatusSyncing).
		Update("sync_status", enums.SyncStatusPending)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, res.Error, "reset syncing orders")
	}
	return res.RowsAffected, nil
}

// ClearAll drops every queued record.
func (q *Queue) ClearAll(ctx context.Context) error {
	err := q.DB(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PendingOrder{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "clear pending orders")
	}
	return nil
}
