package models

import (
	"time"

	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

// PendingOrder is an order captured while the remote store was unreachable.
// It lives in the terminal's local store until a replay succeeds.
type PendingOrder struct {
	ID            string            `gorm:"column:id;primaryKey" json:"id"`
	OrderData     types.OrderHeader `gorm:"column:order_data;type:text;not null;serializer:json" json:"order_data"`
	OrderItems    []types.OrderLine `gorm:"column:order_items;type:text;not null;serializer:json" json:"order_items"`
	CreatedAt     time.Time         `gorm:"column:created_at;not null;index:idx_pending_orders_created_at" json:"created_at"`
	SyncStatus    enums.SyncStatus  `gorm:"column:sync_status;type:text;not null;index:idx_pending_orders_sync_status" json:"sync_status"`
	ErrorMessage  *string           `gorm:"column:error_message" json:"error_message,omitempty"`
	RetryCount    int               `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	LastAttemptAt *time.Time        `gorm:"column:last_attempt_at" json:"last_attempt_at,omitempty"`
}

func (PendingOrder) TableName() string {
	return "pending_orders"
}
