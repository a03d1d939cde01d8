package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

// Order is a sale that reached the remote store. ClientRef is the id the
// terminal generated at capture time and makes replays idempotent.
type Order struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID        uuid.UUID              `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_orders_company_ticket,priority:1" json:"company_id"`
	TicketNumber     int64                  `gorm:"column:ticket_number;not null;uniqueIndex:idx_orders_company_ticket,priority:2" json:"ticket_number"`
	ClientRef        string                 `gorm:"column:client_ref;not null;uniqueIndex:idx_orders_client_ref" json:"client_ref"`
	TerminalID       *string                `gorm:"column:terminal_id" json:"terminal_id,omitempty"`
	CustomerID       *uuid.UUID             `gorm:"column:customer_id;type:uuid" json:"customer_id,omitempty"`
	OrderType        enums.OrderType        `gorm:"column:order_type;type:text;not null;default:'local'" json:"order_type"`
	PaymentType      enums.PaymentType      `gorm:"column:payment_type;type:text;not null;default:'cash'" json:"payment_type"`
	Status           enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'pending';index" json:"status"`
	TableNumber      *string                `gorm:"column:table_number" json:"table_number,omitempty"`
	DeliveryAddress  *string                `gorm:"column:delivery_address" json:"delivery_address,omitempty"`
	DeliveryPhone    *string                `gorm:"column:delivery_phone" json:"delivery_phone,omitempty"`
	Notes            *string                `gorm:"column:notes" json:"notes,omitempty"`
	Subtotal         decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Discount         decimal.Decimal        `gorm:"column:discount;type:numeric(12,2);not null;default:0" json:"discount"`
	Total            decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	AppliedDiscounts types.AppliedDiscounts `gorm:"column:applied_discounts;type:jsonb" json:"applied_discounts"`
	CreatedBy        *string                `gorm:"column:created_by" json:"created_by,omitempty"`
	CapturedAt       time.Time              `gorm:"column:captured_at;not null" json:"captured_at"`
	CompletedAt      *time.Time             `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CancelledAt      *time.Time             `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	Items            []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderItem is one grouped product line of an order.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
