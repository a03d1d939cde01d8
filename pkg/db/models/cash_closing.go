package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashClosing is the end-of-day reconciliation of a register.
type CashClosing struct {
	ID           uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID    uuid.UUID                  `gorm:"column:company_id;type:uuid;not null;index" json:"company_id"`
	TerminalID   *string                    `gorm:"column:terminal_id" json:"terminal_id,omitempty"`
	BusinessDay  time.Time                  `gorm:"column:business_day;not null" json:"business_day"`
	OrderCount   int                        `gorm:"column:order_count;not null" json:"order_count"`
	TotalSales   decimal.Decimal            `gorm:"column:total_sales;type:numeric(12,2);not null" json:"total_sales"`
	ExpectedCash decimal.Decimal            `gorm:"column:expected_cash;type:numeric(12,2);not null" json:"expected_cash"`
	CountedCash  decimal.Decimal            `gorm:"column:counted_cash;type:numeric(12,2);not null" json:"counted_cash"`
	Difference   decimal.Decimal            `gorm:"column:difference;type:numeric(12,2);not null" json:"difference"`
	ByPayment    map[string]decimal.Decimal `gorm:"column:by_payment;type:jsonb;serializer:json" json:"by_payment"`
	Bills        map[string]int             `gorm:"column:bills;type:jsonb;serializer:json" json:"bills"`
	Notes        *string                    `gorm:"column:notes" json:"notes,omitempty"`
	ClosedBy     *string                    `gorm:"column:closed_by" json:"closed_by,omitempty"`
	CreatedAt    time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
