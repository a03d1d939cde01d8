package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable menu item. Stock is nil for items that are not
// inventory tracked.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID       `gorm:"column:company_id;type:uuid;not null;index" json:"company_id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Category  string          `gorm:"column:category;not null;default:''" json:"category"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock     *int            `gorm:"column:stock" json:"stock,omitempty"`
	Active    bool            `gorm:"column:active;not null" json:"active"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
