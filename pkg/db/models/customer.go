package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a known buyer, mostly used for delivery orders.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"column:company_id;type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Phone     *string   `gorm:"column:phone" json:"phone,omitempty"`
	Address   *string   `gorm:"column:address" json:"address,omitempty"`
	Notes     *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
