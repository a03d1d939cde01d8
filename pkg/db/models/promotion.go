package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fluxo-pos/pkg/enums"
)

// Promotion discounts one product, or a pair of products bought together.
// Value only applies to fixed promotions.
type Promotion struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID          uuid.UUID           `gorm:"column:company_id;type:uuid;not null;index" json:"company_id"`
	Name               string              `gorm:"column:name;not null" json:"name"`
	Product1ID         *uuid.UUID          `gorm:"column:product_1_id;type:uuid" json:"product_1_id,omitempty"`
	Product2ID         *uuid.UUID          `gorm:"column:product_2_id;type:uuid" json:"product_2_id,omitempty"`
	Type               enums.PromotionType `gorm:"column:type;type:text;not null;default:'percent'" json:"type"`
	DiscountPercentage decimal.Decimal     `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0" json:"discount_percentage"`
	Value              decimal.Decimal     `gorm:"column:value;type:numeric(12,2);not null;default:0" json:"value"`
	Active             bool                `gorm:"column:active;not null" json:"active"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
