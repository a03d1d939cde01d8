package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderHeader is the order-level payload captured at checkout. It is stored
// verbatim on a pending order and replayed unchanged against the remote store.
type OrderHeader struct {
	CompanyID        string            `json:"company_id"`
	TerminalID       string            `json:"terminal_id,omitempty"`
	ClientRef        string            `json:"client_ref"`
	CustomerID       *string           `json:"customer_id,omitempty"`
	OrderType        enums.OrderType   `json:"order_type"`
	PaymentType      enums.PaymentType `json:"payment_type"`
	TableNumber      *string           `json:"table_number,omitempty"`
	DeliveryAddress  *string           `json:"delivery_address,omitempty"`
	DeliveryPhone    *string           `json:"delivery_phone,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	Discount         decimal.Decimal   `json:"discount"`
	Total            decimal.Decimal   `json:"total"`
	AppliedDiscounts AppliedDiscounts  `json:"applied_discounts"`
	CreatedBy        *string           `json:"created_by,omitempty"`
	CapturedAt       time.Time         `json:"captured_at"`
}

// OrderLine is one grouped product row of an order.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// AppliedDiscount is one promotion application and the amount it took off.
type AppliedDiscount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// AppliedDiscounts persists as a JSON array column.
type AppliedDiscounts []AppliedDiscount

// Value implements driver.Valuer.
func (a AppliedDiscounts) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	payload, err := json.Marshal([]AppliedDiscount(a))
	if err != nil {
		return nil, fmt.Errorf("marshal applied discounts: %w", err)
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (a *AppliedDiscounts) Scan(value interface{}) error {
	if value == nil {
		*a = AppliedDiscounts{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("AppliedDiscounts: unsupported Scan type %T", value)
	}

	var decoded []AppliedDiscount
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("unmarshal applied discounts: %w", err)
	}
	*a = decoded
	return nil
}

// Total sums every applied amount.
func (a AppliedDiscounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range a {
		total = total.Add(d.Amount)
	}
	return total
}
