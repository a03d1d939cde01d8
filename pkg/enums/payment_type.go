package enums

import (
	"fmt"
	"strings"
)

// PaymentType records how a customer settled an order at the counter.
type PaymentType string

const (
	PaymentTypeCash        PaymentType = "cash"
	PaymentTypeCard        PaymentType = "card"
	PaymentTypeTransfer    PaymentType = "transfer"
	PaymentTypeMercadoPago PaymentType = "mercadopago"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeCash,
	PaymentTypeCard,
	PaymentTypeTransfer,
	PaymentTypeMercadoPago,
}

// Terminals in the field still send the Spanish labels.
var paymentTypeAliases = map[string]PaymentType{
	"efectivo":      PaymentTypeCash,
	"tarjeta":       PaymentTypeCard,
	"transferencia": PaymentTypeTransfer,
	"mp":            PaymentTypeMercadoPago,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input, including the legacy aliases, into a
// PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if alias, ok := paymentTypeAliases[normalized]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}

// NormalizePaymentType is ParsePaymentType with unknown or empty values
// counted as cash.
func NormalizePaymentType(value string) PaymentType {
	if parsed, err := ParsePaymentType(value); err == nil {
		return parsed
	}
	return PaymentTypeCash
}
