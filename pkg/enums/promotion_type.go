package enums

import "fmt"

// PromotionType describes how a promotion's discount amount is derived.
type PromotionType string

const (
	PromotionTypePercent   PromotionType = "percent"
	PromotionTypeFixed     PromotionType = "fixed"
	PromotionTypeTwoForOne PromotionType = "2x1"
)

var validPromotionTypes = []PromotionType{
	PromotionTypePercent,
	PromotionTypeFixed,
	PromotionTypeTwoForOne,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}
