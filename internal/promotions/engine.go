package promotions

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

// maxMatchesPerRule bounds how many times a single promotion may consume
// items in one computation.
const maxMatchesPerRule = 50

var hundred = decimal.NewFromInt(100)

// Kind is how a promotion matches cart units.
type Kind int

const (
	// KindSingle discounts one unit of the primary product per match.
	KindSingle Kind = iota
	// KindCombo discounts a primary unit together with a secondary product unit.
	KindCombo
	// KindTwoForOne discounts a pair of primary product units.
	KindTwoForOne
)

func (k Kind) String() string {
	switch k {
	case KindCombo:
		return "combo"
	case KindTwoForOne:
		return "two_for_one"
	default:
		return "single"
	}
}

// Classify decides how a promotion matches. A secondary product always makes
// it a combo. Older promotions predate the 2x1 type and are recognised by
// "2x1" appearing in the name.
func Classify(promo models.Promotion) Kind {
	if promo.Product2ID != nil {
		return KindCombo
	}
	if promo.Type == enums.PromotionTypeTwoForOne || strings.Contains(strings.ToLower(promo.Name), "2x1") {
		return KindTwoForOne
	}
	return KindSingle
}

// Totals is the outcome of applying promotions to a cart.
type Totals struct {
	Subtotal         decimal.Decimal        `json:"subtotal"`
	TotalDiscount    decimal.Decimal        `json:"total_discount"`
	FinalTotal       decimal.Decimal        `json:"final_total"`
	AppliedDiscounts types.AppliedDiscounts `json:"applied_discounts"`
}

// Engine computes cart totals. It holds no state between calls.
type Engine struct {
	clampAtZero bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClampAtZero floors FinalTotal at zero.
func WithClampAtZero() Option {
	return func(e *Engine) {
		e.clampAtZero = true
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeTotals applies the promotions in list order against a shrinking pool
// of units. Each unit is consumed by at most one match. Neither input slice
// is modified.
func (e *Engine) ComputeTotals(items []cart.LineItem, promos []models.Promotion) Totals {
	subtotal := cart.Subtotal(items)

	pool := make([]cart.LineItem, len(items))
	copy(pool, items)

	applied := types.AppliedDiscounts{}
	for _, promo := range promos {
		pool, applied = applyRule(promo, pool, applied)
	}

	totalDiscount := applied.Total()
	final := subtotal.Sub(totalDiscount)
	if e.clampAtZero && final.IsNegative() {
		final = decimal.Zero
	}

	return Totals{
		Subtotal:         subtotal,
		TotalDiscount:    totalDiscount,
		FinalTotal:       final,
		AppliedDiscounts: applied,
	}
}

func applyRule(promo models.Promotion, pool []cart.LineItem, applied types.AppliedDiscounts) ([]cart.LineItem, types.AppliedDiscounts) {
	if promo.Product1ID == nil {
		return pool, applied
	}
	primaryID := promo.Product1ID.String()
	kind := Classify(promo)

	for i := 0; i < maxMatchesPerRule; i++ {
		first := indexOf(pool, primaryID, -1)
		if first < 0 {
			return pool, applied
		}

		switch kind {
		case KindCombo:
			second := indexOf(pool, promo.Product2ID.String(), first)
			if second < 0 {
				return pool, applied
			}
			amount := discountFor(promo, pool[first].Price.Add(pool[second].Price))
			applied = append(applied, types.AppliedDiscount{Name: promo.Name, Amount: amount})
			pool = removeAt(pool, first, second)
		case KindTwoForOne:
			second := indexOf(pool, primaryID, first)
			if second < 0 {
				return pool, applied
			}
			amount := discountFor(promo, pool[first].Price.Add(pool[second].Price))
			applied = append(applied, types.AppliedDiscount{Name: promo.Name, Amount: amount})
			pool = removeAt(pool, first, second)
		default:
			amount := discountFor(promo, pool[first].Price)
			applied = append(applied, types.AppliedDiscount{Name: promo.Name, Amount: amount})
			pool = removeAt(pool, first)
		}
	}
	return pool, applied
}

// discountFor is the amount taken off a match worth matched. Fixed promotions
// with a positive value take that value, never more than the match is worth.
// Amounts are exact; rounding to cents is left to presentation.
func discountFor(promo models.Promotion, matched decimal.Decimal) decimal.Decimal {
	if promo.Type == enums.PromotionTypeFixed && promo.Value.IsPositive() {
		return decimal.Min(promo.Value, matched)
	}
	return matched.Mul(promo.DiscountPercentage).Div(hundred)
}

// indexOf finds the first unit of productID, skipping the position skip.
func indexOf(pool []cart.LineItem, productID string, skip int) int {
	for i, item := range pool {
		if i == skip {
			continue
		}
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func removeAt(pool []cart.LineItem, positions ...int) []cart.LineItem {
	drop := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		drop[p] = struct{}{}
	}
	next := make([]cart.LineItem, 0, len(pool)-len(drop))
	for i, item := range pool {
		if _, ok := drop[i]; ok {
			continue
		}
		next = append(next, item)
	}
	return next
}
