package promotions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
)

var (
	burgerID = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	friesID  = uuid.MustParse("00000000-0000-0000-0000-0000000000f1")
	sodaID   = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func unit(id uuid.UUID, price string, n int) cart.LineItem {
	return cart.LineItem{
		CartID:    id.String() + "-" + string(rune('a'+n)),
		ProductID: id.String(),
		Name:      id.String(),
		Price:     dec(price),
	}
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}

func percentPromo(name string, p1 uuid.UUID, p2 *uuid.UUID, pct string) models.Promotion {
	return models.Promotion{
		ID:                 uuid.New(),
		Name:               name,
		Product1ID:         ptr(p1),
		Product2ID:         p2,
		Type:               enums.PromotionTypePercent,
		DiscountPercentage: dec(pct),
		Active:             true,
	}
}

func TestComputeTotalsNoPromotions(t *testing.T) {
	items := []cart.LineItem{unit(burgerID, "10", 0), unit(friesID, "4.5", 1)}

	totals := NewEngine().ComputeTotals(items, nil)

	assert.True(t, totals.Subtotal.Equal(dec("14.5")))
	assert.True(t, totals.TotalDiscount.IsZero())
	assert.True(t, totals.FinalTotal.Equal(dec("14.5")))
	assert.Empty(t, totals.AppliedDiscounts)
}

func TestComputeTotalsComboConsumesBothUnits(t *testing.T) {
	items := []cart.LineItem{
		unit(burgerID, "10", 0),
		unit(friesID, "5", 1),
		unit(burgerID, "10", 2),
	}
	promos := []models.Promotion{percentPromo("Combo", burgerID, ptr(friesID), "20")}

	totals := NewEngine().ComputeTotals(items, promos)

	require.Len(t, totals.AppliedDiscounts, 1)
	assert.Equal(t, "Combo", totals.AppliedDiscounts[0].Name)
	assert.True(t, totals.AppliedDiscounts[0].Amount.Equal(dec("3")))
	assert.True(t, totals.FinalTotal.Equal(dec("22")))
}

func TestComputeTotalsTwoForOneByNameHeuristic(t *testing.T) {
	items := []cart.LineItem{
		unit(sodaID, "2", 0),
		unit(sodaID, "2", 1),
		unit(sodaID, "2", 2),
	}
	promo := percentPromo("Soda 2X1 Tuesday", sodaID, nil, "50")

	assert.Equal(t, KindTwoForOne, Classify(promo))

	totals := NewEngine().ComputeTotals(items, []models.Promotion{promo})

	require.Len(t, totals.AppliedDiscounts, 1)
	assert.True(t, totals.TotalDiscount.Equal(dec("2")))
	assert.True(t, totals.FinalTotal.Equal(dec("4")))
}

func TestComputeTotalsTwoForOneByTypeTag(t *testing.T) {
	promo := percentPromo("Soda deal", sodaID, nil, "50")
	promo.Type = enums.PromotionTypeTwoForOne

	assert.Equal(t, KindTwoForOne, Classify(promo))

	items := []cart.LineItem{unit(sodaID, "2", 0)}
	totals := NewEngine().ComputeTotals(items, []models.Promotion{promo})
	assert.Empty(t, totals.AppliedDiscounts, "a single unit cannot satisfy a 2x1")
}

func TestComputeTotalsSingleRepeatsPerUnit(t *testing.T) {
	items := []cart.LineItem{
		unit(friesID, "4", 0),
		unit(friesID, "4", 1),
		unit(burgerID, "10", 2),
	}
	promos := []models.Promotion{percentPromo("Fries 25", friesID, nil, "25")}

	totals := NewEngine().ComputeTotals(items, promos)

	require.Len(t, totals.AppliedDiscounts, 2)
	assert.True(t, totals.TotalDiscount.Equal(dec("2")))
	assert.True(t, totals.FinalTotal.Equal(dec("16")))
}

func TestComputeTotalsKeepsFractionalDiscountsExact(t *testing.T) {
	items := []cart.LineItem{unit(sodaID, "0.10", 0), unit(sodaID, "0.10", 1), unit(sodaID, "0.10", 2)}
	promos := []models.Promotion{percentPromo("Soda 15%", sodaID, nil, "15")}

	totals := NewEngine().ComputeTotals(items, promos)

	require.Len(t, totals.AppliedDiscounts, 3)
	assert.True(t, totals.AppliedDiscounts[0].Amount.Equal(dec("0.015")))
	assert.True(t, totals.TotalDiscount.Equal(dec("0.045")), totals.TotalDiscount.String())
	assert.True(t, totals.FinalTotal.Equal(dec("0.255")), totals.FinalTotal.String())
}

func TestComputeTotalsOrderDependentNoDoubleCounting(t *testing.T) {
	items := []cart.LineItem{unit(burgerID, "10", 0), unit(friesID, "5", 1)}
	combo := percentPromo("Combo", burgerID, ptr(friesID), "10")
	single := percentPromo("Burger half", burgerID, nil, "50")

	comboFirst := NewEngine().ComputeTotals(items, []models.Promotion{combo, single})
	require.Len(t, comboFirst.AppliedDiscounts, 1)
	assert.Equal(t, "Combo", comboFirst.AppliedDiscounts[0].Name)
	assert.True(t, comboFirst.TotalDiscount.Equal(dec("1.5")))

	singleFirst := NewEngine().ComputeTotals(items, []models.Promotion{single, combo})
	require.Len(t, singleFirst.AppliedDiscounts, 1)
	assert.Equal(t, "Burger half", singleFirst.AppliedDiscounts[0].Name)
	assert.True(t, singleFirst.TotalDiscount.Equal(dec("5")))
}

func TestComputeTotalsDanglingReferenceNeverMatches(t *testing.T) {
	items := []cart.LineItem{unit(burgerID, "10", 0)}
	promos := []models.Promotion{
		percentPromo("Ghost", uuid.New(), nil, "50"),
		percentPromo("Ghost combo", burgerID, ptr(uuid.New()), "50"),
		{Name: "No product", DiscountPercentage: dec("50")},
	}

	totals := NewEngine().ComputeTotals(items, promos)

	assert.Empty(t, totals.AppliedDiscounts)
	assert.True(t, totals.FinalTotal.Equal(dec("10")))
}

func TestComputeTotalsIterationGuard(t *testing.T) {
	items := make([]cart.LineItem, 0, 60)
	for i := 0; i < 60; i++ {
		items = append(items, unit(friesID, "0", i))
	}
	promos := []models.Promotion{percentPromo("Free fries", friesID, nil, "100")}

	totals := NewEngine().ComputeTotals(items, promos)

	assert.Len(t, totals.AppliedDiscounts, maxMatchesPerRule)
}

func TestComputeTotalsDoesNotMutateInputs(t *testing.T) {
	items := []cart.LineItem{unit(burgerID, "10", 0), unit(friesID, "5", 1)}
	promos := []models.Promotion{percentPromo("Combo", burgerID, ptr(friesID), "10")}
	itemsBefore := append([]cart.LineItem(nil), items...)
	promosBefore := append([]models.Promotion(nil), promos...)

	engine := NewEngine()
	first := engine.ComputeTotals(items, promos)
	second := engine.ComputeTotals(items, promos)

	assert.Equal(t, itemsBefore, items)
	assert.Equal(t, promosBefore, promos)
	assert.True(t, first.FinalTotal.Equal(second.FinalTotal))
	assert.Equal(t, len(first.AppliedDiscounts), len(second.AppliedDiscounts))
}

func TestComputeTotalsFixedValueCappedAtMatch(t *testing.T) {
	items := []cart.LineItem{unit(burgerID, "10", 0), unit(friesID, "3", 1)}
	burgerOff := models.Promotion{
		Name:       "Burger 4 off",
		Product1ID: ptr(burgerID),
		Type:       enums.PromotionTypeFixed,
		Value:      dec("4"),
	}
	friesOff := models.Promotion{
		Name:       "Fries 5 off",
		Product1ID: ptr(friesID),
		Type:       enums.PromotionTypeFixed,
		Value:      dec("5"),
	}

	totals := NewEngine().ComputeTotals(items, []models.Promotion{burgerOff, friesOff})

	require.Len(t, totals.AppliedDiscounts, 2)
	assert.True(t, totals.AppliedDiscounts[0].Amount.Equal(dec("4")))
	assert.True(t, totals.AppliedDiscounts[1].Amount.Equal(dec("3")))
	assert.True(t, totals.FinalTotal.Equal(dec("6")))
}

func TestComputeTotalsFixedWithoutValueFallsBackToPercent(t *testing.T) {
	items := []cart.LineItem{unit(burgerID, "10", 0)}
	promo := models.Promotion{
		Name:               "Legacy fixed",
		Product1ID:         ptr(burgerID),
		Type:               enums.PromotionTypeFixed,
		DiscountPercentage: dec("30"),
	}

	totals := NewEngine().ComputeTotals(items, []models.Promotion{promo})

	assert.True(t, totals.TotalDiscount.Equal(dec("3")))
}

func TestComputeTotalsClampOption(t *testing.T) {
	items := []cart.LineItem{unit(burgerID, "10", 0)}
	promos := []models.Promotion{percentPromo("Broken", burgerID, nil, "150")}

	unclamped := NewEngine().ComputeTotals(items, promos)
	assert.True(t, unclamped.FinalTotal.Equal(dec("-5")))

	clamped := NewEngine(WithClampAtZero()).ComputeTotals(items, promos)
	assert.True(t, clamped.FinalTotal.IsZero())
	assert.True(t, clamped.TotalDiscount.Equal(dec("15")))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindCombo, Classify(percentPromo("2x1 combo", burgerID, ptr(friesID), "10")))
	assert.Equal(t, KindSingle, Classify(percentPromo("Burger", burgerID, nil, "10")))
	assert.Equal(t, "two_for_one", KindTwoForOne.String())
}
