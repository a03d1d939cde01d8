package cart

import (
	"github.com/shopspring/decimal"
)

// Product is the catalog snapshot a cashier taps to add a unit.
type Product struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// LineItem is one unit in the cart. Adding the same product twice yields two
// line items with distinct CartIDs. Price is captured when the unit is added.
type LineItem struct {
	CartID    string          `json:"cart_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
}

// GroupedEntry is the per-product display row derived from the line items.
type GroupedEntry struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Group collapses line items by product id, preserving first-seen order. The
// unit price and name come from the first unit of each product.
func Group(items []LineItem) []GroupedEntry {
	index := make(map[string]int, len(items))
	grouped := make([]GroupedEntry, 0, len(items))
	for _, item := range items {
		if pos, ok := index[item.ProductID]; ok {
			grouped[pos].Quantity++
			grouped[pos].Subtotal = grouped[pos].Subtotal.Add(item.Price)
			continue
		}
		index[item.ProductID] = len(grouped)
		grouped = append(grouped, GroupedEntry{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			UnitPrice: item.Price,
			Quantity:  1,
			Subtotal:  item.Price,
		})
	}
	return grouped
}

// Subtotal sums the price of every unit.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}
