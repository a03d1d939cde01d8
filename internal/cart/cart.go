package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/fluxo-pos/pkg/ids"
)

// Feedback is the best-effort cue fired whenever a unit is added.
type Feedback interface {
	Signal(ctx context.Context) error
}

// FeedbackFunc adapts a function into a Feedback.
type FeedbackFunc func(ctx context.Context) error

func (fn FeedbackFunc) Signal(ctx context.Context) error {
	return fn(ctx)
}

// NopFeedback never signals.
func NopFeedback() Feedback {
	return FeedbackFunc(func(context.Context) error { return nil })
}

// Cart is the ordered multiset of units for one checkout session.
type Cart struct {
	mu       sync.Mutex
	items    []LineItem
	feedback Feedback
	now      func() time.Time
}

// Option customizes a Cart.
type Option func(*Cart)

// WithFeedback sets the add-to-cart cue.
func WithFeedback(feedback Feedback) Option {
	return func(c *Cart) {
		if feedback != nil {
			c.feedback = feedback
		}
	}
}

// WithClock overrides the clock used for cart ids.
func WithClock(now func() time.Time) Option {
	return func(c *Cart) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns an empty cart.
func New(opts ...Option) *Cart {
	c := &Cart{
		feedback: NopFeedback(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends one unit of the product and returns it. It never fails; a
// feedback error is swallowed.
func (c *Cart) Add(ctx context.Context, product Product) LineItem {
	c.mu.Lock()
	item := LineItem{
		CartID:    ids.Timestamped("", c.now()),
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Price:     product.Price,
	}
	c.items = append(c.items, item)
	c.mu.Unlock()

	_ = c.feedback.Signal(ctx)
	return item
}

// RemoveAll drops every unit of the product and returns how many were removed.
func (c *Cart) RemoveAll(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]LineItem, 0, len(c.items))
	for _, item := range c.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	removed := len(c.items) - len(kept)
	c.items = kept
	return removed
}

// RemoveOne drops the first unit of the product, if any.
func (c *Cart) RemoveOne(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.ProductID != productID {
			continue
		}
		next := make([]LineItem, 0, len(c.items)-1)
		next = append(next, c.items[:i]...)
		next = append(next, c.items[i+1:]...)
		c.items = next
		return true
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) append(items []LineItem) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, items...)
	c.mu.Unlock()
}

// Len is the number of units.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GroupedView recomputes the per-product rows from the current items.
func (c *Cart) GroupedView() []GroupedEntry {
	return Group(c.Items())
}
