package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts captured orders by the path they took.
type CheckoutMetrics struct {
	orders *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders captured at checkout, by destination.",
	}, []string{"destination"})
	reg.MustRegister(orders)
	return &CheckoutMetrics{orders: orders}
}

// IncSubmitted counts an order written straight to the remote store.
func (c *CheckoutMetrics) IncSubmitted() {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues("remote").Inc()
}

// IncQueued counts an order written to the local queue.
func (c *CheckoutMetrics) IncQueued() {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues("queued").Inc()
}
