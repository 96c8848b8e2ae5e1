// Package events publishes and consumes order lifecycle events over a
// RabbitMQ topic exchange.
package events

import "context"

// Routing keys on the shop topic exchange.
const (
	RKOrderCreated  = "order.created"
	RKOrderPaid     = "order.paid"
	RKOrderFailed   = "order.failed"
	RKPaymentResult = "payment.result"
)

// OrderEvent is the payload published on order.* routing keys.
type OrderEvent struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
}

// PaymentResult is the payload consumed from payment.result, carrying the
// gateway's asynchronous settlement outcome for a pending order.
type PaymentResult struct {
	OrderID     string `json:"order_id"`
	Succeeded   bool   `json:"succeeded"`
	ProviderRef string `json:"provider_ref"`
	Reason      string `json:"reason,omitempty"`
}

// Publisher is the side of the broker services depend on. Publish failures
// are logged and tolerated; events are notifications, not state.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}
