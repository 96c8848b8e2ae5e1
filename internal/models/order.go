package models

import "time"

// Order status machine. An order is created pending before any charge is
// attempted; the payment result (sync rejection or async capture event)
// moves it to paid or failed. Pending orders older than the reconciliation
// window are surfaced by the reconciler, never silently treated as sales.
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

// Order is an immutable snapshot of a checkout: the purchasing user's
// identity and the cart lines with prices frozen at checkout time.
type Order struct {
	ID        string
	UserID    string
	UserEmail string
	Status    string

	TotalCents int64
	Currency   string

	// IdempotencyKey deduplicates checkout submissions; unique when set.
	IdempotencyKey string
	// ProviderRef is the payment gateway's reference for the charge.
	ProviderRef string

	Items     []OrderItem
	CreatedAt time.Time
}

// OrderItem carries a denormalized product copy. Later edits or deletion of
// the live product must never alter these fields.
type OrderItem struct {
	ProductID      string
	Title          string
	Description    string
	ImageKey       string
	UnitPriceCents int64
	Quantity       int32
	LineCents      int64
}
