package models

// Cart is the per-user mutable collection of pending purchase selections.
// Version implements optimistic concurrency for the checkout sequence:
// cart-read, order-create and cart-clear must all observe the same version.
type Cart struct {
	ID      string
	UserID  string
	Version int64
	Items   []CartItem
}

// CartItem stores only a product reference; prices are joined in at read
// time. At most one item per product: re-adding increments Quantity.
type CartItem struct {
	ProductID string
	Quantity  int32
}

// ResolvedCartItem is a cart line joined with the live product record.
// Product is nil when the referenced product no longer exists; such lines
// are shown as unavailable and block checkout.
type ResolvedCartItem struct {
	ProductID string
	Quantity  int32
	Product   *Product
}

// ResolvedCart is the read-time join of a cart against the live catalog.
type ResolvedCart struct {
	CartID  string
	UserID  string
	Version int64
	Items   []ResolvedCartItem
}

// TotalCents sums quantity × live unit price over resolvable lines using
// exact integer arithmetic in the smallest currency subunit.
func (c *ResolvedCart) TotalCents() int64 {
	var total int64
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		total += it.Product.PriceCents * int64(it.Quantity)
	}
	return total
}

// HasMissingProducts reports whether any line references a product that no
// longer resolves against the catalog.
func (c *ResolvedCart) HasMissingProducts() bool {
	for _, it := range c.Items {
		if it.Product == nil {
			return true
		}
	}
	return false
}
