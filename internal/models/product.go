package models

import "time"

// Product is a live catalog record. Orders never reference these rows
// directly; they carry a denormalized copy captured at checkout.
type Product struct {
	ID          string
	Title       string
	Description string
	PriceCents  int64
	// ImageKey is the object-storage key of the product image.
	ImageKey string
	// UserID is the admin user owning the listing.
	UserID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductPage is one page of a catalog listing plus the pagination
// metadata the storefront renders.
type ProductPage struct {
	Products    []*Product
	TotalItems  int64
	CurrentPage int
	LastPage    int
	HasNext     bool
	HasPrev     bool
}
