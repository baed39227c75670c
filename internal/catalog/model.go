package catalog

import "time"

// Product is one sellable grocery item. Prices are stored in minor units.
type Product struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Unit        string    `json:"unit"`
	PriceCents  int64     `json:"price_cents"`
	StockQty    int       `json:"stock_qty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category is a storefront navigation entry. Products reference it by slug;
// archiving a category removes it from navigation without touching the
// products that carry its slug.
type Category struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListRequest filters a product listing.
type ListRequest struct {
	Category    string
	Page        int
	PerPage     int
	IncludeAll  bool // admin listings include archived products
}
