package domain

import "time"

// Order is an order header. Keyed by (AccountID, OrderID).
type Order struct {
	AccountID   string
	OrderID     string
	Status      string
	DateCreated time.Time
	TotalAmount float64
	// PaidAmount is nil until the marketplace reports a payment.
	PaidAmount *float64
	BuyerID    string
	ShipmentID string
	// RawPayload is the marketplace's JSON for the order, kept for audit.
	// The engine never parses it.
	RawPayload []byte
	UpdatedAt  time.Time
}

// OrderItem is one line of an order. The set of items of an order is
// replaced as a whole on every resync.
type OrderItem struct {
	AccountID     string
	OrderID       string
	SKU           string
	CatalogItemID string
	VariationID   string
	Title         string
	Quantity      int
	UnitPrice     float64
	Discount      float64
	RawPayload    []byte
}

// MarketOrder is an order as returned by order search, with its items.
type MarketOrder struct {
	Order Order
	Items []OrderItem
}

// OrderQuery filters the order search endpoint.
type OrderQuery struct {
	SellerID string
	// CreatedFrom is the inclusive lower bound on date_created.
	CreatedFrom time.Time
	Offset      int
	Limit       int
}

// OrderPage is one page of order search results, ascending by DateCreated.
type OrderPage struct {
	Orders []MarketOrder
	Total  int
	Offset int
	Limit  int
}
