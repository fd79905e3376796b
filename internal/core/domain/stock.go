package domain

import "time"

// StockStatus is the locally normalised availability of a SKU.
type StockStatus string

// Stock statuses.
const (
	StockInStock     StockStatus = "in_stock"
	StockOutOfStock  StockStatus = "out_of_stock"
	StockUnpublished StockStatus = "unpublished"
)

// IsValid returns true if the status is one of the known values.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockInStock, StockOutOfStock, StockUnpublished:
		return true
	default:
		return false
	}
}

// ClassifyStock maps a marketplace quantity and item state onto a StockStatus.
// A paused or closed item is unpublished whatever its quantity.
func ClassifyStock(quantity int, state ItemState) StockStatus {
	if state == ItemStatePaused || state == ItemStateClosed {
		return StockUnpublished
	}
	if quantity <= 0 {
		return StockOutOfStock
	}
	return StockInStock
}

// StockSnapshot is the current-known availability of one SKU.
// Keyed by (AccountID, SKU); each sync overwrites the previous value.
type StockSnapshot struct {
	AccountID string
	SKU       string
	Quantity  int
	Status    StockStatus
	UpdatedAt time.Time
}

// SKUMapping links a SKU to the catalog entry it was resolved from.
// Keyed by (AccountID, SKU).
type SKUMapping struct {
	AccountID     string
	SKU           string
	CatalogItemID string
	// VariationID is empty for items sold without variations.
	VariationID    string
	LastResolvedAt time.Time
	LastError      string
}
