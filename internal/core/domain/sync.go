package domain

import "time"

// SyncKind selects which syncers a run executes.
type SyncKind string

// Sync kinds.
const (
	SyncKindStock  SyncKind = "stock"
	SyncKindOrders SyncKind = "orders"
	SyncKindAll    SyncKind = "all"
)

// IsValid returns true if the kind is recognised.
func (k SyncKind) IsValid() bool {
	switch k {
	case SyncKindStock, SyncKindOrders, SyncKindAll:
		return true
	default:
		return false
	}
}

// IncludesStock returns true if the kind runs the stock syncer.
func (k SyncKind) IncludesStock() bool {
	return k == SyncKindStock || k == SyncKindAll
}

// IncludesOrders returns true if the kind runs the order syncer.
func (k SyncKind) IncludesOrders() bool {
	return k == SyncKindOrders || k == SyncKindAll
}

// StockSyncReport summarises one full catalog scan.
type StockSyncReport struct {
	AccountID string
	// Pages is the number of catalog search pages fetched.
	Pages int
	// Items is the number of catalog items inspected.
	Items int
	// Upserted is the number of SKUs written.
	Upserted int
	// Skipped is the number of entries without a resolvable SKU.
	Skipped   int
	StartedAt time.Time
	EndedAt   time.Time
}

// OrderSyncReport summarises one incremental order run.
type OrderSyncReport struct {
	AccountID string
	// From is the lower bound the run searched from.
	From   time.Time
	Orders int
	Items  int
	// CursorAdvancedTo is zero when the cursor was left untouched.
	CursorAdvancedTo time.Time
	StartedAt        time.Time
	EndedAt          time.Time
}
