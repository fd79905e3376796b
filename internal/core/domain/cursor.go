package domain

import "time"

// SyncCursor is the watermark of an incremental job.
// LastProcessedAt never moves backwards during normal operation.
type SyncCursor struct {
	JobName         string
	LastProcessedAt time.Time
	UpdatedAt       time.Time
}

// ordersJobPrefix prefixes order-sync cursor names.
const ordersJobPrefix = "orders_"

// OrdersJobName returns the cursor name of the order sync for an account.
func OrdersJobName(accountID string) string {
	return ordersJobPrefix + accountID
}
