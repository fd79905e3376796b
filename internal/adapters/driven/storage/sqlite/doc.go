// Package sqlite provides a unified SQLite-based implementation of the
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. It implements every store interface through a single
// database connection:
//
//   - AccountStore: connected accounts and their token pair
//   - StockStore: stock snapshots and SKU mappings
//   - OrderStore: order headers and line items
//   - CursorStore: incremental sync watermarks
//   - SchedulerStore: scheduled task state and history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.marketsync/data/marketsync.db
//
// # Timestamps
//
// Times are stored as fixed-width UTC text so that string comparison in SQL
// matches chronological order.
package sqlite
