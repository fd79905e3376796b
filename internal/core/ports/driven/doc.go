// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - AccountStore: Connected accounts and their tokens (credential store)
//   - StockStore: Stock snapshots and SKU mappings
//   - OrderStore: Order headers and line items
//   - CursorStore: Named watermarks of incremental jobs
//   - Marketplace: Catalog search, item multi-get and order search
//   - TokenRefresher: refresh_token grant against the token endpoint
//   - SchedulerStore: Scheduler task state and history
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AccountLocker: Cross-process serialisation of token refreshes.
//     Without it, refreshes are serialised within the process only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
