// Package domain defines the core business entities for marketsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Account: A connected marketplace seller account and its tokens
//   - CatalogItem / Variation: Catalog entries as returned by the marketplace
//   - StockSnapshot / SKUMapping: Current-known availability per SKU
//   - Order / OrderItem: Order headers and their line items
//   - SyncCursor: Watermark of an incremental job
//
// Pure business rules live here too: ExtractSKU and ClassifyStock.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
