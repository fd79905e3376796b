package domain

import "strings"

// SellerSKUAttributeID marks the attribute that carries the seller SKU.
const SellerSKUAttributeID = "SELLER_SKU"

// SKUSource is a catalog entry a SKU can be read from.
type SKUSource interface {
	// ExplicitSKU returns the dedicated seller-SKU field, or "".
	ExplicitSKU() string
	// SKUAttributes returns the entry's attribute list.
	SKUAttributes() []Attribute
}

// ExtractSKU resolves the merchant SKU of a catalog entry.
//
// Explicit seller-SKU fields win over attributes. When entry is a variation,
// its own field wins over the parent's. Only the entry's own attribute list is
// scanned. Pass a nil parent for top-level items.
//
// Returns false if no SKU can be resolved; callers must skip the entry.
func ExtractSKU(entry, parent SKUSource) (string, bool) {
	if sku := strings.TrimSpace(entry.ExplicitSKU()); sku != "" {
		return sku, true
	}
	if parent != nil {
		if sku := strings.TrimSpace(parent.ExplicitSKU()); sku != "" {
			return sku, true
		}
	}
	for _, attr := range entry.SKUAttributes() {
		if attr.ID != SellerSKUAttributeID {
			continue
		}
		if sku := strings.TrimSpace(attr.ValueName); sku != "" {
			return sku, true
		}
	}
	return "", false
}
