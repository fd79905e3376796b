package domain

// ItemState is the marketplace's publication state for a catalog item.
type ItemState string

// Known item states.
const (
	ItemStateActive      ItemState = "active"
	ItemStatePaused      ItemState = "paused"
	ItemStateClosed      ItemState = "closed"
	ItemStateUnderReview ItemState = "under_review"
)

// Attribute is a typed key/value pair attached to a catalog entry.
type Attribute struct {
	// ID identifies the attribute kind (e.g. "SELLER_SKU", "BRAND").
	ID string
	// Name is the display name of the attribute kind.
	Name string
	// ValueName is the display value.
	ValueName string
}

// CatalogItem is a listing in the seller's catalog, with full detail.
type CatalogItem struct {
	ID                string
	Title             string
	Status            ItemState
	AvailableQuantity int
	// SellerSKU is the explicit seller-defined SKU field, if set.
	SellerSKU  string
	Attributes []Attribute
	Variations []Variation
}

// Variation is one purchasable option (size, colour) of a CatalogItem.
type Variation struct {
	ID                string
	AvailableQuantity int
	SellerSKU         string
	Attributes        []Attribute
}

// HasVariations returns true if the item is sold through variations.
func (i CatalogItem) HasVariations() bool {
	return len(i.Variations) > 0
}

// ExplicitSKU implements SKUSource.
func (i CatalogItem) ExplicitSKU() string { return i.SellerSKU }

// SKUAttributes implements SKUSource.
func (i CatalogItem) SKUAttributes() []Attribute { return i.Attributes }

// ExplicitSKU implements SKUSource.
func (v Variation) ExplicitSKU() string { return v.SellerSKU }

// SKUAttributes implements SKUSource.
func (v Variation) SKUAttributes() []Attribute { return v.Attributes }

// CatalogPage is one page of the catalog listing endpoint.
type CatalogPage struct {
	ItemIDs []string
	// Total is the total number of items the marketplace reports.
	Total  int
	Offset int
	Limit  int
}
