package marketplace

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// orderDateLayout is the timestamp format the order search filter expects.
const orderDateLayout = "2006-01-02T15:04:05.000-07:00"

type paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// itemSearchResponse is the body of GET /users/{seller}/items/search.
type itemSearchResponse struct {
	Results []string `json:"results"`
	Paging  paging   `json:"paging"`
}

// itemEnvelope is one entry of the GET /items?ids= multi-get response.
type itemEnvelope struct {
	Code int             `json:"code"`
	Body json.RawMessage `json:"body"`
}

type attributeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ValueName string `json:"value_name"`
}

type variationDTO struct {
	ID                int64          `json:"id"`
	AvailableQuantity int            `json:"available_quantity"`
	SellerCustomField string         `json:"seller_custom_field"`
	Attributes        []attributeDTO `json:"attributes"`
}

type itemDTO struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	AvailableQuantity int            `json:"available_quantity"`
	SellerCustomField string         `json:"seller_custom_field"`
	Attributes        []attributeDTO `json:"attributes"`
	Variations        []variationDTO `json:"variations"`
}

// orderSearchResponse is the body of GET /orders/search. Results are kept
// raw so each order's payload can be stored verbatim.
type orderSearchResponse struct {
	Results []json.RawMessage `json:"results"`
	Paging  paging            `json:"paging"`
}

type orderDTO struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	DateCreated time.Time `json:"date_created"`
	TotalAmount float64   `json:"total_amount"`
	PaidAmount  *float64  `json:"paid_amount"`
	Buyer       *struct {
		ID int64 `json:"id"`
	} `json:"buyer"`
	Shipping *struct {
		ID *int64 `json:"id"`
	} `json:"shipping"`
	OrderItems []json.RawMessage `json:"order_items"`
}

type orderItemDTO struct {
	Item struct {
		ID                string `json:"id"`
		Title             string `json:"title"`
		SellerSKU         string `json:"seller_sku"`
		SellerCustomField string `json:"seller_custom_field"`
		VariationID       *int64 `json:"variation_id"`
	} `json:"item"`
	Quantity      int      `json:"quantity"`
	UnitPrice     float64  `json:"unit_price"`
	FullUnitPrice *float64 `json:"full_unit_price"`
}

func toAttributes(in []attributeDTO) []domain.Attribute {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Attribute, len(in))
	for i, a := range in {
		out[i] = domain.Attribute{ID: a.ID, Name: a.Name, ValueName: a.ValueName}
	}
	return out
}

func (d itemDTO) toDomain() domain.CatalogItem {
	item := domain.CatalogItem{
		ID:                d.ID,
		Title:             d.Title,
		Status:            domain.ItemState(d.Status),
		AvailableQuantity: d.AvailableQuantity,
		SellerSKU:         d.SellerCustomField,
		Attributes:        toAttributes(d.Attributes),
	}
	for _, v := range d.Variations {
		item.Variations = append(item.Variations, domain.Variation{
			ID:                strconv.FormatInt(v.ID, 10),
			AvailableQuantity: v.AvailableQuantity,
			SellerSKU:         v.SellerCustomField,
			Attributes:        toAttributes(v.Attributes),
		})
	}
	return item
}

// decodeOrder converts one raw order into the domain shape, keeping the raw
// JSON of the order and of every line item.
func decodeOrder(raw json.RawMessage) (domain.MarketOrder, error) {
	var d orderDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.MarketOrder{}, err
	}

	orderID := strconv.FormatInt(d.ID, 10)
	mo := domain.MarketOrder{Order: domain.Order{
		OrderID:     orderID,
		Status:      d.Status,
		DateCreated: d.DateCreated.UTC(),
		TotalAmount: d.TotalAmount,
		PaidAmount:  d.PaidAmount,
		RawPayload:  []byte(raw),
	}}
	if d.Buyer != nil && d.Buyer.ID != 0 {
		mo.Order.BuyerID = strconv.FormatInt(d.Buyer.ID, 10)
	}
	if d.Shipping != nil && d.Shipping.ID != nil {
		mo.Order.ShipmentID = strconv.FormatInt(*d.Shipping.ID, 10)
	}

	for _, rawItem := range d.OrderItems {
		var it orderItemDTO
		if err := json.Unmarshal(rawItem, &it); err != nil {
			return domain.MarketOrder{}, err
		}
		item := domain.OrderItem{
			OrderID:       orderID,
			SKU:           orderItemSKU(it),
			CatalogItemID: it.Item.ID,
			Title:         it.Item.Title,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			RawPayload:    []byte(rawItem),
		}
		if it.Item.VariationID != nil {
			item.VariationID = strconv.FormatInt(*it.Item.VariationID, 10)
		}
		if it.FullUnitPrice != nil && *it.FullUnitPrice > it.UnitPrice {
			item.Discount = *it.FullUnitPrice - it.UnitPrice
		}
		mo.Items = append(mo.Items, item)
	}
	return mo, nil
}

func orderItemSKU(it orderItemDTO) string {
	if sku := strings.TrimSpace(it.Item.SellerSKU); sku != "" {
		return sku
	}
	return strings.TrimSpace(it.Item.SellerCustomField)
}
