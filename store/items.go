package store

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/types"
)

// ItemRow is the persisted shape of an invoice line. Money is kept in
// minor units; the currency lives on the invoice row.
type ItemRow struct {
	ID          string `json:"id" bson:"id"`
	Description string `json:"description" bson:"description"`
	Quantity    string `json:"quantity" bson:"quantity"`
	UnitPrice   int64  `json:"unit_price" bson:"unit_price"`
	LineTotal   int64  `json:"line_total" bson:"line_total"`
	SortOrder   int    `json:"sort_order" bson:"sort_order"`
}

// ItemRows flattens invoice items for storage.
func ItemRows(items []invoice.Item) []ItemRow {
	rows := make([]ItemRow, len(items))
	for i, it := range items {
		rows[i] = ItemRow{
			ID:          it.ID.String(),
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.Amount,
			LineTotal:   it.LineTotal.Amount,
			SortOrder:   it.SortOrder,
		}
	}
	return rows
}

// Items rebuilds invoice items from stored rows.
func Items(rows []ItemRow, currency string) ([]invoice.Item, error) {
	items := make([]invoice.Item, len(rows))
	for i, r := range rows {
		itemID, err := id.ParseItemID(r.ID)
		if err != nil {
			return nil, err
		}
		qty, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			return nil, err
		}
		items[i] = invoice.Item{
			ID:          itemID,
			Description: r.Description,
			Quantity:    qty,
			UnitPrice:   types.Money{Amount: r.UnitPrice, Currency: currency},
			LineTotal:   types.Money{Amount: r.LineTotal, Currency: currency},
			SortOrder:   r.SortOrder,
		}
	}
	return items, nil
}

// EncodeItems serialises items for a JSON column.
func EncodeItems(items []invoice.Item) (json.RawMessage, error) {
	return json.Marshal(ItemRows(items))
}

// DecodeItems parses a JSON items column. An empty column yields no items.
func DecodeItems(data []byte, currency string) ([]invoice.Item, error) {
	var rows []ItemRow
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, err
		}
	}
	return Items(rows, currency)
}
