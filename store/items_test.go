package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/types"
)

func TestItemsKeepQuantityScale(t *testing.T) {
	items := []invoice.Item{{
		ID:          id.NewItemID(),
		Description: "Hosting",
		Quantity:    decimal.RequireFromString("1.500"),
		UnitPrice:   types.EUR(1999),
		LineTotal:   types.EUR(2999),
		SortOrder:   0,
	}}
	raw, err := EncodeItems(items)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeItems(raw, "eur")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Quantity.String() != "1.5" || !got[0].Quantity.Equal(items[0].Quantity) {
		t.Errorf("Quantity = %s, want 1.5", got[0].Quantity)
	}
	if got[0].LineTotal != types.EUR(2999) {
		t.Errorf("LineTotal = %v, want 29.99 EUR", got[0].LineTotal)
	}
}

func TestDecodeItemsEmptyColumn(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("[]")} {
		got, err := DecodeItems(raw, "eur")
		if err != nil {
			t.Fatalf("DecodeItems(%q): %v", raw, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("DecodeItems(%q) = %v, want empty slice", raw, got)
		}
	}
}

func TestDecodeItemsRejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad id", `[{"id":"nope","quantity":"1"}]`},
		{"bad quantity", `[{"id":"` + id.NewItemID().String() + `","quantity":"x"}]`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeItems([]byte(tt.raw), "eur"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
