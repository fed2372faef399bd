package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/types"
)

// QuantityPlaces is the precision quantities are stored with.
const QuantityPlaces = 3

// Upper bounds on caller amounts. With at most MaxAmount per line and per
// subtotal, and a tax rate below 1000%, every total fits in types.Money.
var (
	MaxQuantity = decimal.New(1, 9)
	MaxAmount   = decimal.New(1, 13)
)

// LineAmount is quantity times unit price at the precision BuildItems
// stores them with.
func LineAmount(li ItemInput) decimal.Decimal {
	return li.Quantity.Round(QuantityPlaces).Mul(li.UnitPrice.Round(2))
}

// LineTotal is round2(quantity * unitPrice).
func LineTotal(quantity decimal.Decimal, unitPrice types.Money) types.Money {
	return unitPrice.MulDecimal(quantity)
}

// Totals is the financial summary of an item set.
type Totals struct {
	Subtotal  types.Money
	TaxAmount types.Money
	Total     types.Money
}

// ComputeTotals derives subtotal, tax and total from the items' line totals
// and a percentage tax rate. Each step rounds to the minor unit.
func ComputeTotals(items []Item, taxRate decimal.Decimal, currency string) Totals {
	subtotal := types.Zero(currency)
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	tax := types.MoneyFromDecimal(subtotal.Decimal().Mul(taxRate).Shift(-2), currency)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}

// BuildItems materializes caller lines into items with fresh ids, dense
// sort orders and computed line totals.
func BuildItems(in []ItemInput, currency string) []Item {
	items := make([]Item, len(in))
	for i, li := range in {
		unit := types.MoneyFromDecimal(li.UnitPrice, currency)
		qty := li.Quantity.Round(QuantityPlaces)
		items[i] = Item{
			ID:          id.NewItemID(),
			Description: li.Description,
			Quantity:    qty,
			UnitPrice:   unit,
			LineTotal:   LineTotal(qty, unit),
			SortOrder:   i,
		}
	}
	return items
}

// Recalculate refreshes the invoice totals from its items and tax rate.
func (inv *Invoice) Recalculate() {
	t := ComputeTotals(inv.Items, inv.TaxRate, inv.Currency)
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.Total = t.Total
}

// Consistent reports whether the stored totals and sort orders agree with
// the items. The tax amount is checked for sign only: a tax-rate-only update
// keeps the amount computed under the previous rate.
func (inv *Invoice) Consistent() bool {
	subtotal := types.Zero(inv.Currency)
	for i, it := range inv.Items {
		if it.SortOrder != i {
			return false
		}
		if !it.LineTotal.Equal(LineTotal(it.Quantity, it.UnitPrice)) {
			return false
		}
		subtotal = subtotal.Add(it.LineTotal)
	}
	return subtotal.Equal(inv.Subtotal) &&
		!inv.TaxAmount.IsNegative() &&
		inv.Subtotal.Add(inv.TaxAmount).Equal(inv.Total)
}
