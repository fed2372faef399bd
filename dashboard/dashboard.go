// Package dashboard computes the read-only per-company invoice rollup.
package dashboard

import (
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/types"
)

// Stats summarises a company's invoices.
type Stats struct {
	TotalInvoices int                    `json:"total_invoices"`
	ByStatus      map[invoice.Status]int `json:"by_status"`
	Totals        Totals                 `json:"totals"`
}

// Totals are money sums by bucket. Outstanding is the sum of sent invoices.
type Totals struct {
	Total       types.Money `json:"total"`
	Paid        types.Money `json:"paid"`
	Outstanding types.Money `json:"outstanding"`
	Overdue     types.Money `json:"overdue"`
}

// Empty returns zero stats with every status present.
func Empty(currency string) *Stats {
	s := &Stats{
		ByStatus: make(map[invoice.Status]int, len(invoice.Statuses())),
		Totals: Totals{
			Total:       types.Zero(currency),
			Paid:        types.Zero(currency),
			Outstanding: types.Zero(currency),
			Overdue:     types.Zero(currency),
		},
	}
	for _, st := range invoice.Statuses() {
		s.ByStatus[st] = 0
	}
	return s
}

// Compute folds invoices into Stats. Invoices in another currency than
// the ledger's are counted but not summed.
func Compute(invs []*invoice.Invoice, currency string) *Stats {
	s := Empty(currency)
	for _, inv := range invs {
		s.TotalInvoices++
		s.ByStatus[inv.Status]++

		if inv.Total.Currency != s.Totals.Total.Currency {
			continue
		}
		s.Totals.Total = s.Totals.Total.Add(inv.Total)
		switch inv.Status {
		case invoice.StatusPaid:
			s.Totals.Paid = s.Totals.Paid.Add(inv.Total)
		case invoice.StatusSent:
			s.Totals.Outstanding = s.Totals.Outstanding.Add(inv.Total)
		case invoice.StatusOverdue:
			s.Totals.Overdue = s.Totals.Overdue.Add(inv.Total)
		}
	}
	return s
}
