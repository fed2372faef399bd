package dashboard

import (
	"testing"

	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/types"
)

func TestComputeExample(t *testing.T) {
	invs := []*invoice.Invoice{
		{Status: invoice.StatusPaid, Total: types.EUR(2805)},
		{Status: invoice.StatusSent, Total: types.EUR(1000)},
	}

	s := Compute(invs, "eur")

	if s.TotalInvoices != 2 {
		t.Errorf("TotalInvoices: got %d", s.TotalInvoices)
	}
	if s.ByStatus[invoice.StatusPaid] != 1 || s.ByStatus[invoice.StatusSent] != 1 {
		t.Errorf("ByStatus: got %v", s.ByStatus)
	}
	checks := []struct {
		name string
		got  types.Money
		want int64
	}{
		{"total", s.Totals.Total, 3805},
		{"paid", s.Totals.Paid, 2805},
		{"outstanding", s.Totals.Outstanding, 1000},
		{"overdue", s.Totals.Overdue, 0},
	}
	for _, c := range checks {
		if c.got.Amount != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got.Amount, c.want)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, "eur")
	if s.TotalInvoices != 0 || !s.Totals.Total.IsZero() {
		t.Errorf("expected zero stats, got %+v", s)
	}
	if len(s.ByStatus) != len(invoice.Statuses()) {
		t.Errorf("every status should be present, got %v", s.ByStatus)
	}
	for st, n := range s.ByStatus {
		if n != 0 {
			t.Errorf("%s: got %d", st, n)
		}
	}
}

func TestComputeOverdueAndCancelled(t *testing.T) {
	s := Compute([]*invoice.Invoice{
		{Status: invoice.StatusOverdue, Total: types.EUR(500)},
		{Status: invoice.StatusCancelled, Total: types.EUR(700)},
		{Status: invoice.StatusDraft, Total: types.EUR(100)},
	}, "eur")

	if s.Totals.Overdue.Amount != 500 {
		t.Errorf("overdue: got %d", s.Totals.Overdue.Amount)
	}
	if s.Totals.Total.Amount != 1300 {
		t.Errorf("total: got %d", s.Totals.Total.Amount)
	}
	if s.Totals.Outstanding.Amount != 0 || s.Totals.Paid.Amount != 0 {
		t.Errorf("unexpected buckets: %+v", s.Totals)
	}
}
