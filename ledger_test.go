package ledger_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/blob"
	blobfs "github.com/xraph/invoiceledger/blob/fs"
	"github.com/xraph/invoiceledger/cache"
	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/store"
	"github.com/xraph/invoiceledger/store/memory"
	"github.com/xraph/invoiceledger/types"
)

type fixture struct {
	l    *ledger.Ledger
	ctx  context.Context
	co   *company.Company
	cust *customer.Customer
}

func setup(t *testing.T, opts ...ledger.Option) *fixture {
	t.Helper()
	return setupStore(t, memory.New(), opts...)
}

func setupStore(t *testing.T, s store.Store, opts ...ledger.Option) *fixture {
	t.Helper()
	l := ledger.New(s, opts...)
	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	f := &fixture{l: l}
	f.co, f.ctx = f.tenant(t, "Acme", ledger.RoleAdmin)
	f.cust = &customer.Customer{Name: "Globex", Email: "billing@globex.test"}
	if err := l.CreateCustomer(f.ctx, f.cust); err != nil {
		t.Fatal(err)
	}
	return f
}

// tenant creates a company and returns a context acting as it.
func (f *fixture) tenant(t *testing.T, name string, role ledger.Role) (*company.Company, context.Context) {
	t.Helper()
	co := &company.Company{Name: name}
	if err := f.l.CreateCompany(context.Background(), co); err != nil {
		t.Fatal(err)
	}
	return co, ledger.WithTenant(context.Background(), ledger.Tenant{
		CompanyID: co.ID,
		UserID:    name + "-user",
		Role:      role,
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) input(items ...invoice.ItemInput) invoice.Input {
	return invoice.Input{
		CustomerID: f.cust.ID,
		IssueDate:  types.MustParseDate("2024-01-01"),
		DueDate:    types.MustParseDate("2024-01-31"),
		TaxRate:    dec("10"),
		Items:      items,
	}
}

func line(desc, qty, price string) invoice.ItemInput {
	return invoice.ItemInput{Description: desc, Quantity: dec(qty), UnitPrice: dec(price)}
}

func (f *fixture) create(t *testing.T, in invoice.Input) *invoice.Invoice {
	t.Helper()
	inv, err := f.l.CreateInvoice(f.ctx, in)
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}

func hasField(err error, field string) bool {
	var ve *ledger.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	var all ledger.ValidationErrors
	if errors.As(err, &all) {
		_, ok := all.Fields()[field]
		return ok
	}
	return ve.Field == field
}

// ──────────────────────────────────────────────────
// Invoices
// ──────────────────────────────────────────────────

func TestCreateInvoiceTotals(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input(line("Consulting", "2", "12.75")))

	if inv.Subtotal.Amount != 2550 || inv.TaxAmount.Amount != 255 || inv.Total.Amount != 2805 {
		t.Fatalf("totals = %d/%d/%d, want 2550/255/2805",
			inv.Subtotal.Amount, inv.TaxAmount.Amount, inv.Total.Amount)
	}
	if inv.Status != invoice.StatusDraft {
		t.Errorf("status = %s, want draft", inv.Status)
	}
	if len(inv.Items) != 1 || inv.Items[0].LineTotal.Amount != 2550 {
		t.Errorf("items = %+v", inv.Items)
	}
	if !inv.Consistent() {
		t.Error("stored totals do not match items")
	}

	got, err := f.l.GetInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total.Amount != 2805 || got.Number != inv.Number {
		t.Errorf("read back %+v", got)
	}
}

func TestCreateInvoiceEmptyItems(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input())
	if !inv.Total.IsZero() || inv.Items == nil || len(inv.Items) != 0 {
		t.Fatalf("want zero totals and empty items, got %+v", inv)
	}
}

func TestAutomaticNumbering(t *testing.T) {
	f := setup(t)
	a := f.create(t, f.input())
	b := f.create(t, f.input())
	if a.Number != "INV-0001" || b.Number != "INV-0002" {
		t.Fatalf("numbers = %s, %s", a.Number, b.Number)
	}

	// numbering is per company
	_, other := f.tenant(t, "Initech", ledger.RoleAdmin)
	oc := &customer.Customer{Name: "Hooli"}
	if err := f.l.CreateCustomer(other, oc); err != nil {
		t.Fatal(err)
	}
	in := f.input()
	in.CustomerID = oc.ID
	c, err := f.l.CreateInvoice(other, in)
	if err != nil {
		t.Fatal(err)
	}
	if c.Number != "INV-0001" {
		t.Errorf("other company number = %s, want INV-0001", c.Number)
	}
}

func TestAutomaticNumberingSkipsTakenNumbers(t *testing.T) {
	f := setup(t)
	in := f.input()
	in.InvoiceNumber = "INV-0001"
	f.create(t, in)

	auto := f.create(t, f.input())
	if auto.Number != "INV-0002" {
		t.Fatalf("number = %s, want INV-0002", auto.Number)
	}
}

func TestAutomaticNumberingGivesUp(t *testing.T) {
	f := setup(t, ledger.WithNumberRetries(2))
	for _, n := range []string{"INV-0001", "INV-0002"} {
		in := f.input()
		in.InvoiceNumber = n
		f.create(t, in)
	}
	_, err := f.l.CreateInvoice(f.ctx, f.input())
	if !errors.Is(err, ledger.ErrDuplicateNumber) {
		t.Fatalf("want ErrDuplicateNumber, got %v", err)
	}
}

func TestExplicitDuplicateNumber(t *testing.T) {
	f := setup(t)
	in := f.input()
	in.InvoiceNumber = "2024-17"
	f.create(t, in)

	_, err := f.l.CreateInvoice(f.ctx, in)
	if !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	f := setup(t)
	const n = 20

	var (
		mu      sync.Mutex
		numbers = make(map[string]bool)
	)
	g, ctx := errgroup.WithContext(f.ctx)
	for range n {
		g.Go(func() error {
			inv, err := f.l.CreateInvoice(ctx, f.input(line("x", "1", "1")))
			if err != nil {
				return err
			}
			mu.Lock()
			numbers[inv.Number] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if len(numbers) != n {
		t.Fatalf("got %d distinct numbers, want %d", len(numbers), n)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name  string
		edit  func(*invoice.Input)
		field string
	}{
		{"unknown status", func(in *invoice.Input) { in.Status = "refunded" }, "status"},
		{"missing customer", func(in *invoice.Input) { in.CustomerID = id.Nil }, "customer_id"},
		{"missing issue date", func(in *invoice.Input) { in.IssueDate = types.Date{} }, "issue_date"},
		{"due before issue", func(in *invoice.Input) { in.DueDate = types.MustParseDate("2023-12-31") }, "due_date"},
		{"negative tax", func(in *invoice.Input) { in.TaxRate = dec("-1") }, "tax_rate"},
		{"tax too large", func(in *invoice.Input) { in.TaxRate = dec("1000") }, "tax_rate"},
		{"blank description", func(in *invoice.Input) { in.Items = []invoice.ItemInput{line(" ", "1", "1")} }, "items[0].description"},
		{"negative quantity", func(in *invoice.Input) { in.Items = []invoice.ItemInput{line("a", "-1", "1")} }, "items[0].quantity"},
		{"negative price", func(in *invoice.Input) { in.Items = []invoice.ItemInput{line("a", "1", "-0.01")} }, "items[0].unit_price"},
		{"huge quantity", func(in *invoice.Input) { in.Items = []invoice.ItemInput{line("a", "1e17", "1000.00")} }, "items[0].quantity"},
		{"huge price", func(in *invoice.Input) { in.Items = []invoice.ItemInput{line("a", "1", "1e17")} }, "items[0].unit_price"},
		{"huge line total", func(in *invoice.Input) { in.Items = []invoice.ItemInput{line("a", "1000000", "100000000")} }, "items[0]"},
		{"huge subtotal", func(in *invoice.Input) {
			in.Items = []invoice.ItemInput{line("a", "1", "6000000000000"), line("b", "1", "6000000000000")}
		}, "items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			tt.edit(&in)
			_, err := f.l.CreateInvoice(f.ctx, in)
			if !ledger.IsValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
			if !hasField(err, tt.field) {
				t.Errorf("error %v does not name %s", err, tt.field)
			}
		})
	}
}

func TestCreateInvoiceForeignCustomer(t *testing.T) {
	f := setup(t)
	_, other := f.tenant(t, "Initech", ledger.RoleAdmin)

	_, err := f.l.CreateInvoice(other, f.input())
	if !errors.Is(err, ledger.ErrCustomerNotFound) {
		t.Fatalf("want customer not found, got %v", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input())
	_, other := f.tenant(t, "Initech", ledger.RoleAdmin)

	if _, err := f.l.GetInvoice(other, inv.ID); !ledger.IsNotFound(err) {
		t.Errorf("get: want not found, got %v", err)
	}
	notes := "hijack"
	if _, err := f.l.UpdateInvoice(other, inv.ID, invoice.Patch{Notes: &notes}); !ledger.IsNotFound(err) {
		t.Errorf("update: want not found, got %v", err)
	}
	if err := f.l.DeleteInvoice(other, inv.ID); !ledger.IsNotFound(err) {
		t.Errorf("delete: want not found, got %v", err)
	}
	list, err := f.l.ListInvoices(other, invoice.ListOpts{})
	if err != nil || len(list) != 0 {
		t.Errorf("list: got %d invoices, err %v", len(list), err)
	}
	if _, err := f.l.GetInvoice(f.ctx, inv.ID); err != nil {
		t.Errorf("owner lost access: %v", err)
	}
}

func TestNoTenant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.l.ListInvoices(ctx, invoice.ListOpts{}); !errors.Is(err, ledger.ErrNoTenant) {
		t.Errorf("list: got %v", err)
	}
	if _, err := f.l.CreateInvoice(ctx, f.input()); !errors.Is(err, ledger.ErrNoTenant) {
		t.Errorf("create: got %v", err)
	}
	if _, err := f.l.Stats(ctx); !errors.Is(err, ledger.ErrNoTenant) {
		t.Errorf("stats: got %v", err)
	}
}

func TestUpdateInvoiceReplacesItems(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input(line("a", "1", "10"), line("b", "1", "20")))

	items := []invoice.ItemInput{line("c", "3", "5")}
	got, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Items: &items})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 1 || got.Items[0].Description != "c" {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.Subtotal.Amount != 1500 || got.Total.Amount != 1650 {
		t.Errorf("totals = %d/%d, want 1500/1650", got.Subtotal.Amount, got.Total.Amount)
	}
	if !got.UpdatedAt.After(inv.UpdatedAt) && !got.UpdatedAt.Equal(inv.UpdatedAt) {
		t.Error("updated_at went backwards")
	}
}

func TestUpdateTaxRateKeepsTotals(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input(line("a", "1", "100")))

	rate := dec("20")
	got, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{TaxRate: &rate})
	if err != nil {
		t.Fatal(err)
	}
	if !got.TaxRate.Equal(rate) {
		t.Errorf("tax rate = %s", got.TaxRate)
	}
	if got.Total.Amount != inv.Total.Amount || got.TaxAmount.Amount != inv.TaxAmount.Amount {
		t.Errorf("totals changed without items: %d -> %d", inv.Total.Amount, got.Total.Amount)
	}
}

func TestRenderAfterTaxRateUpdate(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input(line("A", "2", "10"), line("B", "1", "5.50")))

	rate := dec("20")
	got, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{TaxRate: &rate})
	if err != nil {
		t.Fatal(err)
	}
	if got.TaxAmount.Amount != 255 || got.Total.Amount != 2805 {
		t.Fatalf("totals = %d/%d, want 255/2805", got.TaxAmount.Amount, got.Total.Amount)
	}

	doc, err := f.l.RenderInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatalf("render after tax rate update: %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes, []byte("%PDF")) {
		t.Error("document is not a PDF")
	}
}

func TestLargestAllowedInvoice(t *testing.T) {
	f := setup(t)
	in := f.input(line("a", "1", "10000000000000"))
	in.TaxRate = dec("999.99")
	inv := f.create(t, in)
	if inv.Subtotal.Amount != 1_000_000_000_000_000 {
		t.Fatalf("subtotal = %d", inv.Subtotal.Amount)
	}
	if !inv.Subtotal.Add(inv.TaxAmount).Equal(inv.Total) || inv.Total.Amount <= inv.Subtotal.Amount {
		t.Fatalf("totals wrapped: %+v", inv)
	}
}

func TestUpdateInvoiceValidatesMergedState(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input())

	due := types.MustParseDate("2023-06-01")
	if _, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{DueDate: &due}); !hasField(err, "due_date") {
		t.Errorf("due date: got %v", err)
	}
	bad := invoice.Status("void")
	if _, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Status: &bad}); !hasField(err, "status") {
		t.Errorf("status: got %v", err)
	}
	empty := "  "
	if _, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{InvoiceNumber: &empty}); !hasField(err, "invoice_number") {
		t.Errorf("number: got %v", err)
	}
}

func TestUpdateInvoiceNumberConflict(t *testing.T) {
	f := setup(t)
	a := f.create(t, f.input())
	f.create(t, f.input())

	taken := "INV-0002"
	if _, err := f.l.UpdateInvoice(f.ctx, a.ID, invoice.Patch{InvoiceNumber: &taken}); !ledger.IsConflict(err) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	paid := invoice.StatusPaid
	draft := invoice.StatusDraft

	t.Run("permissive by default", func(t *testing.T) {
		f := setup(t)
		inv := f.create(t, f.input())
		if _, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Status: &paid}); err != nil {
			t.Fatal(err)
		}
		if _, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Status: &draft}); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("strict", func(t *testing.T) {
		f := setup(t, ledger.WithStrictTransitions())
		in := f.input()
		in.Status = invoice.StatusSent
		inv := f.create(t, in)
		if _, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Status: &paid}); err != nil {
			t.Fatal(err)
		}
		_, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Status: &draft})
		if !hasField(err, "status") {
			t.Fatalf("paid -> draft: want status validation error, got %v", err)
		}
	})
}

func TestDeleteInvoice(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input(line("a", "1", "1")))

	if err := f.l.DeleteInvoice(f.ctx, inv.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.l.DeleteInvoice(f.ctx, inv.ID); !ledger.IsNotFound(err) {
		t.Fatalf("second delete: want not found, got %v", err)
	}
	if _, err := f.l.GetInvoice(f.ctx, inv.ID); !ledger.IsNotFound(err) {
		t.Fatalf("get after delete: got %v", err)
	}
}

func TestListInvoices(t *testing.T) {
	f := setup(t)
	sent := f.input()
	sent.Status = invoice.StatusSent
	f.create(t, f.input())
	f.create(t, sent)

	all, err := f.l.ListInvoices(f.ctx, invoice.ListOpts{})
	if err != nil || len(all) != 2 {
		t.Fatalf("all: %d, %v", len(all), err)
	}
	only, err := f.l.ListInvoices(f.ctx, invoice.ListOpts{Status: invoice.StatusSent})
	if err != nil || len(only) != 1 || only[0].Status != invoice.StatusSent {
		t.Fatalf("sent: %+v, %v", only, err)
	}
	if _, err := f.l.ListInvoices(f.ctx, invoice.ListOpts{Status: "bogus"}); !hasField(err, "status") {
		t.Fatalf("bogus filter: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Customers and company
// ──────────────────────────────────────────────────

func TestCustomerLifecycle(t *testing.T) {
	f := setup(t)

	if err := f.l.CreateCustomer(f.ctx, &customer.Customer{Name: ""}); !hasField(err, "name") {
		t.Errorf("empty name: %v", err)
	}
	if err := f.l.CreateCustomer(f.ctx, &customer.Customer{Name: "X", Email: "nope"}); !hasField(err, "email") {
		t.Errorf("bad email: %v", err)
	}

	name := "Globex Corp"
	got, err := f.l.UpdateCustomer(f.ctx, f.cust.ID, customer.Patch{Name: &name})
	if err != nil || got.Name != name || got.Email != f.cust.Email {
		t.Fatalf("update: %+v, %v", got, err)
	}

	list, err := f.l.ListCustomers(f.ctx, customer.ListOpts{Search: "glob"})
	if err != nil || len(list) != 1 {
		t.Fatalf("search: %d, %v", len(list), err)
	}
}

func TestDeleteCustomerInUse(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input())

	if err := f.l.DeleteCustomer(f.ctx, f.cust.ID); !errors.Is(err, ledger.ErrCustomerInUse) {
		t.Fatalf("want customer in use, got %v", err)
	}
	if err := f.l.DeleteInvoice(f.ctx, inv.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.l.DeleteCustomer(f.ctx, f.cust.ID); err != nil {
		t.Fatalf("delete unused customer: %v", err)
	}
	if _, err := f.l.GetCustomer(f.ctx, f.cust.ID); !ledger.IsNotFound(err) {
		t.Fatalf("get after delete: %v", err)
	}
}

func TestUpdateCompanyRequiresAdmin(t *testing.T) {
	f := setup(t)
	name := "Acme AG"

	user := ledger.WithTenant(context.Background(), ledger.Tenant{
		CompanyID: f.co.ID, UserID: "u", Role: ledger.RoleUser,
	})
	if _, err := f.l.UpdateCompany(user, company.Patch{Name: &name}); !errors.Is(err, ledger.ErrForbidden) {
		t.Fatalf("user: want forbidden, got %v", err)
	}

	got, err := f.l.UpdateCompany(f.ctx, company.Patch{Name: &name})
	if err != nil || got.Name != name {
		t.Fatalf("admin: %+v, %v", got, err)
	}
	if co, _ := f.l.GetCompany(user); co.Name != name {
		t.Errorf("company name = %s", co.Name)
	}
}

// ──────────────────────────────────────────────────
// Stats and documents
// ──────────────────────────────────────────────────

func TestStats(t *testing.T) {
	f := setup(t)
	for _, c := range []struct {
		status invoice.Status
		price  string
	}{
		{invoice.StatusPaid, "100"},
		{invoice.StatusSent, "50"},
		{invoice.StatusOverdue, "25"},
		{invoice.StatusDraft, "10"},
	} {
		in := f.input(line("x", "1", c.price))
		in.TaxRate = decimal.Zero
		in.Status = c.status
		f.create(t, in)
	}

	s, err := f.l.Stats(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalInvoices != 4 || s.ByStatus[invoice.StatusCancelled] != 0 || s.ByStatus[invoice.StatusPaid] != 1 {
		t.Fatalf("counts = %+v", s)
	}
	want := map[string]int64{
		"total":       18500,
		"paid":        10000,
		"outstanding": 5000,
		"overdue":     2500,
	}
	got := map[string]int64{
		"total":       s.Totals.Total.Amount,
		"paid":        s.Totals.Paid.Amount,
		"outstanding": s.Totals.Outstanding.Amount,
		"overdue":     s.Totals.Overdue.Amount,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d", k, got[k], v)
		}
	}
}

func TestRenderInvoiceStoresDocument(t *testing.T) {
	docs, err := blobfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := setup(t, ledger.WithDocumentStore(docs))
	inv := f.create(t, f.input(line("Consulting", "2", "12.75")))

	first, err := f.l.RenderInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(first.Bytes, []byte("%PDF")) {
		t.Fatal("document is not a PDF")
	}

	second, err := f.l.RenderInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Error("rendering the same invoice twice produced different bytes")
	}

	got, err := f.l.GetInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := "invoices/" + f.co.ID.String() + "/" + first.Filename
	if got.DocumentPath != want {
		t.Errorf("document path = %q, want %q", got.DocumentPath, want)
	}

	stored, err := f.l.InvoiceDocument(f.ctx, inv.ID)
	if err != nil || !bytes.Equal(stored.Bytes, first.Bytes) {
		t.Fatalf("stored document mismatch: %v", err)
	}

	if err := f.l.DeleteInvoice(f.ctx, inv.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := docs.Get(f.ctx, want); err == nil {
		t.Error("document survived invoice deletion")
	}
}

func TestInvoiceDocumentMissing(t *testing.T) {
	f := setup(t)
	inv := f.create(t, f.input())
	if _, err := f.l.InvoiceDocument(f.ctx, inv.ID); !ledger.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestRenderOutlivesCancelledCaller(t *testing.T) {
	docs, err := blobfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := setup(t, ledger.WithDocumentStore(contextBlob{docs}))
	inv := f.create(t, f.input(line("Consulting", "1", "100")))

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	if _, err := f.l.RenderInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("render with cancelled caller: %v", err)
	}
}

// contextBlob fails writes whose context is already done.
type contextBlob struct{ blob.Store }

func (b contextBlob) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Store.Put(ctx, key, data, contentType)
}

// ──────────────────────────────────────────────────
// Stats cache
// ──────────────────────────────────────────────────

func newStatsCache(t *testing.T) *cache.StatsCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStatsCache(client, time.Minute)
}

func TestStatsCacheFollowsWrites(t *testing.T) {
	f := setup(t, ledger.WithStatsCache(newStatsCache(t)))

	total := func() int {
		t.Helper()
		s, err := f.l.Stats(f.ctx)
		if err != nil {
			t.Fatal(err)
		}
		return s.TotalInvoices
	}

	if n := total(); n != 0 {
		t.Fatalf("empty company: %d invoices", n)
	}
	inv := f.create(t, f.input(line("x", "1", "10")))
	if n := total(); n != 1 {
		t.Fatalf("after create: %d invoices", n)
	}

	paid := invoice.StatusPaid
	if _, err := f.l.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Status: &paid}); err != nil {
		t.Fatal(err)
	}
	s, err := f.l.Stats(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.ByStatus[invoice.StatusPaid] != 1 || s.Totals.Paid.Amount != 1100 {
		t.Fatalf("after payment: %+v", s)
	}

	if err := f.l.DeleteInvoice(f.ctx, inv.ID); err != nil {
		t.Fatal(err)
	}
	if n := total(); n != 0 {
		t.Fatalf("after delete: %d invoices", n)
	}
}

// interleavingStore runs interleave once, right after the first invoice
// listing has been read.
type interleavingStore struct {
	*memory.Store
	once       sync.Once
	interleave func()
}

func (s *interleavingStore) ListInvoices(ctx context.Context, companyID id.CompanyID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	list, err := s.Store.ListInvoices(ctx, companyID, opts)
	if s.interleave != nil {
		s.once.Do(s.interleave)
	}
	return list, err
}

func TestStatsSnapshotRacingWriteIsNotCached(t *testing.T) {
	st := &interleavingStore{Store: memory.New()}
	f := setupStore(t, st, ledger.WithStatsCache(newStatsCache(t)))
	st.interleave = func() { f.create(t, f.input(line("x", "1", "10"))) }

	first, err := f.l.Stats(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalInvoices != 0 {
		t.Fatalf("first rollup predates the write, got %d invoices", first.TotalInvoices)
	}

	second, err := f.l.Stats(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.TotalInvoices != 1 {
		t.Fatalf("stale rollup served after write: %d invoices", second.TotalInvoices)
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestStartRejectsZeroDigitCurrency(t *testing.T) {
	l := ledger.New(memory.New(), ledger.WithCurrency("JPY"))
	err := l.Start(context.Background())
	if !ledger.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}

	usd := ledger.New(memory.New(), ledger.WithCurrency("usd"))
	if err := usd.Start(context.Background()); err != nil {
		t.Fatalf("usd: %v", err)
	}
	_ = usd.Stop()
}

func TestPingAfterStop(t *testing.T) {
	l := ledger.New(memory.New())
	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}

	err := l.Ping(ctx)
	if !errors.Is(err, ledger.ErrStoreNotReady) || !errors.Is(err, ledger.ErrStoreClosed) {
		t.Fatalf("ping after stop: %v", err)
	}
	if !ledger.IsRetryable(err) {
		t.Error("a stopped store should be retryable elsewhere")
	}
}
