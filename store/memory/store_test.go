package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/types"
)

// newCustomer stores a customer of companyID.
func newCustomer(t *testing.T, s *Store, companyID id.CompanyID) *customer.Customer {
	t.Helper()
	c := &customer.Customer{Entity: types.NewEntity(), ID: id.NewCustomerID(), CompanyID: companyID, Name: "Globex"}
	if err := s.CreateCustomer(context.Background(), c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

// newInvoice builds an invoice billed to a freshly stored customer.
func newInvoice(t *testing.T, s *Store, companyID id.CompanyID, number string) *invoice.Invoice {
	t.Helper()
	return &invoice.Invoice{
		Entity:     types.NewEntity(),
		ID:         id.NewInvoiceID(),
		CompanyID:  companyID,
		CustomerID: newCustomer(t, s, companyID).ID,
		Number:     number,
		Status:     invoice.StatusDraft,
		Currency:   types.DefaultCurrency,
		Items: []invoice.Item{
			{ID: id.NewItemID(), Description: "A", UnitPrice: types.EUR(100), LineTotal: types.EUR(100)},
		},
	}
}

func TestInvoiceNumberUniquePerCompany(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := id.NewCompanyID(), id.NewCompanyID()

	if err := s.CreateInvoice(ctx, newInvoice(t, s, a, "INV-0001")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateInvoice(ctx, newInvoice(t, s, b, "INV-0001")); err != nil {
		t.Fatalf("same number in another company should succeed: %v", err)
	}
	err := s.CreateInvoice(ctx, newInvoice(t, s, a, "INV-0001"))
	if !errors.Is(err, ledger.ErrDuplicateNumber) || !ledger.IsConflict(err) {
		t.Fatalf("expected duplicate number conflict, got %v", err)
	}
	if err := s.CreateInvoice(ctx, newInvoice(t, s, a, "inv-0001")); err != nil {
		t.Fatalf("numbers are case-sensitive: %v", err)
	}
}

func TestUpdateInvoiceRenumber(t *testing.T) {
	ctx := context.Background()
	s := New()
	co := id.NewCompanyID()

	first := newInvoice(t, s, co, "INV-0001")
	second := newInvoice(t, s, co, "INV-0002")
	for _, inv := range []*invoice.Invoice{first, second} {
		if err := s.CreateInvoice(ctx, inv); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	second.Number = "INV-0001"
	if err := s.UpdateInvoice(ctx, second); !errors.Is(err, ledger.ErrDuplicateNumber) {
		t.Fatalf("expected conflict, got %v", err)
	}

	second.Number = "INV-0100"
	if err := s.UpdateInvoice(ctx, second); err != nil {
		t.Fatalf("renumber: %v", err)
	}
	// The released number is free again.
	if err := s.CreateInvoice(ctx, newInvoice(t, s, co, "INV-0002")); err != nil {
		t.Fatalf("reuse released number: %v", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner, other := id.NewCompanyID(), id.NewCompanyID()

	inv := newInvoice(t, s, owner, "INV-0001")
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.GetInvoice(ctx, other, inv.ID); !ledger.IsNotFound(err) {
		t.Errorf("cross-tenant get: got %v", err)
	}
	if err := s.DeleteInvoice(ctx, other, inv.ID); !ledger.IsNotFound(err) {
		t.Errorf("cross-tenant delete: got %v", err)
	}
	foreign := inv.Clone()
	foreign.CompanyID = other
	if err := s.UpdateInvoice(ctx, foreign); !ledger.IsNotFound(err) {
		t.Errorf("cross-tenant update: got %v", err)
	}
	if err := s.SetInvoiceDocument(ctx, other, inv.ID, "x.pdf"); !ledger.IsNotFound(err) {
		t.Errorf("cross-tenant document: got %v", err)
	}

	list, err := s.ListInvoices(ctx, other, invoice.ListOpts{})
	if err != nil || len(list) != 0 {
		t.Errorf("cross-tenant list: %d, %v", len(list), err)
	}
}

func TestCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	co := id.NewCompanyID()

	inv := newInvoice(t, s, co, "INV-0001")
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}
	inv.Items[0].Description = "mutated after create"

	got, err := s.GetInvoice(ctx, co, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Items[0].Description != "A" {
		t.Errorf("store shares memory with caller: %q", got.Items[0].Description)
	}
	got.Items[0].Description = "mutated after get"

	again, _ := s.GetInvoice(ctx, co, inv.ID)
	if again.Items[0].Description != "A" {
		t.Errorf("read copy leaked: %q", again.Items[0].Description)
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := id.NewCompanyID(), id.NewCompanyID()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextInvoiceNumber(ctx, a)
		if err != nil || got != want {
			t.Fatalf("company a: got %d, %v; want %d", got, err, want)
		}
	}
	if got, _ := s.NextInvoiceNumber(ctx, b); got != 1 {
		t.Errorf("company b starts at 1, got %d", got)
	}
}

func TestListInvoicesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	co := id.NewCompanyID()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		inv := newInvoice(t, s, co, invoice.FormatNumber(int64(i+1)))
		inv.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if i == 1 {
			inv.Status = invoice.StatusPaid
		}
		if err := s.CreateInvoice(ctx, inv); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, inv.ID.String())
	}

	list, err := s.ListInvoices(ctx, co, invoice.ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID.String() != ids[2] || list[2].ID.String() != ids[0] {
		t.Errorf("unexpected order")
	}

	paid, _ := s.ListInvoices(ctx, co, invoice.ListOpts{Status: invoice.StatusPaid})
	if len(paid) != 1 || paid[0].ID.String() != ids[1] {
		t.Errorf("status filter failed")
	}

	paged, _ := s.ListInvoices(ctx, co, invoice.ListOpts{Limit: 1, Offset: 1})
	if len(paged) != 1 || paged[0].ID.String() != ids[1] {
		t.Errorf("paging failed")
	}
}

func TestListCustomersSearch(t *testing.T) {
	ctx := context.Background()
	s := New()
	co := id.NewCompanyID()

	for _, name := range []string{"Zeta GmbH", "acme corp", "ACME Labs"} {
		c := &customer.Customer{Entity: types.NewEntity(), ID: id.NewCustomerID(), CompanyID: co, Name: name}
		if err := s.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.ListCustomers(ctx, co, customer.ListOpts{Search: "Acme"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Name != "ACME Labs" || got[1].Name != "acme corp" {
		t.Errorf("unexpected result: %+v", got)
	}

	all, _ := s.ListCustomers(ctx, co, customer.ListOpts{})
	if len(all) != 3 {
		t.Errorf("expected 3 customers, got %d", len(all))
	}
}

func TestInvoiceRequiresCustomer(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := id.NewCompanyID(), id.NewCompanyID()

	orphan := newInvoice(t, s, a, "INV-0001")
	orphan.CustomerID = id.NewCustomerID()
	if err := s.CreateInvoice(ctx, orphan); !errors.Is(err, ledger.ErrCustomerNotFound) {
		t.Fatalf("unknown customer: got %v", err)
	}

	foreign := newInvoice(t, s, a, "INV-0001")
	foreign.CustomerID = newCustomer(t, s, b).ID
	if err := s.CreateInvoice(ctx, foreign); !errors.Is(err, ledger.ErrCustomerNotFound) {
		t.Fatalf("customer of another company: got %v", err)
	}

	inv := newInvoice(t, s, a, "INV-0001")
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}
	inv.CustomerID = id.NewCustomerID()
	if err := s.UpdateInvoice(ctx, inv); !errors.Is(err, ledger.ErrCustomerNotFound) {
		t.Fatalf("update to unknown customer: got %v", err)
	}
}

func TestDeleteReferencedCustomer(t *testing.T) {
	ctx := context.Background()
	s := New()
	co := id.NewCompanyID()

	inv := newInvoice(t, s, co, "INV-0001")
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := s.DeleteCustomer(ctx, co, inv.CustomerID)
	if !errors.Is(err, ledger.ErrCustomerInUse) || !ledger.IsConflict(err) {
		t.Fatalf("delete referenced customer: got %v", err)
	}
	if _, err := s.GetCustomer(ctx, co, inv.CustomerID); err != nil {
		t.Fatalf("customer must survive: %v", err)
	}

	if err := s.DeleteInvoice(ctx, co, inv.ID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}
	if err := s.DeleteCustomer(ctx, co, inv.CustomerID); err != nil {
		t.Fatalf("delete unreferenced customer: %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	co := id.NewCompanyID()
	inv := newInvoice(t, s, co, "INV-0001")

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("ping: got %v", err)
	}
	if err := s.CreateInvoice(ctx, inv); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("create: got %v", err)
	}
	if _, err := s.ListInvoices(ctx, co, invoice.ListOpts{}); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("list: got %v", err)
	}
	if _, err := s.NextInvoiceNumber(ctx, co); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("next number: got %v", err)
	}
}
