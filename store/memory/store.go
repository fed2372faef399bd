// Package memory provides an in-process Store used by tests and by the
// binary when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	ledgerstore "github.com/xraph/invoiceledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store keeps every record in maps guarded by one RWMutex. Records are
// copied on the way in and on the way out, so callers never share memory
// with the store.
type Store struct {
	mu sync.RWMutex

	companies map[string]*company.Company
	customers map[string]*customer.Customer
	invoices  map[string]*invoice.Invoice

	// numbers indexes "<company>/<invoice number>" for uniqueness.
	numbers map[string]string
	// sequences holds the last issued invoice counter per company.
	sequences map[string]int64

	closed bool
}

func New() *Store {
	return &Store{
		companies: make(map[string]*company.Company),
		customers: make(map[string]*customer.Customer),
		invoices:  make(map[string]*invoice.Invoice),
		numbers:   make(map[string]string),
		sequences: make(map[string]int64),
	}
}

// ==================== Company Store ====================

func (s *Store) CreateCompany(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	if _, exists := s.companies[c.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	cp := *c
	s.companies[c.ID.String()] = &cp
	return nil
}

func (s *Store) GetCompany(_ context.Context, companyID id.CompanyID) (*company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ledger.ErrStoreClosed
	}

	c, ok := s.companies[companyID.String()]
	if !ok {
		return nil, ledger.ErrCompanyNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) UpdateCompany(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	if _, exists := s.companies[c.ID.String()]; !exists {
		return ledger.ErrCompanyNotFound
	}
	cp := *c
	s.companies[c.ID.String()] = &cp
	return nil
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	if _, exists := s.customers[c.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	cp := *c
	s.customers[c.ID.String()] = &cp
	return nil
}

func (s *Store) GetCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ledger.ErrStoreClosed
	}

	c, ok := s.customers[customerID.String()]
	if !ok || c.CompanyID.String() != companyID.String() {
		return nil, ledger.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCustomers(_ context.Context, companyID id.CompanyID, opts customer.ListOpts) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ledger.ErrStoreClosed
	}

	search := strings.ToLower(opts.Search)
	result := make([]*customer.Customer, 0)
	for _, c := range s.customers {
		if c.CompanyID.String() != companyID.String() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	existing, ok := s.customers[c.ID.String()]
	if !ok || existing.CompanyID.String() != c.CompanyID.String() {
		return ledger.ErrCustomerNotFound
	}
	cp := *c
	s.customers[c.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	c, ok := s.customers[customerID.String()]
	if !ok || c.CompanyID.String() != companyID.String() {
		return ledger.ErrCustomerNotFound
	}
	if s.countReferences(companyID, customerID) > 0 {
		return ledger.ErrCustomerInUse
	}
	delete(s.customers, customerID.String())
	return nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	if _, exists := s.invoices[inv.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	if !s.ownsCustomer(inv.CompanyID, inv.CustomerID) {
		return ledger.ErrCustomerNotFound
	}
	key := numberKey(inv.CompanyID, inv.Number)
	if _, taken := s.numbers[key]; taken {
		return ledger.ErrDuplicateNumber
	}
	s.numbers[key] = inv.ID.String()
	s.invoices[inv.ID.String()] = inv.Clone()
	return nil
}

func (s *Store) GetInvoice(_ context.Context, companyID id.CompanyID, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ledger.ErrStoreClosed
	}

	inv, ok := s.invoices[invID.String()]
	if !ok || inv.CompanyID.String() != companyID.String() {
		return nil, ledger.ErrInvoiceNotFound
	}
	return inv.Clone(), nil
}

func (s *Store) ListInvoices(_ context.Context, companyID id.CompanyID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ledger.ErrStoreClosed
	}

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.CompanyID.String() != companyID.String() {
			continue
		}
		if opts.Status != "" && inv.Status != opts.Status {
			continue
		}
		result = append(result, inv.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	existing, ok := s.invoices[inv.ID.String()]
	if !ok || existing.CompanyID.String() != inv.CompanyID.String() {
		return ledger.ErrInvoiceNotFound
	}
	if !s.ownsCustomer(inv.CompanyID, inv.CustomerID) {
		return ledger.ErrCustomerNotFound
	}
	if existing.Number != inv.Number {
		key := numberKey(inv.CompanyID, inv.Number)
		if _, taken := s.numbers[key]; taken {
			return ledger.ErrDuplicateNumber
		}
		delete(s.numbers, numberKey(existing.CompanyID, existing.Number))
		s.numbers[key] = inv.ID.String()
	}
	s.invoices[inv.ID.String()] = inv.Clone()
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, companyID id.CompanyID, invID id.InvoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	inv, ok := s.invoices[invID.String()]
	if !ok || inv.CompanyID.String() != companyID.String() {
		return ledger.ErrInvoiceNotFound
	}
	delete(s.numbers, numberKey(inv.CompanyID, inv.Number))
	delete(s.invoices, invID.String())
	return nil
}

func (s *Store) NextInvoiceNumber(_ context.Context, companyID id.CompanyID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ledger.ErrStoreClosed
	}

	s.sequences[companyID.String()]++
	return s.sequences[companyID.String()], nil
}

func (s *Store) SetInvoiceDocument(_ context.Context, companyID id.CompanyID, invID id.InvoiceID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	inv, ok := s.invoices[invID.String()]
	if !ok || inv.CompanyID.String() != companyID.String() {
		return ledger.ErrInvoiceNotFound
	}
	inv.DocumentPath = path
	return nil
}

func (s *Store) CountCustomerInvoices(_ context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ledger.ErrStoreClosed
	}

	return s.countReferences(companyID, customerID), nil
}

// countReferences counts the invoices pointing at a customer. Callers hold mu.
func (s *Store) countReferences(companyID id.CompanyID, customerID id.CustomerID) int64 {
	var n int64
	for _, inv := range s.invoices {
		if inv.CompanyID.String() == companyID.String() && inv.CustomerID.String() == customerID.String() {
			n++
		}
	}
	return n
}

// ownsCustomer reports whether the customer exists within the company.
// Callers hold mu.
func (s *Store) ownsCustomer(companyID id.CompanyID, customerID id.CustomerID) bool {
	c, ok := s.customers[customerID.String()]
	return ok && c.CompanyID.String() == companyID.String()
}

// ==================== Store management ====================

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

// Ping fails once the store is closed.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	return nil
}

// Close makes every later call fail with ledger.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func numberKey(companyID id.CompanyID, number string) string {
	return companyID.String() + "/" + number
}

func page[T any](items []T, limit, offset int) []T {
	start := max(offset, 0)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
