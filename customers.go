package ledger

import (
	"context"

	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/types"
)

// ──────────────────────────────────────────────────
// Customer Directory
// ──────────────────────────────────────────────────

func customerDraft(c *customer.Customer) partyDraft {
	return partyDraft{
		Name:      c.Name,
		VATNumber: c.VATNumber,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
	}
}

// CreateCustomer adds c to the tenant's directory. ID, CompanyID and
// timestamps are assigned here.
func (l *Ledger) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	t, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	if err := l.validateParty(customerDraft(c)); err != nil {
		return err
	}

	c.ID = id.NewCustomerID()
	c.CompanyID = t.CompanyID
	c.Entity = types.NewEntity()

	if err := l.store.CreateCustomer(ctx, c); err != nil {
		return err
	}

	l.plugins.EmitCustomerCreated(ctx, c)
	return nil
}

// GetCustomer returns a customer of the tenant.
func (l *Ledger) GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return l.store.GetCustomer(ctx, t.CompanyID, customerID)
}

// ListCustomers returns the tenant's customers ordered by name.
func (l *Ledger) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	opts.Limit = max(opts.Limit, 0)
	opts.Offset = max(opts.Offset, 0)
	return l.store.ListCustomers(ctx, t.CompanyID, opts)
}

// UpdateCustomer applies p to a customer of the tenant.
func (l *Ledger) UpdateCustomer(ctx context.Context, customerID id.CustomerID, p customer.Patch) (*customer.Customer, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}

	c, err := l.store.GetCustomer(ctx, t.CompanyID, customerID)
	if err != nil {
		return nil, err
	}
	c.Apply(p)
	if err := l.validateParty(customerDraft(c)); err != nil {
		return nil, err
	}
	c.Touch()

	if err := l.store.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}

	l.plugins.EmitCustomerUpdated(ctx, c)
	return c, nil
}

// DeleteCustomer removes a customer that no invoice references.
func (l *Ledger) DeleteCustomer(ctx context.Context, customerID id.CustomerID) error {
	t, err := tenantOf(ctx)
	if err != nil {
		return err
	}

	if _, err := l.store.GetCustomer(ctx, t.CompanyID, customerID); err != nil {
		return err
	}
	n, err := l.store.CountCustomerInvoices(ctx, t.CompanyID, customerID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCustomerInUse
	}
	if err := l.store.DeleteCustomer(ctx, t.CompanyID, customerID); err != nil {
		return err
	}

	l.plugins.EmitCustomerDeleted(ctx, t.CompanyID, customerID)
	return nil
}
