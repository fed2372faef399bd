package ledger

import (
	"context"

	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/types"
)

// ──────────────────────────────────────────────────
// Company Profile
// ──────────────────────────────────────────────────

func companyDraft(c *company.Company) partyDraft {
	return partyDraft{
		Name:      c.Name,
		VATNumber: c.VATNumber,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}

// CreateCompany registers a new tenant. It is the only operation that
// does not need a Tenant in ctx.
func (l *Ledger) CreateCompany(ctx context.Context, c *company.Company) error {
	if err := l.validateParty(companyDraft(c)); err != nil {
		return err
	}
	if c.ID.IsNil() {
		c.ID = id.NewCompanyID()
	}
	c.Entity = types.NewEntity()

	if err := l.store.CreateCompany(ctx, c); err != nil {
		return err
	}

	l.logger.Info("company created",
		"company_id", c.ID.String(),
		"name", c.Name,
	)
	return nil
}

// GetCompany returns the tenant's own company.
func (l *Ledger) GetCompany(ctx context.Context) (*company.Company, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return l.store.GetCompany(ctx, t.CompanyID)
}

// UpdateCompany changes the tenant's profile. Only admins may do so.
func (l *Ledger) UpdateCompany(ctx context.Context, p company.Patch) (*company.Company, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if t.Role != RoleAdmin {
		return nil, ErrForbidden
	}

	c, err := l.store.GetCompany(ctx, t.CompanyID)
	if err != nil {
		return nil, err
	}
	c.Apply(p)
	if err := l.validateParty(companyDraft(c)); err != nil {
		return nil, err
	}
	c.Touch()

	if err := l.store.UpdateCompany(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
