package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/types"
)

// ──────────────────────────────────────────────────
// Invoice Management
// ──────────────────────────────────────────────────

// CreateInvoice validates the input, resolves the customer within the
// tenant, computes totals and stores the invoice with the next free number
// unless the caller chose one.
func (l *Ledger) CreateInvoice(ctx context.Context, in invoice.Input) (*invoice.Invoice, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = invoice.StatusDraft
	}

	inv := &invoice.Invoice{
		Entity:     types.NewEntity(),
		ID:         id.NewInvoiceID(),
		CompanyID:  t.CompanyID,
		CustomerID: in.CustomerID,
		Number:     strings.TrimSpace(in.InvoiceNumber),
		Status:     status,
		IssueDate:  in.IssueDate,
		DueDate:    in.DueDate,
		Currency:   l.currency,
		TaxRate:    in.TaxRate.Round(2),
		Notes:      in.Notes,
	}
	lines := in.Items
	if lines == nil {
		lines = []invoice.ItemInput{}
	}
	if err := l.validateInvoice(inv, lines); err != nil {
		return nil, err
	}

	if _, err := l.store.GetCustomer(ctx, t.CompanyID, in.CustomerID); err != nil {
		return nil, err
	}

	inv.Items = invoice.BuildItems(lines, l.currency)
	inv.Recalculate()

	if err := l.insertInvoice(ctx, inv); err != nil {
		return nil, err
	}

	l.invalidateStats(ctx, t.CompanyID)
	l.plugins.EmitInvoiceCreated(ctx, inv)
	l.logger.Debug("invoice created",
		"invoice_id", inv.ID.String(),
		"company_id", t.CompanyID.String(),
		"number", inv.Number,
	)
	return inv, nil
}

// insertInvoice stores inv. An explicit number is tried once; an automatic
// one draws counter values until the store accepts one or retries run out.
func (l *Ledger) insertInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if inv.Number != "" {
		return l.store.CreateInvoice(ctx, inv)
	}

	for attempt := 1; attempt <= l.numberRetries; attempt++ {
		seq, err := l.store.NextInvoiceNumber(ctx, inv.CompanyID)
		if err != nil {
			return fmt.Errorf("ledger: next invoice number: %w", err)
		}
		inv.Number = invoice.FormatNumber(seq)

		err = l.store.CreateInvoice(ctx, inv)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			inv.Number = ""
			return err
		}

		l.logger.Warn("invoice number taken, retrying",
			"company_id", inv.CompanyID.String(),
			"number", inv.Number,
			"attempt", attempt,
		)
		l.plugins.EmitNumberConflict(ctx, inv.CompanyID, inv.Number, attempt)
	}

	inv.Number = ""
	return fmt.Errorf("ledger: no free invoice number after %d attempts: %w", l.numberRetries, ErrDuplicateNumber)
}

// GetInvoice returns an invoice of the tenant.
func (l *Ledger) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return l.store.GetInvoice(ctx, t.CompanyID, invID)
}

// ListInvoices returns the tenant's invoices, newest first.
func (l *Ledger) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, ValidationErrors{invalid("status", "must be one of: draft, sent, paid, overdue, cancelled")}
	}
	opts.Limit = max(opts.Limit, 0)
	opts.Offset = max(opts.Offset, 0)
	return l.store.ListInvoices(ctx, t.CompanyID, opts)
}

// UpdateInvoice applies p to an invoice of the tenant. Validation runs on
// the merged result. Supplying Items replaces the whole set and recomputes
// totals; without Items the stored items and totals are kept as they are,
// even when the tax rate changes.
func (l *Ledger) UpdateInvoice(ctx context.Context, invID id.InvoiceID, p invoice.Patch) (*invoice.Invoice, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}

	current, err := l.store.GetInvoice(ctx, t.CompanyID, invID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if p.CustomerID != nil {
		next.CustomerID = *p.CustomerID
	}
	if p.InvoiceNumber != nil {
		next.Number = strings.TrimSpace(*p.InvoiceNumber)
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.IssueDate != nil {
		next.IssueDate = *p.IssueDate
	}
	if p.DueDate != nil {
		next.DueDate = *p.DueDate
	}
	if p.TaxRate != nil {
		next.TaxRate = p.TaxRate.Round(2)
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}

	var lines []invoice.ItemInput
	if p.Items != nil {
		lines = *p.Items
		if lines == nil {
			lines = []invoice.ItemInput{}
		}
	}

	if err := l.validateInvoice(next, lines); err != nil {
		return nil, err
	}
	if next.Number == "" {
		return nil, ValidationErrors{invalid("invoice_number", "is required")}
	}
	if l.strictTransitions && !invoice.CanTransition(current.Status, next.Status) {
		return nil, ValidationErrors{invalid("status", "cannot move from %s to %s", current.Status, next.Status)}
	}

	if next.CustomerID.String() != current.CustomerID.String() {
		if _, err := l.store.GetCustomer(ctx, t.CompanyID, next.CustomerID); err != nil {
			return nil, err
		}
	}

	if lines != nil {
		next.Items = invoice.BuildItems(lines, next.Currency)
		next.Recalculate()
	}
	next.Touch()

	if err := l.store.UpdateInvoice(ctx, next); err != nil {
		return nil, err
	}

	l.invalidateStats(ctx, t.CompanyID)
	l.plugins.EmitInvoiceUpdated(ctx, next)
	if next.Status != current.Status {
		l.plugins.EmitInvoiceStatusChanged(ctx, next, current.Status)
	}
	return next, nil
}

// DeleteInvoice removes an invoice of the tenant together with its items
// and, when a document store is configured, its rendered document.
func (l *Ledger) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	t, err := tenantOf(ctx)
	if err != nil {
		return err
	}

	inv, err := l.store.GetInvoice(ctx, t.CompanyID, invID)
	if err != nil {
		return err
	}
	if err := l.store.DeleteInvoice(ctx, t.CompanyID, invID); err != nil {
		return err
	}

	if l.docs != nil && inv.DocumentPath != "" {
		if err := l.docs.Delete(ctx, inv.DocumentPath); err != nil {
			l.logger.Warn("failed to delete invoice document",
				"invoice_id", invID.String(),
				"path", inv.DocumentPath,
				"error", err,
			)
		}
	}

	l.invalidateStats(ctx, t.CompanyID)
	l.plugins.EmitInvoiceDeleted(ctx, t.CompanyID, invID)
	return nil
}
