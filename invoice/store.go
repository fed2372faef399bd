package invoice

import (
	"context"

	"github.com/xraph/invoiceledger/id"
)

// Store persists invoices with their items embedded. Reads, updates and
// deletes are scoped by company; an invoice of another company is reported
// as not found. CreateInvoice and UpdateInvoice must report a duplicate
// (company, number) pair as a conflict.
type Store interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) (*Invoice, error)
	ListInvoices(ctx context.Context, companyID id.CompanyID, opts ListOpts) ([]*Invoice, error)
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	DeleteInvoice(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) error

	// NextInvoiceNumber atomically advances and returns the company's
	// invoice counter, starting at 1.
	NextInvoiceNumber(ctx context.Context, companyID id.CompanyID) (int64, error)

	// SetInvoiceDocument records the rendered document path without
	// touching the invoice's modification time.
	SetInvoiceDocument(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID, path string) error

	CountCustomerInvoices(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error)
}

// ListOpts filters an invoice listing. Results are newest first; a zero
// Limit returns everything.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
