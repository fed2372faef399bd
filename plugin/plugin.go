// Package plugin provides lifecycle hooks around ledger operations.
// A plugin implements Plugin plus any subset of the hook interfaces below;
// the Registry discovers which ones at registration time.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once when the ledger starts. l is the *ledger.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Invoice hooks
// ──────────────────────────────────────────────────

type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error
}

type OnInvoiceUpdated interface {
	Plugin
	OnInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceStatusChanged fires after an update that moved the status.
type OnInvoiceStatusChanged interface {
	Plugin
	OnInvoiceStatusChanged(ctx context.Context, inv *invoice.Invoice, from invoice.Status) error
}

type OnInvoiceDeleted interface {
	Plugin
	OnInvoiceDeleted(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) error
}

// OnInvoiceRendered fires after a document was produced.
type OnInvoiceRendered interface {
	Plugin
	OnInvoiceRendered(ctx context.Context, inv *invoice.Invoice, size int, elapsed time.Duration) error
}

// OnNumberConflict fires when an automatically assigned number was already
// taken and creation is retried.
type OnNumberConflict interface {
	Plugin
	OnNumberConflict(ctx context.Context, companyID id.CompanyID, number string, attempt int) error
}

// ──────────────────────────────────────────────────
// Customer hooks
// ──────────────────────────────────────────────────

type OnCustomerCreated interface {
	Plugin
	OnCustomerCreated(ctx context.Context, c *customer.Customer) error
}

type OnCustomerUpdated interface {
	Plugin
	OnCustomerUpdated(ctx context.Context, c *customer.Customer) error
}

type OnCustomerDeleted interface {
	Plugin
	OnCustomerDeleted(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error
}
