// Package observability provides a metrics extension for Ledger that records
// invoice lifecycle event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated       = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceUpdated       = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceDeleted       = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceRendered      = (*MetricsExtension)(nil)
	_ plugin.OnNumberConflict       = (*MetricsExtension)(nil)
	_ plugin.OnCustomerCreated      = (*MetricsExtension)(nil)
	_ plugin.OnCustomerDeleted      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to automatically track invoice metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Invoice metrics
	InvoiceCreated   Counter
	InvoiceUpdated   Counter
	InvoiceDeleted   Counter
	InvoiceSent      Counter
	InvoicePaid      Counter
	InvoiceOverdue   Counter
	InvoiceCancelled Counter
	InvoiceTotal     Histogram
	InvoiceItems     Histogram
	NumberConflicts  Counter

	// Document metrics
	DocumentRendered Counter
	DocumentBytes    Histogram
	DocumentLatency  Histogram

	// Customer metrics
	CustomerCreated Counter
	CustomerDeleted Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		InvoiceCreated:   factory.Counter("ledger.invoice.created"),
		InvoiceUpdated:   factory.Counter("ledger.invoice.updated"),
		InvoiceDeleted:   factory.Counter("ledger.invoice.deleted"),
		InvoiceSent:      factory.Counter("ledger.invoice.sent"),
		InvoicePaid:      factory.Counter("ledger.invoice.paid"),
		InvoiceOverdue:   factory.Counter("ledger.invoice.overdue"),
		InvoiceCancelled: factory.Counter("ledger.invoice.cancelled"),
		InvoiceTotal:     factory.Histogram("ledger.invoice.total_amount"),
		InvoiceItems:     factory.Histogram("ledger.invoice.items"),
		NumberConflicts:  factory.Counter("ledger.invoice.number_conflicts"),

		DocumentRendered: factory.Counter("ledger.document.rendered"),
		DocumentBytes:    factory.Histogram("ledger.document.bytes"),
		DocumentLatency:  factory.Histogram("ledger.document.latency_ms"),

		CustomerCreated: factory.Counter("ledger.customer.created"),
		CustomerDeleted: factory.Counter("ledger.customer.deleted"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceCreated.Inc()
	m.InvoiceTotal.Observe(float64(inv.Total.Amount))
	m.InvoiceItems.Observe(float64(len(inv.Items)))
	m.countStatus(inv.Status)
	return nil
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (m *MetricsExtension) OnInvoiceUpdated(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceUpdated.Inc()
	return nil
}

// OnInvoiceStatusChanged implements plugin.OnInvoiceStatusChanged.
func (m *MetricsExtension) OnInvoiceStatusChanged(_ context.Context, inv *invoice.Invoice, _ invoice.Status) error {
	m.countStatus(inv.Status)
	return nil
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (m *MetricsExtension) OnInvoiceDeleted(_ context.Context, _ id.CompanyID, _ id.InvoiceID) error {
	m.InvoiceDeleted.Inc()
	return nil
}

// OnInvoiceRendered implements plugin.OnInvoiceRendered.
func (m *MetricsExtension) OnInvoiceRendered(_ context.Context, _ *invoice.Invoice, size int, elapsed time.Duration) error {
	m.DocumentRendered.Inc()
	m.DocumentBytes.Observe(float64(size))
	m.DocumentLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnNumberConflict implements plugin.OnNumberConflict.
func (m *MetricsExtension) OnNumberConflict(_ context.Context, _ id.CompanyID, _ string, _ int) error {
	m.NumberConflicts.Inc()
	return nil
}

// countStatus counts entries into a non-draft status.
func (m *MetricsExtension) countStatus(s invoice.Status) {
	switch s {
	case invoice.StatusSent:
		m.InvoiceSent.Inc()
	case invoice.StatusPaid:
		m.InvoicePaid.Inc()
	case invoice.StatusOverdue:
		m.InvoiceOverdue.Inc()
	case invoice.StatusCancelled:
		m.InvoiceCancelled.Inc()
	}
}

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerCreated implements plugin.OnCustomerCreated.
func (m *MetricsExtension) OnCustomerCreated(_ context.Context, _ *customer.Customer) error {
	m.CustomerCreated.Inc()
	return nil
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (m *MetricsExtension) OnCustomerDeleted(_ context.Context, _ id.CompanyID, _ id.CustomerID) error {
	m.CustomerDeleted.Inc()
	return nil
}
