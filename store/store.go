// Package store defines the aggregate persistence interface implemented by
// every backend.
package store

import (
	"context"

	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/invoice"
)

// Store is the unified storage interface for all ledger entities. The
// per-entity interfaces use distinct method names so they embed cleanly.
//
// Backends translate their native errors into the ledger sentinels:
// missing rows become ledger.ErrCompanyNotFound, ErrCustomerNotFound or
// ErrInvoiceNotFound, and a duplicate (company, invoice number) becomes
// ledger.ErrDuplicateNumber.
type Store interface {
	company.Store
	customer.Store
	invoice.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
