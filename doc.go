// Package ledger provides a multi-tenant invoice ledger for Go applications.
//
// Ledger is designed as a library first. The invoiced binary wraps it in an
// HTTP API, but everything it does goes through the same *Ledger. It provides:
//
//   - Companies as tenants, each with its own customer directory
//   - Invoices with line items, per-company unique numbering and exact totals
//   - A status lifecycle (draft, sent, paid, overdue, cancelled)
//   - Deterministic PDF rendering, optionally persisted to a blob store
//   - A per-company dashboard rollup, optionally cached in Redis
//   - Pluggable lifecycle hooks and Prometheus metrics
//
// # Quick Start
//
//	import (
//	    ledger "github.com/xraph/invoiceledger"
//	    "github.com/xraph/invoiceledger/store/memory"
//	)
//
//	l := ledger.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Tenancy
//
// Every operation except CreateCompany runs as the Tenant carried by its
// context. Records of another company are reported as not found:
//
//	ctx = ledger.WithTenant(ctx, ledger.Tenant{
//	    CompanyID: co.ID,
//	    UserID:    "user-1",
//	    Role:      ledger.RoleAdmin,
//	})
//
//	inv, err := l.CreateInvoice(ctx, invoice.Input{
//	    CustomerID: cust.ID,
//	    IssueDate:  ledger.MustParseDate("2024-01-01"),
//	    DueDate:    ledger.MustParseDate("2024-01-31"),
//	    TaxRate:    decimal.NewFromInt(10),
//	    Items: []invoice.ItemInput{
//	        {Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("12.75")},
//	    },
//	})
//	// inv.Number == "INV-0001", inv.Total == 28.05
//
// # Money
//
// Amounts are integer minor units (cents). Line totals and tax are rounded
// half away from zero to the currency's minor unit, so the stored totals
// always equal the sum of the stored lines.
//
// # TypeID
//
// All entities use TypeID identifiers:
//
//	co_01h2xcejqtf2nbrexx3vqjhp41    // Company ID
//	cust_01h2xcejqtf2nbrexx3vqjhp41  // Customer ID
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice ID
package ledger
