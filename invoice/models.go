// Package invoice defines invoices, their line items, and the pure rules
// for totals, numbering and status transitions.
package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/types"
)

// Invoice is the ledger aggregate. Items are owned by the invoice and are
// always read and written together with it.
type Invoice struct {
	types.Entity
	ID           id.InvoiceID    `json:"id"`
	CompanyID    id.CompanyID    `json:"company_id"`
	CustomerID   id.CustomerID   `json:"customer_id"`
	Number       string          `json:"invoice_number"`
	Status       Status          `json:"status"`
	IssueDate    types.Date      `json:"issue_date"`
	DueDate      types.Date      `json:"due_date"`
	Currency     string          `json:"currency"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Subtotal     types.Money     `json:"subtotal"`
	TaxAmount    types.Money     `json:"tax_amount"`
	Total        types.Money     `json:"total"`
	Notes        string          `json:"notes,omitempty"`
	DocumentPath string          `json:"document_path,omitempty"`
	Items        []Item          `json:"items"`
}

// Item is a single invoice line.
type Item struct {
	ID          id.ItemID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   types.Money     `json:"unit_price"`
	LineTotal   types.Money     `json:"line_total"`
	SortOrder   int             `json:"sort_order"`
}

// ItemInput is a caller-supplied line. Quantity and UnitPrice accept JSON
// numbers or strings.
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Input creates an invoice. An empty InvoiceNumber requests automatic
// numbering; an empty Status means draft.
type Input struct {
	CustomerID    id.CustomerID   `json:"customer_id"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Status        Status          `json:"status,omitempty"`
	IssueDate     types.Date      `json:"issue_date"`
	DueDate       types.Date      `json:"due_date"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Notes         string          `json:"notes,omitempty"`
	Items         []ItemInput     `json:"items"`
}

// Patch updates an invoice. Nil fields are left untouched. A non-nil Items
// replaces the whole item set and triggers a totals recomputation.
type Patch struct {
	CustomerID    *id.CustomerID   `json:"customer_id,omitempty"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	Status        *Status          `json:"status,omitempty"`
	IssueDate     *types.Date      `json:"issue_date,omitempty"`
	DueDate       *types.Date      `json:"due_date,omitempty"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	Items         *[]ItemInput     `json:"items,omitempty"`
}

// Clone returns a deep copy of inv.
func (inv *Invoice) Clone() *Invoice {
	cp := *inv
	if inv.Items != nil {
		cp.Items = make([]Item, len(inv.Items))
		copy(cp.Items, inv.Items)
	}
	return &cp
}
