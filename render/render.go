// Package render turns a resolved invoice into a PDF document.
//
// Render is pure: it reads nothing but its input and never consults the
// clock, so the same input always yields byte-identical output.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/invoice"
)

// ContentType of every rendered document.
const ContentType = "application/pdf"

// ErrMalformed is returned when the input cannot describe a valid invoice.
var ErrMalformed = errors.New("render: malformed invoice")

// Input is a fully resolved invoice with its parties.
type Input struct {
	Company  *company.Company
	Customer *customer.Customer
	Invoice  *invoice.Invoice
}

// Document is a rendered invoice.
type Document struct {
	Filename    string
	ContentType string
	Bytes       []byte
}

// Filename returns the download name for an invoice document.
func Filename(inv *invoice.Invoice) string {
	return "invoice-" + inv.ID.String() + ".pdf"
}

// Render lays out the invoice on A4 portrait.
func Render(in Input) (*Document, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	stamp := timestamp(in.Invoice)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Invoice "+in.Invoice.Number, true)
	pdf.SetAuthor(in.Company.Name, true)
	pdf.SetCreator("invoiceledger", false)
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetAutoPageBreak(false, 0)

	l := &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(l.footer)
	pdf.AddPage()

	l.header(in.Company)
	l.title(in.Invoice)
	l.badge(in.Invoice.Status)
	l.billTo(in.Customer)
	l.items(in.Invoice)
	l.totals(in.Invoice)
	l.notes(in.Invoice.Notes)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: write pdf: %w", err)
	}

	return &Document{
		Filename:    Filename(in.Invoice),
		ContentType: ContentType,
		Bytes:       buf.Bytes(),
	}, nil
}

func check(in Input) error {
	switch {
	case in.Company == nil:
		return fmt.Errorf("%w: missing company", ErrMalformed)
	case in.Customer == nil:
		return fmt.Errorf("%w: missing customer", ErrMalformed)
	case in.Invoice == nil:
		return fmt.Errorf("%w: missing invoice", ErrMalformed)
	}

	inv := in.Invoice
	if in.Company.ID.String() != inv.CompanyID.String() {
		return fmt.Errorf("%w: company does not own invoice", ErrMalformed)
	}
	if in.Customer.ID.String() != inv.CustomerID.String() ||
		in.Customer.CompanyID.String() != inv.CompanyID.String() {
		return fmt.Errorf("%w: customer does not match invoice", ErrMalformed)
	}
	if !inv.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrMalformed, inv.Status)
	}
	if !inv.Consistent() {
		return fmt.Errorf("%w: items and totals disagree", ErrMalformed)
	}
	return nil
}

// timestamp picks the document dates from the invoice itself.
func timestamp(inv *invoice.Invoice) time.Time {
	switch {
	case !inv.UpdatedAt.IsZero():
		return inv.UpdatedAt.UTC()
	case !inv.IssueDate.IsZero():
		return inv.IssueDate.Time()
	default:
		return time.Unix(0, 0).UTC()
	}
}
