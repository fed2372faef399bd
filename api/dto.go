package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	"github.com/xraph/invoiceledger/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates a request body and reports failures as ledger
// validation errors, keyed by the JSON path of the field.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	out := make(ledger.ValidationErrors, 0, len(fields))
	for _, fe := range fields {
		out = append(out, &ledger.ValidationError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// fieldPath drops the struct name prefix: "createInvoiceRequest.items[0].description"
// becomes "items[0].description".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

type itemRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createInvoiceRequest struct {
	CustomerID    string          `json:"customer_id" validate:"required"`
	InvoiceNumber string          `json:"invoice_number" validate:"max=50"`
	Status        string          `json:"status"`
	IssueDate     string          `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate       string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Notes         string          `json:"notes" validate:"max=5000"`
	Items         []itemRequest   `json:"items" validate:"max=500,dive"`
}

// input converts a validated request. Unparseable ids surface as a
// missing customer so foreign and malformed references look alike.
func (r createInvoiceRequest) input() (invoice.Input, error) {
	customerID, err := id.ParseCustomerID(r.CustomerID)
	if err != nil {
		return invoice.Input{}, ledger.ErrCustomerNotFound
	}
	issue, err := types.ParseDate(r.IssueDate)
	if err != nil {
		return invoice.Input{}, &ledger.ValidationError{Field: "issue_date", Message: err.Error()}
	}
	due, err := types.ParseDate(r.DueDate)
	if err != nil {
		return invoice.Input{}, &ledger.ValidationError{Field: "due_date", Message: err.Error()}
	}
	in := invoice.Input{
		CustomerID:    customerID,
		InvoiceNumber: r.InvoiceNumber,
		Status:        invoice.Status(r.Status),
		IssueDate:     issue,
		DueDate:       due,
		TaxRate:       r.TaxRate,
		Notes:         r.Notes,
		Items:         make([]invoice.ItemInput, len(r.Items)),
	}
	for i, it := range r.Items {
		in.Items[i] = invoice.ItemInput(it)
	}
	return in, nil
}

type createCustomerRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	VATNumber string `json:"vat_number" validate:"max=50"`
	Address   string `json:"address" validate:"max=500"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Phone     string `json:"phone" validate:"max=50"`
	Notes     string `json:"notes" validate:"max=5000"`
}
