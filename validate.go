package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xraph/invoiceledger/invoice"
)

var maxTaxRate = decimal.NewFromInt(1000)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return v
}

// invoiceDraft is the merged invoice shape checked before any write.
type invoiceDraft struct {
	CustomerID    string      `json:"customer_id" validate:"required"`
	InvoiceNumber string      `json:"invoice_number" validate:"max=50"`
	Status        string      `json:"status" validate:"required,oneof=draft sent paid overdue cancelled"`
	Notes         string      `json:"notes" validate:"max=5000"`
	Items         []itemDraft `json:"items" validate:"dive"`
}

type itemDraft struct {
	Description string `json:"description" validate:"required,max=500"`
}

// partyDraft holds the profile fields companies and customers share.
type partyDraft struct {
	Name      string `json:"name" validate:"required,max=200"`
	VATNumber string `json:"vat_number" validate:"max=50"`
	Address   string `json:"address" validate:"max=500"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Phone     string `json:"phone" validate:"max=50"`
	Notes     string `json:"notes" validate:"max=5000"`
}

// validateInvoice checks the merged invoice. lines are the replacement
// items when the caller supplied any; nil leaves stored items unchecked.
func (l *Ledger) validateInvoice(inv *invoice.Invoice, lines []invoice.ItemInput) error {
	d := invoiceDraft{
		InvoiceNumber: inv.Number,
		Status:        string(inv.Status),
		Notes:         inv.Notes,
	}
	if !inv.CustomerID.IsNil() {
		d.CustomerID = inv.CustomerID.String()
	}
	for _, li := range lines {
		d.Items = append(d.Items, itemDraft{Description: strings.TrimSpace(li.Description)})
	}

	errs := l.structErrors(d)

	if inv.IssueDate.IsZero() {
		errs = append(errs, invalid("issue_date", "is required"))
	}
	if inv.DueDate.IsZero() {
		errs = append(errs, invalid("due_date", "is required"))
	}
	if !inv.IssueDate.IsZero() && !inv.DueDate.IsZero() && inv.DueDate.Before(inv.IssueDate) {
		errs = append(errs, invalid("due_date", "must not be before issue_date"))
	}

	if inv.TaxRate.IsNegative() || inv.TaxRate.GreaterThanOrEqual(maxTaxRate) {
		errs = append(errs, invalid("tax_rate", "must be at least 0 and below 1000"))
	}

	errs = append(errs, checkAmounts(lines)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// checkAmounts bounds every line and the subtotal so that no total can
// overflow the minor-unit representation.
func checkAmounts(lines []invoice.ItemInput) ValidationErrors {
	var errs ValidationErrors
	subtotal := decimal.Zero
	for i, li := range lines {
		qty := fmt.Sprintf("items[%d].quantity", i)
		price := fmt.Sprintf("items[%d].unit_price", i)
		switch {
		case li.Quantity.IsNegative():
			errs = append(errs, invalid(qty, "must not be negative"))
		case li.Quantity.GreaterThan(invoice.MaxQuantity):
			errs = append(errs, invalid(qty, "must be at most %s", invoice.MaxQuantity))
		}
		switch {
		case li.UnitPrice.IsNegative():
			errs = append(errs, invalid(price, "must not be negative"))
		case li.UnitPrice.GreaterThan(invoice.MaxAmount):
			errs = append(errs, invalid(price, "must be at most %s", invoice.MaxAmount))
		}

		amount := invoice.LineAmount(li)
		if amount.GreaterThan(invoice.MaxAmount) {
			errs = append(errs, invalid(fmt.Sprintf("items[%d]", i), "line total must be at most %s", invoice.MaxAmount))
		}
		subtotal = subtotal.Add(amount)
	}
	if len(errs) == 0 && subtotal.GreaterThan(invoice.MaxAmount) {
		errs = append(errs, invalid("items", "subtotal must be at most %s", invoice.MaxAmount))
	}
	return errs
}

func (l *Ledger) validateParty(d partyDraft) error {
	if errs := l.structErrors(d); len(errs) > 0 {
		return errs
	}
	return nil
}

// structErrors runs the tag validator and maps its failures to
// ValidationErrors keyed by JSON field path.
func (l *Ledger) structErrors(s any) ValidationErrors {
	err := l.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return ValidationErrors{invalid("input", "%v", err)}
	}
	out := make(ValidationErrors, 0, len(fes))
	for _, fe := range fes {
		out = append(out, invalid(fieldPath(fe.Namespace()), "%s", message(fe)))
	}
	return out
}

// fieldPath drops the struct name from a validator namespace,
// "invoiceDraft.items[1].description" -> "items[1].description".
func fieldPath(ns string) string {
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
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
