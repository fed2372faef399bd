package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	ledgerstore "github.com/xraph/invoiceledger/store"
	"github.com/xraph/invoiceledger/types"
)

// ==================== Company models ====================

type companyModel struct {
	grove.BaseModel `grove:"table:ledger_companies"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Name      string    `grove:"name"       bson:"name"`
	VATNumber string    `grove:"vat_number" bson:"vat_number,omitempty"`
	Address   string    `grove:"address"    bson:"address,omitempty"`
	Email     string    `grove:"email"      bson:"email,omitempty"`
	Phone     string    `grove:"phone"      bson:"phone,omitempty"`
	LogoPath  string    `grove:"logo_path"  bson:"logo_path,omitempty"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toCompanyModel(c *company.Company) *companyModel {
	return &companyModel{
		ID:        c.ID.String(),
		Name:      c.Name,
		VATNumber: c.VATNumber,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
		LogoPath:  c.LogoPath,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCompanyModel(m *companyModel) (*company.Company, error) {
	companyID, err := id.ParseCompanyID(m.ID)
	if err != nil {
		return nil, err
	}
	return &company.Company{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        companyID,
		Name:      m.Name,
		VATNumber: m.VATNumber,
		Address:   m.Address,
		Email:     m.Email,
		Phone:     m.Phone,
		LogoPath:  m.LogoPath,
	}, nil
}

// ==================== Customer models ====================

type customerModel struct {
	grove.BaseModel `grove:"table:ledger_customers"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	CompanyID string    `grove:"company_id" bson:"company_id"`
	Name      string    `grove:"name"       bson:"name"`
	VATNumber string    `grove:"vat_number" bson:"vat_number,omitempty"`
	Address   string    `grove:"address"    bson:"address,omitempty"`
	Email     string    `grove:"email"      bson:"email,omitempty"`
	Phone     string    `grove:"phone"      bson:"phone,omitempty"`
	Notes     string    `grove:"notes"      bson:"notes,omitempty"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:        c.ID.String(),
		CompanyID: c.CompanyID.String(),
		Name:      c.Name,
		VATNumber: c.VATNumber,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) (*customer.Customer, error) {
	customerID, err := id.ParseCustomerID(m.ID)
	if err != nil {
		return nil, err
	}
	companyID, err := id.ParseCompanyID(m.CompanyID)
	if err != nil {
		return nil, err
	}
	return &customer.Customer{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        customerID,
		CompanyID: companyID,
		Name:      m.Name,
		VATNumber: m.VATNumber,
		Address:   m.Address,
		Email:     m.Email,
		Phone:     m.Phone,
		Notes:     m.Notes,
	}, nil
}

// ==================== Invoice models ====================

// Items are embedded as a subdocument array. Dates are YYYY-MM-DD strings
// and the tax rate is a decimal string, so both sort and compare exactly.
type invoiceModel struct {
	grove.BaseModel `grove:"table:ledger_invoices"`

	ID           string                `grove:"id,pk"          bson:"_id"`
	CompanyID    string                `grove:"company_id"     bson:"company_id"`
	CustomerID   string                `grove:"customer_id"    bson:"customer_id"`
	Number       string                `grove:"invoice_number" bson:"invoice_number"`
	Status       string                `grove:"status"         bson:"status"`
	IssueDate    string                `grove:"issue_date"     bson:"issue_date"`
	DueDate      string                `grove:"due_date"       bson:"due_date"`
	Currency     string                `grove:"currency"       bson:"currency"`
	TaxRate      string                `grove:"tax_rate"       bson:"tax_rate"`
	Subtotal     int64                 `grove:"subtotal"       bson:"subtotal"`
	TaxAmount    int64                 `grove:"tax_amount"     bson:"tax_amount"`
	Total        int64                 `grove:"total"          bson:"total"`
	Notes        string                `grove:"notes"          bson:"notes,omitempty"`
	DocumentPath string                `grove:"document_path"  bson:"document_path,omitempty"`
	Items        []ledgerstore.ItemRow `grove:"items"          bson:"items"`
	CreatedAt    time.Time             `grove:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time             `grove:"updated_at"     bson:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		ID:           inv.ID.String(),
		CompanyID:    inv.CompanyID.String(),
		CustomerID:   inv.CustomerID.String(),
		Number:       inv.Number,
		Status:       string(inv.Status),
		IssueDate:    inv.IssueDate.String(),
		DueDate:      inv.DueDate.String(),
		Currency:     inv.Currency,
		TaxRate:      inv.TaxRate.String(),
		Subtotal:     inv.Subtotal.Amount,
		TaxAmount:    inv.TaxAmount.Amount,
		Total:        inv.Total.Amount,
		Notes:        inv.Notes,
		DocumentPath: inv.DocumentPath,
		Items:        ledgerstore.ItemRows(inv.Items),
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	companyID, err := id.ParseCompanyID(m.CompanyID)
	if err != nil {
		return nil, err
	}
	customerID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, err
	}
	issue, err := types.ParseDate(m.IssueDate)
	if err != nil {
		return nil, err
	}
	due, err := types.ParseDate(m.DueDate)
	if err != nil {
		return nil, err
	}
	rate := decimal.Zero
	if m.TaxRate != "" {
		if rate, err = decimal.NewFromString(m.TaxRate); err != nil {
			return nil, err
		}
	}
	items, err := ledgerstore.Items(m.Items, m.Currency)
	if err != nil {
		return nil, err
	}

	return &invoice.Invoice{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           invID,
		CompanyID:    companyID,
		CustomerID:   customerID,
		Number:       m.Number,
		Status:       invoice.Status(m.Status),
		IssueDate:    issue,
		DueDate:      due,
		Currency:     m.Currency,
		TaxRate:      rate,
		Subtotal:     types.Money{Amount: m.Subtotal, Currency: m.Currency},
		TaxAmount:    types.Money{Amount: m.TaxAmount, Currency: m.Currency},
		Total:        types.Money{Amount: m.Total, Currency: m.Currency},
		Notes:        m.Notes,
		DocumentPath: m.DocumentPath,
		Items:        items,
	}, nil
}

// sequenceModel holds the last issued invoice counter of a company.
type sequenceModel struct {
	CompanyID string `bson:"_id"`
	LastValue int64  `bson:"last_value"`
}
