package sqlite

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

// SQLite has no native date or decimal types. Dates are stored as
// YYYY-MM-DD text, the tax rate as decimal text and items as JSON text.

type companyModel struct {
	grove.BaseModel `grove:"table:ledger_companies"`

	ID        string    `grove:"id,pk"`
	Name      string    `grove:"name"`
	VATNumber string    `grove:"vat_number"`
	Address   string    `grove:"address"`
	Email     string    `grove:"email"`
	Phone     string    `grove:"phone"`
	LogoPath  string    `grove:"logo_path"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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

type customerModel struct {
	grove.BaseModel `grove:"table:ledger_customers"`

	ID        string    `grove:"id,pk"`
	CompanyID string    `grove:"company_id"`
	Name      string    `grove:"name"`
	VATNumber string    `grove:"vat_number"`
	Address   string    `grove:"address"`
	Email     string    `grove:"email"`
	Phone     string    `grove:"phone"`
	Notes     string    `grove:"notes"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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

type invoiceModel struct {
	grove.BaseModel `grove:"table:ledger_invoices"`

	ID           string          `grove:"id,pk"`
	CompanyID    string          `grove:"company_id"`
	CustomerID   string          `grove:"customer_id"`
	Number       string          `grove:"invoice_number"`
	Status       string          `grove:"status"`
	IssueDate    types.Date      `grove:"issue_date"`
	DueDate      types.Date      `grove:"due_date"`
	Currency     string          `grove:"currency"`
	TaxRate      decimal.Decimal `grove:"tax_rate"`
	Subtotal     int64           `grove:"subtotal"`
	TaxAmount    int64           `grove:"tax_amount"`
	Total        int64           `grove:"total"`
	Notes        string          `grove:"notes"`
	DocumentPath string          `grove:"document_path"`
	Items        string          `grove:"items"`
	CreatedAt    time.Time       `grove:"created_at"`
	UpdatedAt    time.Time       `grove:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	items, _ := ledgerstore.EncodeItems(inv.Items) //nolint:errcheck // plain struct slice

	return &invoiceModel{
		ID:           inv.ID.String(),
		CompanyID:    inv.CompanyID.String(),
		CustomerID:   inv.CustomerID.String(),
		Number:       inv.Number,
		Status:       string(inv.Status),
		IssueDate:    inv.IssueDate,
		DueDate:      inv.DueDate,
		Currency:     inv.Currency,
		TaxRate:      inv.TaxRate,
		Subtotal:     inv.Subtotal.Amount,
		TaxAmount:    inv.TaxAmount.Amount,
		Total:        inv.Total.Amount,
		Notes:        inv.Notes,
		DocumentPath: inv.DocumentPath,
		Items:        string(items),
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
	items, err := ledgerstore.DecodeItems([]byte(m.Items), m.Currency)
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
		IssueDate:    m.IssueDate,
		DueDate:      m.DueDate,
		Currency:     m.Currency,
		TaxRate:      m.TaxRate,
		Subtotal:     types.Money{Amount: m.Subtotal, Currency: m.Currency},
		TaxAmount:    types.Money{Amount: m.TaxAmount, Currency: m.Currency},
		Total:        types.Money{Amount: m.Total, Currency: m.Currency},
		Notes:        m.Notes,
		DocumentPath: m.DocumentPath,
		Items:        items,
	}, nil
}
