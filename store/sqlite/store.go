package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	ledgerstore "github.com/xraph/invoiceledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Constraint failures the store maps to ledger errors. SQLite reports
// them only through the error text.
const (
	codeUniqueViolation     = "UNIQUE constraint failed"
	codeForeignKeyViolation = "FOREIGN KEY constraint failed"
)

// Store implements store.Store using SQLite via Grove ORM. Foreign keys
// are only enforced when the connection enables them (_pragma=foreign_keys(1)).
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("ledger/sqlite: %w: %w", ledger.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Company Store ====================

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	_, err := s.sdb.NewInsert(toCompanyModel(c)).Exec(ctx)
	if constraint(err) == codeUniqueViolation {
		return ledger.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCompany(ctx context.Context, companyID id.CompanyID) (*company.Company, error) {
	m := new(companyModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", companyID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrCompanyNotFound
		}
		return nil, err
	}
	return fromCompanyModel(m)
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	res, err := s.sdb.NewUpdate(toCompanyModel(c)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrCompanyNotFound)
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.sdb.NewInsert(toCustomerModel(c)).Exec(ctx)
	if constraint(err) == codeUniqueViolation {
		return ledger.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	m := new(customerModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", customerID.String()).
		Where("company_id = ?", companyID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, err
	}
	return fromCustomerModel(m)
}

func (s *Store) ListCustomers(ctx context.Context, companyID id.CompanyID, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel
	q := s.sdb.NewSelect(&models).Where("company_id = ?", companyID.String())

	if opts.Search != "" {
		q = q.Where("name LIKE ? ESCAPE '\\'", "%"+escapeLike(opts.Search)+"%")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("name ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*customer.Customer, len(models))
	for i := range models {
		c, err := fromCustomerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	res, err := s.sdb.NewUpdate(toCustomerModel(c)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrCustomerNotFound)
}

func (s *Store) DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	res, err := s.sdb.NewDelete((*customerModel)(nil)).
		Where("id = ?", customerID.String()).
		Where("company_id = ?", companyID.String()).
		Exec(ctx)
	if err != nil {
		if constraint(err) == codeForeignKeyViolation {
			return ledger.ErrCustomerInUse
		}
		return err
	}
	return expectRow(res, ledger.ErrCustomerNotFound)
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.sdb.NewInsert(toInvoiceModel(inv)).Exec(ctx)
	switch constraint(err) {
	case codeUniqueViolation:
		return ledger.ErrDuplicateNumber
	case codeForeignKeyViolation:
		return ledger.ErrCustomerNotFound
	}
	return err
}

func (s *Store) GetInvoice(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", invID.String()).
		Where("company_id = ?", companyID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, companyID id.CompanyID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.sdb.NewSelect(&models).Where("company_id = ?", companyID.String())

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	res, err := s.sdb.NewUpdate(toInvoiceModel(inv)).WherePK().Exec(ctx)
	if err != nil {
		switch constraint(err) {
		case codeUniqueViolation:
			return ledger.ErrDuplicateNumber
		case codeForeignKeyViolation:
			return ledger.ErrCustomerNotFound
		}
		return err
	}
	return expectRow(res, ledger.ErrInvoiceNotFound)
}

func (s *Store) DeleteInvoice(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) error {
	res, err := s.sdb.NewDelete((*invoiceModel)(nil)).
		Where("id = ?", invID.String()).
		Where("company_id = ?", companyID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrInvoiceNotFound)
}

// NextInvoiceNumber bumps the company counter in a single upsert.
// SQLite serialises writers, so each call observes a distinct value.
func (s *Store) NextInvoiceNumber(ctx context.Context, companyID id.CompanyID) (int64, error) {
	var next int64
	err := s.sdb.NewRaw(`
		INSERT INTO ledger_invoice_sequences (company_id, last_value) VALUES (?, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_value = ledger_invoice_sequences.last_value + 1
		RETURNING last_value
	`, companyID.String()).Scan(ctx, &next)
	if err != nil {
		return 0, fmt.Errorf("ledger/sqlite: next invoice number: %w", err)
	}
	return next, nil
}

func (s *Store) SetInvoiceDocument(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID, path string) error {
	res, err := s.sdb.NewUpdate((*invoiceModel)(nil)).
		Set("document_path = ?", path).
		Where("id = ?", invID.String()).
		Where("company_id = ?", companyID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrInvoiceNotFound)
}

func (s *Store) CountCustomerInvoices(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	var n int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM ledger_invoices WHERE company_id = ? AND customer_id = ?
	`, companyID.String(), customerID.String()).Scan(ctx, &n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// constraint returns which constraint kind err reports, or "".
func constraint(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, c := range []string{codeUniqueViolation, codeForeignKeyViolation} {
		if strings.Contains(msg, c) {
			return c
		}
	}
	return ""
}

// rowsAffecter is the part of an exec result the store inspects.
type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectRow(res rowsAffecter, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
