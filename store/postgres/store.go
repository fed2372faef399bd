package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
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

// PostgreSQL error codes the store maps to ledger errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("ledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("ledger/postgres: %w: %w", ledger.ErrMigrationFailed, err)
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
	_, err := s.pg.NewInsert(toCompanyModel(c)).Exec(ctx)
	if pgCode(err) == codeUniqueViolation {
		return ledger.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCompany(ctx context.Context, companyID id.CompanyID) (*company.Company, error) {
	m := new(companyModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", companyID.String()).
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
	res, err := s.pg.NewUpdate(toCompanyModel(c)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrCompanyNotFound)
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.pg.NewInsert(toCustomerModel(c)).Exec(ctx)
	if pgCode(err) == codeUniqueViolation {
		return ledger.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	m := new(customerModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", customerID.String()).
		Where("company_id = $2", companyID.String()).
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
	q := s.pg.NewSelect(&models).Where("company_id = $1", companyID.String())

	if opts.Search != "" {
		q = q.Where("name ILIKE $2", "%"+escapeLike(opts.Search)+"%")
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
	res, err := s.pg.NewUpdate(toCustomerModel(c)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrCustomerNotFound)
}

func (s *Store) DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	res, err := s.pg.NewDelete((*customerModel)(nil)).
		Where("id = $1", customerID.String()).
		Where("company_id = $2", companyID.String()).
		Exec(ctx)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return ledger.ErrCustomerInUse
		}
		return err
	}
	return expectRow(res, ledger.ErrCustomerNotFound)
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.pg.NewInsert(toInvoiceModel(inv)).Exec(ctx)
	switch pgCode(err) {
	case codeUniqueViolation:
		return ledger.ErrDuplicateNumber
	case codeForeignKeyViolation:
		return ledger.ErrCustomerNotFound
	}
	return err
}

func (s *Store) GetInvoice(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", invID.String()).
		Where("company_id = $2", companyID.String()).
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
	q := s.pg.NewSelect(&models).Where("company_id = $1", companyID.String())

	if opts.Status != "" {
		q = q.Where("status = $2", string(opts.Status))
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
	res, err := s.pg.NewUpdate(toInvoiceModel(inv)).WherePK().Exec(ctx)
	if err != nil {
		switch pgCode(err) {
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
	res, err := s.pg.NewDelete((*invoiceModel)(nil)).
		Where("id = $1", invID.String()).
		Where("company_id = $2", companyID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrInvoiceNotFound)
}

// NextInvoiceNumber bumps the company counter in a single upsert, so
// concurrent callers never observe the same value.
func (s *Store) NextInvoiceNumber(ctx context.Context, companyID id.CompanyID) (int64, error) {
	var next int64
	err := s.pg.NewRaw(`
		INSERT INTO ledger_invoice_sequences (company_id, last_value) VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_value = ledger_invoice_sequences.last_value + 1
		RETURNING last_value
	`, companyID.String()).Scan(ctx, &next)
	if err != nil {
		return 0, fmt.Errorf("ledger/postgres: next invoice number: %w", err)
	}
	return next, nil
}

func (s *Store) SetInvoiceDocument(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID, path string) error {
	res, err := s.pg.NewUpdate((*invoiceModel)(nil)).
		Set("document_path = $1", path).
		Where("id = $2", invID.String()).
		Where("company_id = $3", companyID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ledger.ErrInvoiceNotFound)
}

func (s *Store) CountCustomerInvoices(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	var n int64
	err := s.pg.NewRaw(`
		SELECT COUNT(*) FROM ledger_invoices WHERE company_id = $1 AND customer_id = $2
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

// pgCode returns the SQLSTATE of a PostgreSQL error, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
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
