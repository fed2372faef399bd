package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
	ledgerstore "github.com/xraph/invoiceledger/store"
)

// Collection name constants.
const (
	colCompanies = "ledger_companies"
	colCustomers = "ledger_customers"
	colInvoices  = "ledger_invoices"
	colSequences = "ledger_invoice_sequences"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// MongoDB has no foreign keys. Customer references are kept by checking
// after each write and undoing it when a concurrent write got in between:
// DeleteCustomer restores the customer if invoices still point at it, and
// CreateInvoice or UpdateInvoice withdraw an invoice whose customer is gone.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("ledger/mongo: migrate %s indexes: %w: %w", col, ledger.ErrMigrationFailed, err)
		}
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
	_, err := s.mdb.NewInsert(toCompanyModel(c)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create company: %w", err)
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, companyID id.CompanyID) (*company.Company, error) {
	var m companyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": companyID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get company: %w", err)
	}
	return fromCompanyModel(&m)
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	m := toCompanyModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update company: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ledger.ErrCompanyNotFound
	}
	return nil
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.mdb.NewInsert(toCustomerModel(c)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": customerID.String(), "company_id": companyID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get customer: %w", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) ListCustomers(ctx context.Context, companyID id.CompanyID, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel

	filter := bson.M{"company_id": companyID.String()}
	if opts.Search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(opts.Search), "$options": "i"}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list customers: %w", err)
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
	m := toCustomerModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "company_id": m.CompanyID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update customer: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ledger.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	filter := bson.M{"_id": customerID.String(), "company_id": companyID.String()}
	if n, err := s.CountCustomerInvoices(ctx, companyID, customerID); err != nil {
		return err
	} else if n > 0 {
		return ledger.ErrCustomerInUse
	}

	var removed customerModel
	err := s.mdb.Collection(colCustomers).FindOneAndDelete(ctx, filter).Decode(&removed)
	if err != nil {
		if isNoDocuments(err) {
			return ledger.ErrCustomerNotFound
		}
		return fmt.Errorf("ledger/mongo: delete customer: %w", err)
	}

	// An invoice may have been inserted between the count and the delete.
	n, err := s.CountCustomerInvoices(ctx, companyID, customerID)
	if err != nil {
		return err
	}
	if n > 0 {
		if _, err := s.mdb.NewInsert(&removed).Exec(ctx); err != nil {
			return fmt.Errorf("ledger/mongo: restore customer: %w", err)
		}
		return ledger.ErrCustomerInUse
	}
	return nil
}

// customerExists reports whether the customer is present in the company.
func (s *Store) customerExists(ctx context.Context, companyID, customerID string) (bool, error) {
	n, err := s.mdb.Collection(colCustomers).CountDocuments(ctx,
		bson.M{"_id": customerID, "company_id": companyID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("ledger/mongo: check customer: %w", err)
	}
	return n > 0, nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateNumber
		}
		return fmt.Errorf("ledger/mongo: create invoice: %w", err)
	}

	ok, err := s.customerExists(ctx, m.CompanyID, m.CustomerID)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.mdb.Collection(colInvoices).DeleteOne(ctx, bson.M{"_id": m.ID}); err != nil {
			return fmt.Errorf("ledger/mongo: withdraw invoice: %w", err)
		}
		return ledger.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invID.String(), "company_id": companyID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, companyID id.CompanyID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{"company_id": companyID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list invoices: %w", err)
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
	m := toInvoiceModel(inv)
	filter := bson.M{"_id": m.ID, "company_id": m.CompanyID}

	var prev invoiceModel
	if err := s.mdb.NewFind(&prev).Filter(filter).Scan(ctx); err != nil {
		if isNoDocuments(err) {
			return ledger.ErrInvoiceNotFound
		}
		return fmt.Errorf("ledger/mongo: update invoice: %w", err)
	}

	res, err := s.mdb.NewUpdate(m).Filter(filter).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateNumber
		}
		return fmt.Errorf("ledger/mongo: update invoice: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ledger.ErrInvoiceNotFound
	}
	if prev.CustomerID == m.CustomerID {
		return nil
	}

	ok, err := s.customerExists(ctx, m.CompanyID, m.CustomerID)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.mdb.NewUpdate(&prev).Filter(filter).Exec(ctx); err != nil {
			return fmt.Errorf("ledger/mongo: restore invoice: %w", err)
		}
		return ledger.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) error {
	res, err := s.mdb.NewDelete((*invoiceModel)(nil)).
		Filter(bson.M{"_id": invID.String(), "company_id": companyID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: delete invoice: %w", err)
	}
	if res.DeletedCount() == 0 {
		return ledger.ErrInvoiceNotFound
	}
	return nil
}

// NextInvoiceNumber atomically increments the company counter document,
// creating it on first use.
func (s *Store) NextInvoiceNumber(ctx context.Context, companyID id.CompanyID) (int64, error) {
	var seq sequenceModel
	err := s.mdb.Collection(colSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": companyID.String()},
		bson.M{"$inc": bson.M{"last_value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&seq)
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: next invoice number: %w", err)
	}
	return seq.LastValue, nil
}

func (s *Store) SetInvoiceDocument(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID, path string) error {
	res, err := s.mdb.NewUpdate((*invoiceModel)(nil)).
		Filter(bson.M{"_id": invID.String(), "company_id": companyID.String()}).
		Set("document_path", path).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: set invoice document: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ledger.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) CountCustomerInvoices(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	n, err := s.mdb.Collection(colInvoices).CountDocuments(ctx, bson.M{
		"company_id":  companyID.String(),
		"customer_id": customerID.String(),
	})
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: count customer invoices: %w", err)
	}
	return n, nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCustomers: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		colInvoices: {
			{
				Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "invoice_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "customer_id", Value: 1}}},
		},
	}
}
