package customer

import (
	"context"

	"github.com/xraph/invoiceledger/id"
)

// Store persists customers. Every lookup is scoped by the owning company;
// a customer of another company is reported as not found.
type Store interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*Customer, error)
	ListCustomers(ctx context.Context, companyID id.CompanyID, opts ListOpts) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error
}

// ListOpts filters a customer listing. Search is a case-insensitive
// substring match on the name; results are ordered by name.
type ListOpts struct {
	Search string
	Limit  int
	Offset int
}
