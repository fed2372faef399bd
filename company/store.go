package company

import (
	"context"

	"github.com/xraph/invoiceledger/id"
)

type Store interface {
	CreateCompany(ctx context.Context, c *Company) error
	GetCompany(ctx context.Context, companyID id.CompanyID) (*Company, error)
	UpdateCompany(ctx context.Context, c *Company) error
}
