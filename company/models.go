// Package company defines the tenant root record.
package company

import (
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/types"
)

// Company is a tenant. Every customer and invoice belongs to exactly one.
type Company struct {
	types.Entity
	ID        id.CompanyID `json:"id"`
	Name      string       `json:"name"`
	VATNumber string       `json:"vat_number,omitempty"`
	Address   string       `json:"address,omitempty"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	LogoPath  string       `json:"logo_path,omitempty"`
}

// Patch holds optional profile changes; nil fields are left as they are.
type Patch struct {
	Name      *string `json:"name,omitempty"`
	VATNumber *string `json:"vat_number,omitempty"`
	Address   *string `json:"address,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	LogoPath  *string `json:"logo_path,omitempty"`
}

// Apply merges p into c.
func (c *Company) Apply(p Patch) {
	set(&c.Name, p.Name)
	set(&c.VATNumber, p.VATNumber)
	set(&c.Address, p.Address)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.LogoPath, p.LogoPath)
}

func set(dst, src *string) {
	if src != nil {
		*dst = *src
	}
}
