// Package customer defines the per-company customer directory records.
package customer

import (
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/types"
)

type Customer struct {
	types.Entity
	ID        id.CustomerID `json:"id"`
	CompanyID id.CompanyID  `json:"company_id"`
	Name      string        `json:"name"`
	VATNumber string        `json:"vat_number,omitempty"`
	Address   string        `json:"address,omitempty"`
	Email     string        `json:"email,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Notes     string        `json:"notes,omitempty"`
}

// Patch holds optional changes; nil fields are left as they are.
type Patch struct {
	Name      *string `json:"name,omitempty"`
	VATNumber *string `json:"vat_number,omitempty"`
	Address   *string `json:"address,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Apply merges p into c.
func (c *Customer) Apply(p Patch) {
	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&c.Name, p.Name},
		{&c.VATNumber, p.VATNumber},
		{&c.Address, p.Address},
		{&c.Email, p.Email},
		{&c.Phone, p.Phone},
		{&c.Notes, p.Notes},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
}
