package ledger

import (
	"context"

	"github.com/xraph/invoiceledger/id"
)

// Role is what an authenticated user may do within their company.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

// Tenant is the authenticated caller every scoped operation runs as.
type Tenant struct {
	CompanyID id.CompanyID
	UserID    string
	Role      Role
}

type tenantKey struct{}

// WithTenant returns a context carrying t.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// TenantFrom extracts the tenant placed by WithTenant.
func TenantFrom(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(Tenant)
	return t, ok
}

func tenantOf(ctx context.Context) (Tenant, error) {
	t, ok := TenantFrom(ctx)
	if !ok || t.CompanyID.IsNil() {
		return Tenant{}, ErrNoTenant
	}
	return t, nil
}
