package ledger

import (
	"context"

	"github.com/xraph/invoiceledger/dashboard"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
)

// Stats returns the tenant's dashboard rollup. With a stats cache the
// result is served from it until the next invoice write. The version is
// read before the invoices, so a rollup that raced a write is never cached.
func (l *Ledger) Stats(ctx context.Context) (*dashboard.Stats, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}

	cacheable := false
	var version int64
	if l.stats != nil {
		s, ok, err := l.stats.GetStats(ctx, t.CompanyID)
		switch {
		case err != nil:
			l.logger.Warn("stats cache read failed", "company_id", t.CompanyID.String(), "error", err)
		case ok:
			return s, nil
		}
		if version, err = l.stats.StatsVersion(ctx, t.CompanyID); err != nil {
			l.logger.Warn("stats cache version read failed", "company_id", t.CompanyID.String(), "error", err)
		} else {
			cacheable = true
		}
	}

	invs, err := l.store.ListInvoices(ctx, t.CompanyID, invoice.ListOpts{})
	if err != nil {
		return nil, err
	}
	s := dashboard.Compute(invs, l.currency)

	if cacheable {
		if err := l.stats.SetStats(ctx, t.CompanyID, s, version); err != nil {
			l.logger.Warn("stats cache write failed", "company_id", t.CompanyID.String(), "error", err)
		}
	}
	return s, nil
}

func (l *Ledger) invalidateStats(ctx context.Context, companyID id.CompanyID) {
	if l.stats == nil {
		return
	}
	if err := l.stats.InvalidateStats(ctx, companyID); err != nil {
		l.logger.Warn("stats cache invalidation failed", "company_id", companyID.String(), "error", err)
	}
}
