package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/invoiceledger/blob"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/render"
)

// ──────────────────────────────────────────────────
// Documents
// ──────────────────────────────────────────────────

// RenderInvoice produces the invoice document. Concurrent calls for the
// same invoice revision share one render.
func (l *Ledger) RenderInvoice(ctx context.Context, invID id.InvoiceID) (*render.Document, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := l.store.GetInvoice(ctx, t.CompanyID, invID)
	if err != nil {
		return nil, err
	}

	key := inv.ID.String() + "@" + strconv.FormatInt(inv.UpdatedAt.UnixNano(), 10)
	v, err, shared := l.renders.Do(key, func() (any, error) {
		// Shared by every caller, so it must outlive the first one.
		ctx := context.WithoutCancel(ctx)

		cust, err := l.store.GetCustomer(ctx, t.CompanyID, inv.CustomerID)
		if err != nil {
			return nil, err
		}
		co, err := l.store.GetCompany(ctx, t.CompanyID)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		doc, err := render.Render(render.Input{Company: co, Customer: cust, Invoice: inv})
		if err != nil {
			return nil, fmt.Errorf("ledger: render invoice %s: %w", inv.ID, err)
		}
		elapsed := time.Since(start)

		if l.docs != nil {
			path := blob.InvoiceKey(t.CompanyID.String(), doc.Filename)
			if err := l.docs.Put(ctx, path, doc.Bytes, doc.ContentType); err != nil {
				return nil, fmt.Errorf("ledger: store document: %w", err)
			}
			if err := l.store.SetInvoiceDocument(ctx, t.CompanyID, inv.ID, path); err != nil {
				return nil, err
			}
			inv.DocumentPath = path
		}

		l.plugins.EmitInvoiceRendered(ctx, inv, len(doc.Bytes), elapsed)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("invoice rendered",
		"invoice_id", invID.String(),
		"shared", shared,
	)
	return v.(*render.Document), nil
}

// InvoiceDocument returns the last stored document of an invoice.
// It fails with ErrNotFound when nothing has been stored yet.
func (l *Ledger) InvoiceDocument(ctx context.Context, invID id.InvoiceID) (*render.Document, error) {
	t, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := l.store.GetInvoice(ctx, t.CompanyID, invID)
	if err != nil {
		return nil, err
	}
	if l.docs == nil || inv.DocumentPath == "" {
		return nil, fmt.Errorf("ledger: invoice %s has no stored document: %w", invID, ErrNotFound)
	}

	data, err := l.docs.Get(ctx, inv.DocumentPath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, fmt.Errorf("ledger: document %s: %w", inv.DocumentPath, ErrNotFound)
		}
		return nil, err
	}
	return &render.Document{
		Filename:    render.Filename(inv),
		ContentType: render.ContentType,
		Bytes:       data,
	}, nil
}
