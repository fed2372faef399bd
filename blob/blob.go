// Package blob defines where rendered invoice documents are kept.
package blob

import (
	"context"
	"errors"
	"path"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("blob: not found")

// Store is a flat key/value object store. Keys use forward slashes.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// InvoiceKey is the storage key of an invoice document:
// invoices/<company id>/<filename>.
func InvoiceKey(companyID, filename string) string {
	return path.Join("invoices", companyID, filename)
}
