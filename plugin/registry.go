package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook lists are resolved once at registration so emitting is a slice walk.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onInvoiceCreated       []OnInvoiceCreated
	onInvoiceUpdated       []OnInvoiceUpdated
	onInvoiceStatusChanged []OnInvoiceStatusChanged
	onInvoiceDeleted       []OnInvoiceDeleted
	onInvoiceRendered      []OnInvoiceRendered
	onNumberConflict       []OnNumberConflict
	onCustomerCreated      []OnCustomerCreated
	onCustomerUpdated      []OnCustomerUpdated
	onCustomerDeleted      []OnCustomerDeleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout overrides the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
		hooks = append(hooks, "OnInvoiceCreated")
	}
	if v, ok := p.(OnInvoiceUpdated); ok {
		r.onInvoiceUpdated = append(r.onInvoiceUpdated, v)
		hooks = append(hooks, "OnInvoiceUpdated")
	}
	if v, ok := p.(OnInvoiceStatusChanged); ok {
		r.onInvoiceStatusChanged = append(r.onInvoiceStatusChanged, v)
		hooks = append(hooks, "OnInvoiceStatusChanged")
	}
	if v, ok := p.(OnInvoiceDeleted); ok {
		r.onInvoiceDeleted = append(r.onInvoiceDeleted, v)
		hooks = append(hooks, "OnInvoiceDeleted")
	}
	if v, ok := p.(OnInvoiceRendered); ok {
		r.onInvoiceRendered = append(r.onInvoiceRendered, v)
		hooks = append(hooks, "OnInvoiceRendered")
	}
	if v, ok := p.(OnNumberConflict); ok {
		r.onNumberConflict = append(r.onNumberConflict, v)
		hooks = append(hooks, "OnNumberConflict")
	}
	if v, ok := p.(OnCustomerCreated); ok {
		r.onCustomerCreated = append(r.onCustomerCreated, v)
		hooks = append(hooks, "OnCustomerCreated")
	}
	if v, ok := p.(OnCustomerUpdated); ok {
		r.onCustomerUpdated = append(r.onCustomerUpdated, v)
		hooks = append(hooks, "OnCustomerUpdated")
	}
	if v, ok := p.(OnCustomerDeleted); ok {
		r.onCustomerDeleted = append(r.onCustomerDeleted, v)
		hooks = append(hooks, "OnCustomerDeleted")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// dispatch calls fn for every hook in list, logging failures. Hooks never
// fail the ledger operation that triggered them.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, list []T, fn func(T) error) {
	for _, p := range list {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *list
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	dispatch(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, l)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	dispatch(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv *invoice.Invoice) {
	dispatch(ctx, r, "OnInvoiceCreated", snapshot(r, &r.onInvoiceCreated), func(p OnInvoiceCreated) error {
		return p.OnInvoiceCreated(ctx, inv)
	})
}

func (r *Registry) EmitInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) {
	dispatch(ctx, r, "OnInvoiceUpdated", snapshot(r, &r.onInvoiceUpdated), func(p OnInvoiceUpdated) error {
		return p.OnInvoiceUpdated(ctx, inv)
	})
}

func (r *Registry) EmitInvoiceStatusChanged(ctx context.Context, inv *invoice.Invoice, from invoice.Status) {
	dispatch(ctx, r, "OnInvoiceStatusChanged", snapshot(r, &r.onInvoiceStatusChanged), func(p OnInvoiceStatusChanged) error {
		return p.OnInvoiceStatusChanged(ctx, inv, from)
	})
}

func (r *Registry) EmitInvoiceDeleted(ctx context.Context, companyID id.CompanyID, invID id.InvoiceID) {
	dispatch(ctx, r, "OnInvoiceDeleted", snapshot(r, &r.onInvoiceDeleted), func(p OnInvoiceDeleted) error {
		return p.OnInvoiceDeleted(ctx, companyID, invID)
	})
}

func (r *Registry) EmitInvoiceRendered(ctx context.Context, inv *invoice.Invoice, size int, elapsed time.Duration) {
	dispatch(ctx, r, "OnInvoiceRendered", snapshot(r, &r.onInvoiceRendered), func(p OnInvoiceRendered) error {
		return p.OnInvoiceRendered(ctx, inv, size, elapsed)
	})
}

func (r *Registry) EmitNumberConflict(ctx context.Context, companyID id.CompanyID, number string, attempt int) {
	dispatch(ctx, r, "OnNumberConflict", snapshot(r, &r.onNumberConflict), func(p OnNumberConflict) error {
		return p.OnNumberConflict(ctx, companyID, number, attempt)
	})
}

func (r *Registry) EmitCustomerCreated(ctx context.Context, c *customer.Customer) {
	dispatch(ctx, r, "OnCustomerCreated", snapshot(r, &r.onCustomerCreated), func(p OnCustomerCreated) error {
		return p.OnCustomerCreated(ctx, c)
	})
}

func (r *Registry) EmitCustomerUpdated(ctx context.Context, c *customer.Customer) {
	dispatch(ctx, r, "OnCustomerUpdated", snapshot(r, &r.onCustomerUpdated), func(p OnCustomerUpdated) error {
		return p.OnCustomerUpdated(ctx, c)
	})
}

func (r *Registry) EmitCustomerDeleted(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) {
	dispatch(ctx, r, "OnCustomerDeleted", snapshot(r, &r.onCustomerDeleted), func(p OnCustomerDeleted) error {
		return p.OnCustomerDeleted(ctx, companyID, customerID)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
