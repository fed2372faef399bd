package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/xraph/invoiceledger/blob"
	"github.com/xraph/invoiceledger/dashboard"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/plugin"
	"github.com/xraph/invoiceledger/store"
	"github.com/xraph/invoiceledger/types"
)

// DefaultNumberRetries bounds automatic renumbering after a collision.
const DefaultNumberRetries = 3

// StatsCache stores dashboard snapshots per company. Implemented by
// cache.StatsCache.
//
// InvalidateStats must advance the company's version, and SetStats must
// discard a snapshot whose version is no longer current.
type StatsCache interface {
	GetStats(ctx context.Context, companyID id.CompanyID) (*dashboard.Stats, bool, error)
	StatsVersion(ctx context.Context, companyID id.CompanyID) (int64, error)
	SetStats(ctx context.Context, companyID id.CompanyID, s *dashboard.Stats, version int64) error
	InvalidateStats(ctx context.Context, companyID id.CompanyID) error
}

// Ledger is the invoice ledger. Every operation except CreateCompany runs
// as the Tenant carried by its context.
type Ledger struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	validate *validator.Validate

	currency          string
	numberRetries     int
	strictTransitions bool

	stats   StatsCache
	docs    blob.Store
	renders singleflight.Group
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:         s,
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		validate:      newValidator(),
		currency:      types.DefaultCurrency,
		numberRetries: DefaultNumberRetries,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCurrency sets the ledger currency (ISO 4217).
func WithCurrency(code string) Option {
	return func(l *Ledger) {
		if code != "" {
			l.currency = strings.ToLower(code)
		}
	}
}

// WithNumberRetries sets how many counter values an automatically
// numbered invoice may try before giving up.
func WithNumberRetries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.numberRetries = n
		}
	}
}

// WithStrictTransitions enforces the nominal status lifecycle on update.
func WithStrictTransitions() Option {
	return func(l *Ledger) { l.strictTransitions = true }
}

// WithStatsCache caches dashboard stats; invoice writes invalidate them.
func WithStatsCache(c StatsCache) Option {
	return func(l *Ledger) { l.stats = c }
}

// WithDocumentStore persists rendered documents and records their path
// on the invoice.
func WithDocumentStore(s blob.Store) Option {
	return func(l *Ledger) { l.docs = s }
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) { l.plugins.WithTimeout(d) }
}

// Start migrates the store and initializes plugins. It rejects a ledger
// currency whose minor unit is not two digits, since totals round to cents.
func (l *Ledger) Start(ctx context.Context) error {
	if types.MinorDigits(l.currency) != 2 {
		return fmt.Errorf("ledger: currency %q: %w: minor unit must have two digits", l.currency, ErrInvalidInput)
	}
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started",
		"currency", l.currency,
		"number_retries", l.numberRetries,
		"strict_transitions", l.strictTransitions,
		"stats_cache", l.stats != nil,
		"document_store", l.docs != nil,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())
	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Currency returns the ledger currency code.
func (l *Ledger) Currency() string { return l.currency }

// Ping checks store connectivity. Failures match ErrStoreNotReady.
func (l *Ledger) Ping(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreNotReady, err)
	}
	return nil
}
