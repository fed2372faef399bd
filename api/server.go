// Package api serves the invoice ledger as a JSON HTTP API.
//
// Every /api route requires a bearer token naming the caller's company and
// role. Errors are RFC 7807 problem documents; validation failures carry an
// "errors" map keyed by field.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/observability"
)

// Options configures the router.
type Options struct {
	Auth           *Authenticator
	AllowedOrigins []string
	// RateLimit is the number of requests a company may make per RateWindow.
	// Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
	// Production turns on HTTPS redirects and HSTS.
	Production bool
	// Metrics, when set, instruments requests and serves /metrics.
	Metrics *observability.Prometheus
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders(opts.Production, h.logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(opts.Auth.Middleware)
		if opts.RateLimit > 0 {
			window := opts.RateWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.Limit(opts.RateLimit, window, httprate.WithKeyFuncs(tenantKey)))
		}

		r.Route("/companies/me", func(r chi.Router) {
			r.Get("/", h.GetCompany)
			r.Patch("/", h.UpdateCompany)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Patch("/{id}", h.UpdateCustomer)
			r.Delete("/{id}", h.DeleteCustomer)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/stats", h.Stats)
			r.Get("/", h.ListInvoices)
			r.Post("/", h.CreateInvoice)
			r.Get("/{id}", h.GetInvoice)
			r.Patch("/{id}", h.UpdateInvoice)
			r.Delete("/{id}", h.DeleteInvoice)
			r.Get("/{id}/pdf", h.InvoicePDF)
		})
	})

	return r
}

func secureHeaders(production bool, logger *slog.Logger) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           production,
		STSSeconds:            stsSeconds(production),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", "error", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func stsSeconds(production bool) int64 {
	if production {
		return 31536000
	}
	return 0
}

// tenantKey buckets rate limits by company, falling back to the client IP.
func tenantKey(r *http.Request) (string, error) {
	if t, ok := ledger.TenantFrom(r.Context()); ok {
		return "company:" + t.CompanyID.String(), nil
	}
	return httprate.KeyByIP(r)
}
