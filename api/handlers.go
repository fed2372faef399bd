package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/id"
	"github.com/xraph/invoiceledger/invoice"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the ledger over HTTP.
type Handler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(l *ledger.Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ledger: l, logger: logger}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	respondError(w, h.logger, err)
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem(w, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// Health reports store connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Ping(r.Context()); err != nil {
		problem(w, http.StatusServiceUnavailable, "Service Unavailable", "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ==================== Company ====================

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.ledger.GetCompany(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var p company.Patch
	if !decode(w, r, &p) {
		return
	}
	c, err := h.ledger.UpdateCompany(r.Context(), p)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ==================== Customers ====================

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := paging(w, r)
	if !ok {
		return
	}
	list, err := h.ledger.ListCustomers(r.Context(), customer.ListOpts{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := check(req); err != nil {
		h.fail(w, err)
		return
	}
	c := &customer.Customer{
		Name:      req.Name,
		VATNumber: req.VATNumber,
		Address:   req.Address,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}
	if err := h.ledger.CreateCustomer(r.Context(), c); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	c, err := h.ledger.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	var p customer.Patch
	if !decode(w, r, &p) {
		return
	}
	c, err := h.ledger.UpdateCustomer(r.Context(), customerID, p)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.DeleteCustomer(r.Context(), customerID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==================== Invoices ====================

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.ledger.Stats(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := paging(w, r)
	if !ok {
		return
	}
	list, err := h.ledger.ListInvoices(r.Context(), invoice.ListOpts{
		Status: invoice.Status(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	if err := check(req); err != nil {
		h.fail(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, err)
		return
	}
	inv, err := h.ledger.CreateInvoice(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	inv, err := h.ledger.GetInvoice(r.Context(), invID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	var p invoice.Patch
	if !decode(w, r, &p) {
		return
	}
	inv, err := h.ledger.UpdateInvoice(r.Context(), invID, p)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.DeleteInvoice(r.Context(), invID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvoicePDF streams the rendered document as a download.
func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	doc, err := h.ledger.RenderInvoice(r.Context(), invID)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

// ==================== Helpers ====================

// Malformed path ids are reported as not found.
func (h *Handler) invoiceID(w http.ResponseWriter, r *http.Request) (id.InvoiceID, bool) {
	v, err := id.ParseInvoiceID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, ledger.ErrInvoiceNotFound)
		return id.InvoiceID{}, false
	}
	return v, true
}

func (h *Handler) customerID(w http.ResponseWriter, r *http.Request) (id.CustomerID, bool) {
	v, err := id.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, ledger.ErrCustomerNotFound)
		return id.CustomerID{}, false
	}
	return v, true
}

func paging(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &limit}, {"offset", &offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			problem(w, http.StatusBadRequest, "Bad Request", p.name+" must be a non-negative integer")
			return 0, 0, false
		}
		*p.dst = n
	}
	return limit, offset, true
}
