package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	ledger "github.com/xraph/invoiceledger"
)

// ProblemContentType is the media type of every error response.
const ProblemContentType = "application/problem+json"

// Problem is an RFC 7807 problem document. Errors is set for validation
// failures and maps each offending field to its message.
type Problem struct {
	Type   string            `json:"type,omitempty"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// writeJSON sends data with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problem(w http.ResponseWriter, status int, title, detail string) {
	writeProblem(w, Problem{Title: title, Status: status, Detail: detail})
}

// respondError maps ledger errors to problem responses. Unknown errors are
// logged and reported without detail.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		many ledger.ValidationErrors
		one  *ledger.ValidationError
	)
	switch {
	case errors.As(err, &many):
		writeProblem(w, Problem{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: many.Error(),
			Errors: many.Fields(),
		})
	case errors.As(err, &one):
		writeProblem(w, Problem{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: one.Error(),
			Errors: map[string]string{one.Field: one.Message},
		})
	case ledger.IsNotFound(err):
		problem(w, http.StatusNotFound, "Not Found", err.Error())
	case ledger.IsConflict(err):
		problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ledger.ErrForbidden):
		problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ledger.ErrNoTenant):
		problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case ledger.IsRetryable(err):
		problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
	default:
		logger.Error("api: request failed", "error", err)
		problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
