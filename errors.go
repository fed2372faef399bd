package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("ledger: not found")
	ErrAlreadyExists = errors.New("ledger: already exists")
	ErrInvalidInput  = errors.New("ledger: invalid input")
	ErrConflict      = errors.New("ledger: conflict")
	ErrForbidden     = errors.New("ledger: forbidden")
	ErrNoTenant      = errors.New("ledger: no tenant in context")

	// Entity lookups; all satisfy errors.Is(err, ErrNotFound).
	ErrCompanyNotFound  error = &kindError{"ledger: company not found", ErrNotFound}
	ErrCustomerNotFound error = &kindError{"ledger: customer not found", ErrNotFound}
	ErrInvoiceNotFound  error = &kindError{"ledger: invoice not found", ErrNotFound}

	// Conflicts; all satisfy errors.Is(err, ErrConflict).
	ErrDuplicateNumber error = &kindError{"ledger: invoice number already in use", ErrConflict}
	ErrCustomerInUse   error = &kindError{"ledger: customer is referenced by invoices", ErrConflict}

	// Store errors
	ErrStoreNotReady   = errors.New("ledger: store not ready")
	ErrStoreClosed     = errors.New("ledger: store is closed")
	ErrMigrationFailed = errors.New("ledger: migration failed")
)

// kindError is a named sentinel that also matches a broader category.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// ValidationError names the offending input field. It matches
// ErrInvalidInput under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ValidationErrors collects every field failure of one input.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "ledger: no validation errors"
	case 1:
		return e[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
	}
}

// Unwrap exposes each field error to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, ve := range e {
		out[i] = ve
	}
	return out
}

// Fields maps each failing field to its message.
func (e ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, ve := range e {
		if _, seen := out[ve.Field]; !seen {
			out[ve.Field] = ve.Message
		}
	}
	return out
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err means the record is absent or belongs to
// another tenant.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a uniqueness or reference conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsValidation reports whether err is caller-correctable input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried, possibly against another instance.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) || errors.Is(err, ErrStoreClosed)
}
