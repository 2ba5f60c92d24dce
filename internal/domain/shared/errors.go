package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithDetails creates a domain error carrying structured detail
// fields so callers can surface the offending line/product instead of a
// generic failure message.
func NewDomainErrorWithDetails(code, message string, details map[string]any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrorCode extracts the domain error code from an error, or "" if the error
// is not a DomainError.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsDomainError reports whether err is a DomainError with the given code.
func IsDomainError(err error, code string) bool {
	return ErrorCode(err) == code
}

// Error codes used across the settlement engine
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeCurrencyMismatch     = "CURRENCY_MISMATCH"
	CodeMixedCurrencyLines   = "MIXED_CURRENCY_LINES"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	CodeFractionalQuantity   = "FRACTIONAL_QUANTITY_NOT_ALLOWED"
	CodeOverpaymentRejected  = "OVERPAYMENT_REJECTED"
	CodeDebtAlreadySettled   = "DEBT_ALREADY_SETTLED"
	CodeNonZeroBalance       = "NON_ZERO_BALANCE"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeLockTimeout          = "LOCK_TIMEOUT"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrCurrencyMismatch    = NewDomainError(CodeCurrencyMismatch, "Amounts have different currencies")
	ErrMixedCurrencyLines  = NewDomainError(CodeMixedCurrencyLines, "Sale lines use more than one currency")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrOverpaymentRejected = NewDomainError(CodeOverpaymentRejected, "Payment exceeds the amount owed")
	ErrDebtAlreadySettled  = NewDomainError(CodeDebtAlreadySettled, "Debt has already been settled")
	ErrNonZeroBalance      = NewDomainError(CodeNonZeroBalance, "Debt balance is not zero")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Status transition is not allowed")
	ErrLockTimeout         = NewDomainError(CodeLockTimeout, "Could not acquire lock within the bounded wait")
)
