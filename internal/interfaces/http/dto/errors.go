package dto

import (
	"net/http"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from the shared package and
// pass through unchanged so clients see one stable taxonomy.
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Validation failures are 400, missing resources 404, state conflicts 409
// and business rule rejections 422. LOCK_TIMEOUT maps to 409 because it is
// the one code a client should retry.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:    http.StatusBadRequest,
	shared.CodeNotFound:      http.StatusNotFound,
	shared.CodeAlreadyExists: http.StatusConflict,
	shared.CodeLockTimeout:   http.StatusConflict,

	shared.CodeCurrencyMismatch:     http.StatusUnprocessableEntity,
	shared.CodeMixedCurrencyLines:   http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:    http.StatusUnprocessableEntity,
	shared.CodeInsufficientQuantity: http.StatusUnprocessableEntity,
	shared.CodeFractionalQuantity:   http.StatusUnprocessableEntity,
	shared.CodeOverpaymentRejected:  http.StatusUnprocessableEntity,
	shared.CodeDebtAlreadySettled:   http.StatusUnprocessableEntity,
	shared.CodeNonZeroBalance:       http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition:    http.StatusUnprocessableEntity,

	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeInternal:   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes fall back to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
