package dto

import (
	"net/http"

	"github.com/erp/procurement/internal/domain/shared"
)

// API error codes. Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRequest    = "ERR_DUPLICATE_REQUEST"

	// ErrCodeOverReceipt is returned when receiving more units than are outstanding
	ErrCodeOverReceipt = "ERR_OVER_RECEIPT"

	// ErrCodeUpstream is returned when the commerce catalog or object storage fails
	ErrCodeUpstream = "ERR_UPSTREAM"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	ErrCodeOverReceipt: http.StatusUnprocessableEntity,
	ErrCodeUpstream:    http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps shared.DomainError codes to API codes
var domainCodeMapping = map[string]string{
	shared.CodeValidation:          ErrCodeValidation,
	shared.CodeNotFound:            ErrCodeNotFound,
	shared.CodeAlreadyExists:       ErrCodeAlreadyExists,
	shared.CodeOverReceipt:         ErrCodeOverReceipt,
	shared.CodeUpstream:            ErrCodeUpstream,
	shared.CodeConcurrencyConflict: ErrCodeConcurrencyConflict,
	shared.CodeDuplicateRequest:    ErrCodeDuplicateRequest,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Codes already in API form, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
