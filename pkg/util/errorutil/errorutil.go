package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to clients.
const (
	CodeValidationFailed           = "VALIDATION_FAILED"
	CodeInvalidCredentials         = "INVALID_CREDENTIALS"
	CodeDuplicateUsername          = "DUPLICATE_USERNAME"
	CodeNotFound                   = "NOT_FOUND"
	CodeCannotDeleteLastSuperAdmin = "CANNOT_DELETE_LAST_SUPER_ADMIN"
	CodeUnauthorized               = "UNAUTHORIZED"
	CodeForbidden                  = "FORBIDDEN"
	CodeStoreUnavailable           = "STORE_UNAVAILABLE"
	CodeTooManyRequests            = "TOO_MANY_REQUESTS"
	CodeInternal                   = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code, so that
// freshly constructed errors match the sentinels below with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCredentials         = NewDomainError(CodeInvalidCredentials, "invalid credentials", http.StatusUnauthorized, nil)
	ErrDuplicateUsername          = NewDomainError(CodeDuplicateUsername, "username already exists", http.StatusConflict, nil)
	ErrNotFound                   = NewDomainError(CodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrCannotDeleteLastSuperAdmin = NewDomainError(CodeCannotDeleteLastSuperAdmin, "cannot delete the last super admin", http.StatusConflict, nil)
	ErrForbidden                  = NewDomainError(CodeForbidden, "forbidden", http.StatusForbidden, nil)
	ErrStoreUnavailable           = NewDomainError(CodeStoreUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable, nil)
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid credentials", http.StatusUnauthorized, nil)
}

func NewDuplicateUsername() error {
	return NewDomainError(CodeDuplicateUsername, "username already exists", http.StatusConflict, nil)
}

func NewCannotDeleteLastSuperAdmin() error {
	return NewDomainError(CodeCannotDeleteLastSuperAdmin, "cannot delete the last super admin", http.StatusConflict, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewTooManyRequests(message string) error {
	return NewDomainError(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

// NewStoreUnavailable hides the persistence failure behind a generic message;
// the cause stays reachable through Unwrap for operator logs.
func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStoreUnavailable,
		Message:    "service temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError passes domain errors through and turns anything else into a
// StoreUnavailable error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewStoreUnavailable(err)
}
