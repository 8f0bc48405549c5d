package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and a user-safe
// message. Domain groups errors for the response envelope ("auth", "user",
// "generic"). The wrapped error carries internal detail for logs only.
type DomainError struct {
	Code    string
	Domain  string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on code so wrapped copies compare equal to their sentinel.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, domain, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Domain:  domain,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Domain:  domainErr.Domain,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// Login failures: unknown email and wrong password share one error on
	// purpose so callers cannot enumerate accounts.
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "auth", "invalid credentials")

	// Signup collision, whether caught by the pre-check or by the database
	// unique-index backstop.
	ErrDuplicateIdentity = NewDomainError("DUPLICATE_IDENTITY", "user", "email already exists")

	// Misconfigured TTL string. Fatal at startup; must never occur at
	// request time.
	ErrInvalidExpiryFormat = NewDomainError("INVALID_EXPIRY_FORMAT", "auth", "invalid expiry time")

	// Authenticate-time rejections. Distinct and loggable, unlike login
	// failures.
	ErrTokenRevoked     = NewDomainError("TOKEN_REVOKED", "auth", "revoked token")
	ErrIdentityNotFound = NewDomainError("IDENTITY_NOT_FOUND", "user", "user not found")

	// Malformed or expired signed token, rejected before the orchestrator
	// is reached.
	ErrInvalidToken = NewDomainError("INVALID_TOKEN", "auth", "invalid or expired token")

	// Authentication errors at the transport boundary
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "auth", "unauthorized")

	// System errors
	ErrInternal = NewDomainError("INTERNAL_ERROR", "generic", "internal server error")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "DUPLICATE_IDENTITY":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "INVALID_CREDENTIALS", "UNAUTHORIZED", "INVALID_TOKEN",
		"TOKEN_REVOKED", "IDENTITY_NOT_FOUND":
		return http.StatusUnauthorized

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts the user-safe error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}

// GetErrorDomain returns the error's domain tag, defaulting to "generic"
func GetErrorDomain(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Domain
	}
	return "generic"
}
