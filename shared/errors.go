package shared

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryDuplicate      ErrorCategory = "duplicate"
	ErrorCategoryUpstream       ErrorCategory = "upstream"
	ErrorCategoryStorage        ErrorCategory = "storage"
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewValidationError reports malformed or missing client input.
func NewValidationError(message, serviceName, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryValidation, "INVALID_INPUT", message, serviceName, operation, false, nil)
}

// NewAuthenticationError reports a request without a resolved identity.
func NewAuthenticationError(message, serviceName, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryAuthentication, "UNAUTHENTICATED", message, serviceName, operation, false, nil)
}

func NewNotFoundError(message, serviceName, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryNotFound, "NOT_FOUND", message, serviceName, operation, false, nil)
}

func NewDuplicateError(message, serviceName, operation string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryDuplicate, "DUPLICATE", message, serviceName, operation, false, cause)
}

// NewUpstreamUnavailableError reports that an external provider could not serve a request.
func NewUpstreamUnavailableError(message, serviceName, operation string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryUpstream, "UPSTREAM_UNAVAILABLE", message, serviceName, operation, true, cause)
}

// NewStorageError reports a persistence failure (I/O, connection, corrupt data).
func NewStorageError(serviceName, operation string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryStorage, "STORAGE_FAILURE", "storage operation failed", serviceName, operation, false, cause)
}

// HTTPStatus maps the error category to the status code returned by the API.
func (e *ServiceError) HTTPStatus() int {
	switch e.Category {
	case ErrorCategoryValidation, ErrorCategoryDuplicate:
		return http.StatusBadRequest
	case ErrorCategoryAuthentication:
		return http.StatusUnauthorized
	case ErrorCategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// CauseMessage returns the message of the innermost error, or the error's own message.
func (e *ServiceError) CauseMessage() string {
	if e.Cause == nil {
		return e.Message
	}
	var inner *ServiceError
	if errors.As(e.Cause, &inner) {
		return inner.CauseMessage()
	}
	return e.Cause.Error()
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	entry := logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"underlying_error": e.Cause,
	})
	switch e.Category {
	case ErrorCategoryUpstream:
		entry.Warn("Upstream provider error")
	default:
		if e.HTTPStatus() >= http.StatusInternalServerError {
			entry.Error("Service error occurred")
			return
		}
		entry.Debug("Request rejected")
	}
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return nil, false
}

// CategoryOf returns the category of the first ServiceError in the chain, or "" if there is none.
func CategoryOf(err error) ErrorCategory {
	if serviceErr, ok := AsServiceError(err); ok {
		return serviceErr.Category
	}
	return ""
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	// If it's already a ServiceError, just update the context
	if serviceErr, ok := err.(*ServiceError); ok {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}
