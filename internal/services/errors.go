package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid         ErrorCode = "invalid"
	ErrorNotFound        ErrorCode = "not_found"
	ErrorConflict        ErrorCode = "conflict"
	ErrorUnauthorized    ErrorCode = "unauthorized"
	ErrorTooManyRequests ErrorCode = "too_many_requests"
)

// ServiceError carries a machine-readable code next to a message key that the
// HTTP layer translates for the caller's locale.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewTooManyRequestsError(msg string) error {
	return &ServiceError{Code: ErrorTooManyRequests, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found service error.
func IsNotFound(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorNotFound
}

// IsConflict reports whether err is a conflict service error.
func IsConflict(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorConflict
}
