package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound            = errors.New("entity not found")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrUnauthorized        = errors.New("authentication required")
	ErrForbidden           = errors.New("actor is not allowed to perform this operation")
	ErrSelfGuarantee       = errors.New("applicant cannot guarantee their own loan")
	ErrDuplicateRequest    = errors.New("a pending guarantee request to this guarantor already exists")
	ErrAlreadyCovered      = errors.New("loan application is already fully covered")
	ErrAlreadyResolved     = errors.New("guarantee request has already been resolved")
	ErrCapacityExceeded    = errors.New("guarantor capacity exceeded")
	ErrAmendmentNoteNeeded = errors.New("amendment note is required")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeSelfGuarantee     = "SELF_GUARANTEE_NOT_ALLOWED"
	ErrCodeDuplicateRequest  = "DUPLICATE_REQUEST"
	ErrCodeAlreadyCovered    = "ALREADY_COVERED"
	ErrCodeAlreadyResolved   = "ALREADY_RESOLVED"
	ErrCodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapNotFound(kind, reference string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s %s not found", kind, reference),
		ErrNotFound,
	)
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapInvalidTransition(action, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("action %s is not allowed while status is %s", action, status),
		ErrInvalidTransition,
	)
}

func WrapUnauthorized() *BusinessError {
	return NewBusinessError(ErrCodeUnauthorized, "authentication required", ErrUnauthorized)
}

func WrapForbidden(message string) *BusinessError {
	return NewBusinessError(ErrCodeForbidden, message, ErrForbidden)
}

func WrapSelfGuarantee(member string) *BusinessError {
	return NewBusinessError(
		ErrCodeSelfGuarantee,
		fmt.Sprintf("member %s cannot guarantee their own loan application", member),
		ErrSelfGuarantee,
	)
}

func WrapDuplicateRequest(guarantor string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateRequest,
		fmt.Sprintf("a pending guarantee request to guarantor %s already exists", guarantor),
		ErrDuplicateRequest,
	)
}

func WrapAlreadyCovered(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyCovered,
		fmt.Sprintf("loan application %s is already fully covered", reference),
		ErrAlreadyCovered,
	)
}

func WrapAlreadyResolved(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyResolved,
		fmt.Sprintf("guarantee request %s has already been resolved", reference),
		ErrAlreadyResolved,
	)
}

func WrapCapacityExceeded(guarantor, detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeCapacityExceeded,
		fmt.Sprintf("guarantor %s: %s", guarantor, detail),
		ErrCapacityExceeded,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
