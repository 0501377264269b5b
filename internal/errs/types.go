package errs

import (
	"fmt"
	"time"
)

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
	Fields map[string]string
}

// IncompleteDocumentMergeError means an approved document request lacks a sub-field
// its document group requires, so the group cannot be committed as a unit.
type IncompleteDocumentMergeError struct {
	ErrorMessage
	DocumentKey string
	Missing     []string
}

type UnknownPendingKeyError struct {
	ErrorMessage
	Key string
}

type AlreadyVerifiedError struct {
	ErrorMessage
}

type ExpiredError struct {
	ErrorMessage
}

type InvalidFormatError struct {
	ErrorMessage
}

type InvalidCodeError struct {
	ErrorMessage
}

type ResendTooSoonError struct {
	ErrorMessage
	RetryAfter time.Duration
}

type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type EncryptionError struct {
	ErrorMessage
	Err error
}

func (e *EncryptionError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

// NewFieldValidationError reports per-field failures from request validation.
func NewFieldValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: "request failed validation"},
		Fields:       fields,
	}
}

func NewIncompleteDocumentMergeError(documentKey string, missing []string) *IncompleteDocumentMergeError {
	return &IncompleteDocumentMergeError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("document %s is missing %v", documentKey, missing)},
		DocumentKey:  documentKey,
		Missing:      missing,
	}
}

func NewUnknownPendingKeyError(key string) *UnknownPendingKeyError {
	return &UnknownPendingKeyError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("no pending change for %q", key)},
		Key:          key,
	}
}

func NewAlreadyVerifiedError() *AlreadyVerifiedError {
	return &AlreadyVerifiedError{
		ErrorMessage: ErrorMessage{Message: "bank account already verified"},
	}
}

func NewExpiredError() *ExpiredError {
	return &ExpiredError{
		ErrorMessage: ErrorMessage{Message: "verification code expired, request a new code"},
	}
}

func NewInvalidFormatError(message string) *InvalidFormatError {
	return &InvalidFormatError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewInvalidCodeError() *InvalidCodeError {
	return &InvalidCodeError{
		ErrorMessage: ErrorMessage{Message: "verification code does not match"},
	}
}

func NewResendTooSoonError(retryAfter time.Duration) *ResendTooSoonError {
	return &ResendTooSoonError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("a new code can be requested in %ds", int(retryAfter.Seconds()))},
		RetryAfter:   retryAfter,
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewExternalServiceError(service, message string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}

func NewEncryptionError(message string, err error) *EncryptionError {
	return &EncryptionError{
		ErrorMessage: ErrorMessage{Message: message},
		Err:          err,
	}
}
