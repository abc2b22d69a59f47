package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSourceUnavailable     ErrorType = "SOURCE_UNAVAILABLE"
	ErrTypeRecordExtraction      ErrorType = "RECORD_EXTRACTION"
	ErrTypeInsufficientHistory   ErrorType = "INSUFFICIENT_HISTORY"
	ErrTypeMissingConversionRate ErrorType = "MISSING_CONVERSION_RATE"
	ErrTypeParsing               ErrorType = "PARSING"
	ErrTypeStorage               ErrorType = "STORAGE"
	ErrTypeValidation            ErrorType = "VALIDATION"
	ErrTypeNotFound              ErrorType = "NOT_FOUND"
	ErrTypeConfig                ErrorType = "CONFIG"
	ErrTypeCalculation           ErrorType = "CALCULATION"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError of the same type, so callers can test
// against a bare &AppError{Type: ...} target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Fatal reports whether this error type must abort a batch run.
// Everything else is recovered per record or per region.
func (e *AppError) Fatal() bool {
	switch e.Type {
	case ErrTypeSourceUnavailable, ErrTypeConfig, ErrTypeStorage:
		return true
	default:
		return false
	}
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the ErrorType of the first AppError in the chain.
// ok is false when err carries no AppError.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fatal()
	}
	return err != nil
}

// Helper functions for common error types

// NewSourceUnavailableError reports a missing or unreadable input file
func NewSourceUnavailableError(path string, cause error) *AppError {
	return NewAppError(ErrTypeSourceUnavailable, fmt.Sprintf("source %s unavailable", path), cause).
		WithContext("path", path)
}

// NewExtractionError reports a single malformed record
func NewExtractionError(region string, year int, cause error) *AppError {
	return NewAppError(ErrTypeRecordExtraction, fmt.Sprintf("cannot extract %s/%d", region, year), cause).
		WithContext("region", region).
		WithContext("year", year)
}

// NewInsufficientHistoryError reports a series too short to model
func NewInsufficientHistoryError(series string, points int) *AppError {
	return NewAppError(ErrTypeInsufficientHistory, fmt.Sprintf("%s has %d points", series, points), nil).
		WithContext("points", points)
}

// NewMissingRateError reports a year absent from the exchange rate table
func NewMissingRateError(year int) *AppError {
	return NewAppError(ErrTypeMissingConversionRate, fmt.Sprintf("no exchange rate for %d", year), nil).
		WithContext("year", year)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewCalculationError creates a model fitting or numeric error
func NewCalculationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeCalculation, message, cause)
}
