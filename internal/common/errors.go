package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Ingestion error taxonomy. Sentinels are matched with errors.Is by the
// transport layer when mapping aborts to HTTP statuses.
var (
	// ErrUnsupportedFormat is raised before any conversion work when the
	// declared media type is outside the accepted set.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrTextExtraction covers a Word document that cannot be parsed.
	ErrTextExtraction = errors.New("text extraction failed")

	// ErrExtractionService covers transport/auth/quota failures calling
	// the document-understanding service. Retryable by re-submitting.
	ErrExtractionService = errors.New("extraction service unavailable")

	// ErrExtractionParse means the service responded but its output
	// violated the response schema.
	ErrExtractionParse = errors.New("extraction response invalid")

	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
