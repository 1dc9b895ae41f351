package domain

import (
	"errors"
	"fmt"
)

// Configuration errors are fatal at startup.
var ErrConfig = errors.New("configuration error")

// Document errors are reported back to the caller as text, never raised past a turn.
var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyDocument     = errors.New("no text could be extracted")
	ErrNoDocuments       = errors.New("no ingestible documents")
)

// ErrNotUploaded indicates a filename that is not in the upload registry.
var ErrNotUploaded = errors.New("file not uploaded")

var (
	// ErrEmbeddingMismatch indicates an attempt to mix embedding models in one collection.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrInvalidToolCall indicates a tool call with an unknown name or malformed arguments.
	ErrInvalidToolCall = errors.New("invalid tool call")
)

// ServiceError wraps a failure of an external collaborator
// (completion service, embedding service or vector store).
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError returns nil when err is nil.
func NewServiceError(service string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Service: service, Err: err}
}

// IsDocumentError reports whether err belongs to the document error class.
func IsDocumentError(err error) bool {
	return errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrNoDocuments)
}
