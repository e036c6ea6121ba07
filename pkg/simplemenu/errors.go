package simplemenu

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrObjectNotFound indicates an object was not found in the store
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnsupportedExtension indicates a file extension outside the allow-list
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrFileTooLarge indicates an upload above the size cap
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFiles indicates an upload request without files
	ErrNoFiles = errors.New("no files to upload")
)

// ValidationError reports bad input: extension, size, missing or malformed field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a failed object store call.
type UpstreamError struct {
	Op  string
	Key string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an expected object that is absent.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object %s not found", e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// upstream wraps a store error, keeping not-found distinguishable.
func upstream(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return &NotFoundError{Key: key}
	}
	return &UpstreamError{Op: op, Key: key, Err: err}
}
