package service

import (
	"errors"
	"fmt"

	"marketplace-service/internal/repository"
)

var (
	// ErrNotAuthenticated is returned when no identity is present on the request
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrProfileMissing is returned when the identity has no profile row
	ErrProfileMissing = errors.New("profile missing for identity")

	// ErrForbidden is returned when the caller does not own the record or lacks the role
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a record that must be unique already exists
	ErrConflict = errors.New("already exists")

	// ErrInvalidTransition is returned when an order cannot move to the requested status
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RemoteWriteError wraps a failure of the data store
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// PartialUploadError reports an image batch that was dropped because one
// upload failed. The record it belongs to was still saved.
type PartialUploadError struct {
	File  string
	Total int
	Err   error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("image %q failed to upload, %d image(s) not attached: %v", e.File, e.Total, e.Err)
}

func (e *PartialUploadError) Unwrap() error {
	return e.Err
}

// storeErr maps a repository error onto the service taxonomy
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if isDomain(err) {
		return err
	}
	return &RemoteWriteError{Op: op, Err: err}
}

// isDomain reports whether err already belongs to the service taxonomy
func isDomain(err error) bool {
	for _, sentinel := range []error{ErrNotAuthenticated, ErrProfileMissing, ErrForbidden, ErrNotFound, ErrConflict, ErrInvalidTransition} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var validation *ValidationError
	var remote *RemoteWriteError
	return errors.As(err, &validation) || errors.As(err, &remote)
}
