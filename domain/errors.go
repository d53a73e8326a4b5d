// server/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("share link expired")
	ErrLocked       = errors.New("note is locked")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports malformed or missing input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DeletionError reports a cascade delete that could not complete. ID names the
// entity whose deletion was requested.
type DeletionError struct {
	Kind string
	ID   string
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}

// NotFoundf wraps ErrNotFound with the kind and id that failed to resolve.
func NotFoundf(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
