package user

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("user not found")

// ErrInvalidCredentials covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

var ErrConflict = errors.New("user already exists")

// ConflictError reports which unique field collided.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func NewConflict(field string) *ConflictError {
	return &ConflictError{Field: field}
}

type ValidationError struct {
	Field   string
	Rule    string
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}
