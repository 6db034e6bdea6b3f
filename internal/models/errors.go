package models

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSlugTaken          = errors.New("slug already in use")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PublicFaultMessage is the only description of a store fault shown to clients.
const PublicFaultMessage = "Unexpected error"

// StoreError wraps an unexpected failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError wraps err as a store fault raised by op.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PublicMessage returns the client-safe description of the fault.
func (e *StoreError) PublicMessage() string {
	return PublicFaultMessage
}

// IsStoreError reports whether err is, or wraps, a store fault.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}
