package service

import (
	"errors"
	"fmt"
)

// ValidationError carries a user-facing message naming the violated
// constraint. Handlers translate it to a 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ErrRateLimited maps to a 429. The window duration is deliberately not
// disclosed to the client.
var ErrRateLimited = errors.New("too many requests, please try again later")

// ErrMailNotConfigured maps to a 500; raised when the provider API key is
// absent.
var ErrMailNotConfigured = errors.New("mail provider is not configured")

// DispatchError wraps a provider failure. The detail is logged server-side;
// clients get a generic 500.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string { return "dispatch failed: " + e.Err.Error() }
func (e *DispatchError) Unwrap() error { return e.Err }
