// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Session and credential errors.
	ErrNoCredentials  = errors.New("no credentials")
	ErrSessionExpired = errors.New("session expired")

	// Run lifecycle errors.
	ErrRunInProgress = errors.New("sync run already in progress")

	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user. Hint, when
// set, tells the operator how to fix the condition.
type UserError struct {
	Err         error
	UserMessage string
	Hint        string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserErrorWithHint creates a user-friendly error carrying a remediation hint.
func NewUserErrorWithHint(userMessage, hint string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Hint:        hint,
		Err:         err,
	}
}

// UserHint extracts the remediation hint from an error chain, if any.
func UserHint(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Hint
	}
	return ""
}
