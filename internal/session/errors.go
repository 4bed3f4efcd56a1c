package session

import (
	"fmt"
	"strings"
)

// ValidationError lists every field rule the input broke. It is returned
// before any collaborator call is made.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// AuthError means the authentication collaborator rejected the request or
// could not be reached. Message is the collaborator's text.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// DuplicateAccountError is returned by Register when the email is taken.
type DuplicateAccountError struct {
	Email   string
	Message string
	Err     error
}

func (e *DuplicateAccountError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("an account with email %s already exists", e.Email)
}

func (e *DuplicateAccountError) Unwrap() error {
	return e.Err
}

// ResetError is a failed password reset step. Step is where the flow stayed.
type ResetError struct {
	Step    Step
	Message string
	Err     error
}

func (e *ResetError) Error() string {
	return fmt.Sprintf("password reset (%s): %s", e.Step, e.Message)
}

func (e *ResetError) Unwrap() error {
	return e.Err
}
