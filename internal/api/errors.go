package api

import (
	"errors"
	"fmt"
	"net/http"
)

var errMissingToken = errors.New("no bearer token")

// StatusError is a non-2xx answer from the storefront API. Message is the
// body's human-readable message, meant to be shown verbatim.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// NetworkError means the API could not be reached or answered with something
// that is not JSON.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}

// Message returns the text a view should show for err.
func Message(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}
