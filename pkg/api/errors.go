package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any error caused by a missing or rejected session.
	ErrUnauthorized = errors.New("api: unauthorized")

	// ErrNoToken is returned when an authenticated call is attempted while signed out.
	ErrNoToken = fmt.Errorf("no session token: %w", ErrUnauthorized)

	// ErrMalformedResponse means a 2xx response body could not be decoded.
	ErrMalformedResponse = errors.New("api: malformed response")
)

// Error is a non-2xx answer from the service.
type Error struct {
	Op      string
	Status  int
	Message string // server-provided text, may be empty
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("api: %s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Is reports 401 responses as ErrUnauthorized. 403 is an ordinary rejection.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err means the session is missing or was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRejection reports whether err is a definitive non-2xx answer other than 401.
func IsRejection(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status != http.StatusUnauthorized
}

// ServerMessage returns the server's text for err when it sent one, otherwise fallback.
func ServerMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
