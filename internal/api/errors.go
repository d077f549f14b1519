package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers 401/403 responses and GraphQL authorization
	// failures. The session layer treats it as "logged out".
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound covers 404 responses and GraphQL no-such-entity failures.
	// The cart layer treats it as an expired handle.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable covers transport failures and 5xx responses.
	ErrUnavailable = errors.New("backend unavailable")
)

// Error is a structured backend failure. Status is the HTTP status code (0
// for GraphQL-level errors), Code the backend's machine-readable error code
// when present, Message the human-readable message, and Parameters the
// message placeholders.
type Error struct {
	Status     int
	Code       string
	Message    string
	Parameters []any

	sentinel error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// Unwrap exposes the sentinel matching the failure class, so
// errors.Is(err, api.ErrUnauthorized) works on structured errors too.
func (e *Error) Unwrap() error {
	return e.sentinel
}

func sentinelForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}

func sentinelForCategory(category string) error {
	switch category {
	case "graphql-authorization", "graphql-authentication":
		return ErrUnauthorized
	case "graphql-no-such-entity":
		return ErrNotFound
	default:
		return nil
	}
}
