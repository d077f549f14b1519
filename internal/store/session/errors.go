package session

import (
	"errors"
	"fmt"

	"github.com/anhthuvo/storefront/internal/api"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// email/password pair. Transport failures surface as api.ErrUnavailable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// signupMessages maps backend error codes to fixed user-facing strings.
// This replaces the old substring sniffing of parameterized backend
// messages with an explicit code lookup.
var signupMessages = map[string]string{
	"password_policy":      "Password must contain at least 8 characters, one uppercase, one lowercase, one number",
	"email_already_exists": "An account with this email already exists",
}

// SignupError carries the backend error code and the user-facing message
// derived from it.
type SignupError struct {
	Code    string
	Message string
}

func (e *SignupError) Error() string {
	return fmt.Sprintf("signup failed (%s): %s", e.Code, e.Message)
}

func friendlySignupMessage(apiErr *api.Error) string {
	if msg, ok := signupMessages[apiErr.Code]; ok {
		return msg
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return "Signup failed. Please try again."
}
