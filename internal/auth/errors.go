package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExchange indicates the provider or the network rejected the exchange
	ErrAuthExchange = errors.New("authorization exchange failed")

	// ErrMissingToken indicates a successful token response without access_token
	ErrMissingToken = errors.New("no access token received from provider")

	// ErrIdentityIncomplete indicates the identity record carries no email
	ErrIdentityIncomplete = errors.New("identity record has no email")

	// ErrStateMismatch indicates the callback state does not match the one issued to this session
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// ExchangeError carries the failing endpoint and, for HTTP failures, the
// status and body the provider returned. It matches ErrAuthExchange with errors.Is.
type ExchangeError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: %s endpoint returned status %d: %s", ErrAuthExchange, e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%v: %s endpoint: %v", ErrAuthExchange, e.Endpoint, e.Err)
}

func (e *ExchangeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthExchange}
	}
	return []error{ErrAuthExchange, e.Err}
}

// UserMessage returns a short text safe to show on the sign-in page
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStateMismatch):
		return "The sign-in request expired or did not come from this browser. Please sign in again."
	case errors.Is(err, ErrMissingToken):
		return "No access token received from Google."
	case errors.Is(err, ErrIdentityIncomplete):
		return "Google did not return an email address for this account."
	case errors.Is(err, ErrAuthExchange):
		return "Error exchanging code for token. Please sign in again."
	default:
		return "Sign-in failed. Please try again."
	}
}
