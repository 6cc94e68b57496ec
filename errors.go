package flowkey

import (
	"errors"
	"fmt"

	"github.com/layer-3/flowkey/core"
)

var (
	// ErrUnexpectedResponse is returned when the server answers with a body the client cannot read
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrNotLoggedIn is returned when a session call is made before Login
	ErrNotLoggedIn = errors.New("not logged in")
)

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flowkey: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps the server message back to the domain error it was rendered from,
// so callers can use errors.Is(err, core.ErrInvalidSignature) and friends.
func (e *APIError) Unwrap() error {
	switch e.Message {
	case "Missing address", "Missing address or signature", "Invalid request":
		return core.ErrBadRequest
	case "Invalid address":
		return core.ErrInvalidAddress
	case "No challenge found":
		return core.ErrNoChallengePending
	case "Invalid signature":
		return core.ErrInvalidSignature
	case "Token expired":
		return core.ErrTokenExpired
	case "Token revoked":
		return core.ErrTokenRevoked
	case "Unauthorized":
		return core.ErrUnauthorized
	}
	return nil
}
