package flowkey

import (
	"context"

	"github.com/layer-3/flowkey/core"
)

// Signer is a wallet able to answer challenges
type Signer interface {
	// Address returns the encoded public address the server knows the wallet by
	Address() string

	// SignMessage signs the UTF-8 bytes of message and returns the encoded signature
	SignMessage(message string) (string, error)
}

// Session represents the public interface for talking to a flowkey server
type Session interface {
	// Challenge asks the server for a nonce bound to the signer's address
	Challenge(ctx context.Context) (string, error)

	// Login signs a fresh challenge and stores the returned session token
	Login(ctx context.Context) (string, error)

	// Me returns the profile of the logged in wallet
	Me(ctx context.Context) (*core.Profile, error)

	// Logout revokes the stored session token
	Logout(ctx context.Context) error
}

var _ Session = (*Client)(nil)
