package ports

import (
	"context"
	"time"

	"github.com/layer-3/flowkey/core"
)

// NonceStore keeps at most one outstanding challenge per address
type NonceStore interface {
	// Issue mints a fresh nonce for address, replacing any previous one
	Issue(ctx context.Context, address string) (core.Nonce, error)

	// Peek returns the current nonce without consuming it
	Peek(ctx context.Context, address string) (core.Nonce, error)

	// Take returns the current nonce and removes it in one step
	Take(ctx context.Context, address string) (core.Nonce, error)
}

// RevocationStore interface for session token invalidation
type RevocationStore interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
