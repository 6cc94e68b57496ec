package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NonceSize is the number of random bytes behind every challenge value.
const NonceSize = 32

// Nonce represents an outstanding authentication challenge for one address
type Nonce struct {
	Value     string    `json:"value"`      // Hex encoded random challenge to be signed
	IssuedAt  time.Time `json:"issued_at"`  // When the challenge was created
	ExpiresAt time.Time `json:"expires_at"` // When the challenge stops being accepted
}

// NewNonce draws a fresh challenge valid for ttl from now.
func NewNonce(now time.Time, ttl time.Duration) (Nonce, error) {
	b := make([]byte, NonceSize)
	if _, err := rand.Read(b); err != nil {
		return Nonce{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return Nonce{
		Value:     hex.EncodeToString(b),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Expired reports whether the challenge is past its freshness window at t.
func (n Nonce) Expired(t time.Time) bool {
	return !t.Before(n.ExpiresAt)
}

// Session represents an authenticated wallet session
type Session struct {
	ID        string    // Token identifier, used as the revocation key
	Address   string    // Wallet address the session is bound to
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session token stops being valid
}
