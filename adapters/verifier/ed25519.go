package verifier

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// SchemeSolana identifies base58 encoded Ed25519 public keys
const SchemeSolana = "solana"

// Ed25519Verifier checks detached Ed25519 signatures for base58 addresses.
type Ed25519Verifier struct{}

func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

func (v *Ed25519Verifier) Scheme() string {
	return SchemeSolana
}

func (v *Ed25519Verifier) ValidAddress(address string) bool {
	_, ok := decodePublicKey(address)
	return ok
}

// Verify checks a base58 signature over the UTF-8 bytes of message
func (v *Ed25519Verifier) Verify(address, signature, message string) bool {
	pub, ok := decodePublicKey(address)
	if !ok {
		return false
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	return ed25519.Verify(pub, []byte(message), sig)
}

func decodePublicKey(address string) (ed25519.PublicKey, bool) {
	if address == "" {
		return nil, false
	}
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, false
	}
	return ed25519.PublicKey(raw), true
}
