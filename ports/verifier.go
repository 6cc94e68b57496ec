package ports

// Verifier checks wallet signatures. Implementations never return errors:
// anything malformed is simply not a valid signature.
type Verifier interface {
	// Scheme names the key scheme, e.g. "solana" or "evm"
	Scheme() string

	// ValidAddress reports whether address parses as a public key of this scheme
	ValidAddress(address string) bool

	// Verify reports whether signature is address's signature over message
	Verify(address, signature, message string) bool
}
