package verifier

import (
	"fmt"

	"github.com/layer-3/flowkey/ports"
)

// Multi routes each address to the first enabled scheme that can parse it.
type Multi struct {
	schemes []ports.Verifier
}

// NewMulti combines verifiers; order decides precedence.
func NewMulti(schemes ...ports.Verifier) *Multi {
	return &Multi{schemes: schemes}
}

// FromNames builds a Multi from configured scheme names
func FromNames(names []string) (*Multi, error) {
	var schemes []ports.Verifier
	for _, name := range names {
		switch name {
		case SchemeSolana:
			schemes = append(schemes, NewEd25519Verifier())
		case SchemeEVM:
			schemes = append(schemes, NewEVMVerifier())
		default:
			return nil, fmt.Errorf("unknown signature scheme %q", name)
		}
	}
	if len(schemes) == 0 {
		return nil, fmt.Errorf("no signature scheme enabled")
	}
	return NewMulti(schemes...), nil
}

func (m *Multi) Scheme() string {
	return "multi"
}

func (m *Multi) resolve(address string) ports.Verifier {
	for _, s := range m.schemes {
		if s.ValidAddress(address) {
			return s
		}
	}
	return nil
}

func (m *Multi) ValidAddress(address string) bool {
	return m.resolve(address) != nil
}

func (m *Multi) Verify(address, signature, message string) bool {
	s := m.resolve(address)
	if s == nil {
		return false
	}
	return s.Verify(address, signature, message)
}
