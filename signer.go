package flowkey

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"

	"github.com/layer-3/flowkey/adapters/verifier"
)

// Ed25519Signer signs challenges with a Solana style keypair
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

// GenerateEd25519Signer creates a signer around a fresh random keypair
func GenerateEd25519Signer() (*Ed25519Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &Ed25519Signer{key: priv}, nil
}

// Ed25519SignerFromBase58 accepts either a 64 byte secret key (seed || public
// key, the format wallets export) or a bare 32 byte seed.
func Ed25519SignerFromBase58(secret string) (*Ed25519Signer, error) {
	raw, err := base58.Decode(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return &Ed25519Signer{key: ed25519.NewKeyFromSeed(raw)}, nil
	case ed25519.PrivateKeySize:
		key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if !key.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
			return nil, fmt.Errorf("secret key does not match its public half")
		}
		return &Ed25519Signer{key: key}, nil
	default:
		return nil, fmt.Errorf("secret must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func (s *Ed25519Signer) Address() string {
	return base58.Encode(s.key.Public().(ed25519.PublicKey))
}

func (s *Ed25519Signer) SignMessage(message string) (string, error) {
	return base58.Encode(ed25519.Sign(s.key, []byte(message))), nil
}

// Secret exports the 64 byte secret key in base58
func (s *Ed25519Signer) Secret() string {
	return base58.Encode(s.key)
}

// EVMSigner signs challenges with personal_sign over a secp256k1 key
type EVMSigner struct {
	key *ecdsa.PrivateKey
}

func GenerateEVMSigner() (*EVMSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return &EVMSigner{key: key}, nil
}

// EVMSignerFromHex loads a hex private key, with or without 0x
func EVMSignerFromHex(secret string) (*EVMSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(secret), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	return &EVMSigner{key: key}, nil
}

func (s *EVMSigner) Address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

// SignMessage returns a 0x hex [R || S || V] signature with V in 27/28 form
func (s *EVMSigner) SignMessage(message string) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), s.key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Secret exports the private key as 0x hex
func (s *EVMSigner) Secret() string {
	return hexutil.Encode(crypto.FromECDSA(s.key))
}

// KeySigner is a Signer whose key can be exported again
type KeySigner interface {
	Signer
	Secret() string
}

// GenerateSigner creates a random signer for scheme
func GenerateSigner(scheme string) (KeySigner, error) {
	switch scheme {
	case verifier.SchemeSolana:
		s, err := GenerateEd25519Signer()
		if err != nil {
			return nil, err
		}
		return s, nil
	case verifier.SchemeEVM:
		s, err := GenerateEVMSigner()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown scheme %q", scheme)
	}
}

// LoadSigner restores a signer for scheme from its exported secret
func LoadSigner(scheme, secret string) (KeySigner, error) {
	switch scheme {
	case verifier.SchemeSolana:
		s, err := Ed25519SignerFromBase58(secret)
		if err != nil {
			return nil, err
		}
		return s, nil
	case verifier.SchemeEVM:
		s, err := EVMSignerFromHex(secret)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown scheme %q", scheme)
	}
}
