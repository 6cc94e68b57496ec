package verifier

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type solanaKey struct {
	address string
	priv    ed25519.PrivateKey
}

func newSolanaKey(t *testing.T) solanaKey {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return solanaKey{address: base58.Encode(pub), priv: priv}
}

func (k solanaKey) sign(message string) string {
	return base58.Encode(ed25519.Sign(k.priv, []byte(message)))
}

func TestEd25519Verifier_Valid(t *testing.T) {
	v := NewEd25519Verifier()
	key := newSolanaKey(t)

	assert.True(t, v.ValidAddress(key.address))
	assert.True(t, v.Verify(key.address, key.sign("482913"), "482913"))
}

func TestEd25519Verifier_Rejections(t *testing.T) {
	v := NewEd25519Verifier()
	key := newSolanaKey(t)
	other := newSolanaKey(t)
	message := "482913"
	sig := key.sign(message)

	rawSig, err := base58.Decode(sig)
	require.NoError(t, err)
	rawSig[10] ^= 0x01
	flipped := base58.Encode(rawSig)

	tests := []struct {
		name      string
		address   string
		signature string
		message   string
	}{
		{"bit flip in signature", key.address, flipped, message},
		{"different message", key.address, sig, "482914"},
		{"signature from another key", key.address, other.sign(message), message},
		{"signature checked against another key", other.address, sig, message},
		{"garbage base58 signature", key.address, "0OIl-not-base58", message},
		{"truncated signature", key.address, sig[:20], message},
		{"empty signature", key.address, "", message},
		{"address too short", base58.Encode([]byte("short")), sig, message},
		{"address wrong length", "addr1", sig, message},
		{"address not base58", "0xaddr", sig, message},
		{"empty address", "", sig, message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, v.Verify(tt.address, tt.signature, tt.message))
		})
	}
}

func TestEd25519Verifier_InvalidAddress(t *testing.T) {
	v := NewEd25519Verifier()

	assert.False(t, v.ValidAddress(""))
	assert.False(t, v.ValidAddress("addr-never-challenged"))
	assert.False(t, v.ValidAddress(base58.Encode(make([]byte, 31))))
}

func signEVM(t *testing.T, message string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestEVMVerifier_Valid(t *testing.T) {
	v := NewEVMVerifier()
	address, sig := signEVM(t, "482913")

	assert.True(t, v.ValidAddress(address))
	assert.True(t, v.Verify(address, sig, "482913"))
}

func TestEVMVerifier_Rejections(t *testing.T) {
	v := NewEVMVerifier()
	address, sig := signEVM(t, "482913")
	otherAddress, _ := signEVM(t, "482913")

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	raw[5] ^= 0x01

	assert.False(t, v.Verify(address, hexutil.Encode(raw), "482913"))
	assert.False(t, v.Verify(address, sig, "482914"))
	assert.False(t, v.Verify(otherAddress, sig, "482913"))
	assert.False(t, v.Verify(address, "0xzz", "482913"))
	assert.False(t, v.Verify(address, sig[:40], "482913"))
	assert.False(t, v.Verify("not-an-address", sig, "482913"))
}

func TestMulti_Dispatch(t *testing.T) {
	m, err := FromNames([]string{SchemeSolana, SchemeEVM})
	require.NoError(t, err)

	sol := newSolanaKey(t)
	evmAddress, evmSig := signEVM(t, "nonce")

	assert.True(t, m.Verify(sol.address, sol.sign("nonce"), "nonce"))
	assert.True(t, m.Verify(evmAddress, evmSig, "nonce"))
	assert.False(t, m.Verify(evmAddress, sol.sign("nonce"), "nonce"))
	assert.False(t, m.ValidAddress("addr1"))
}

func TestMulti_OnlyEnabledSchemes(t *testing.T) {
	m, err := FromNames([]string{SchemeSolana})
	require.NoError(t, err)

	evmAddress, evmSig := signEVM(t, "nonce")
	assert.False(t, m.ValidAddress(evmAddress))
	assert.False(t, m.Verify(evmAddress, evmSig, "nonce"))
}

func TestFromNames_Errors(t *testing.T) {
	_, err := FromNames(nil)
	assert.Error(t, err)

	_, err = FromNames([]string{"bitcoin"})
	assert.Error(t, err)
}
