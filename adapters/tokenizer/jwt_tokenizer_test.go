package tokenizer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/flowkey/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-with-enough-entropy-0123456789")

func newSession(address string, issued time.Time, ttl time.Duration) *core.Session {
	return &core.Session{
		ID:        "jti-" + address,
		Address:   address,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(ttl),
	}
}

func TestJWTTokenizer_RoundTrip(t *testing.T) {
	tk := NewJWTTokenizer(testSecret)
	now := time.Now().Truncate(time.Second)

	token, err := tk.SessionToToken(newSession("addr1", now, time.Hour))
	require.NoError(t, err)

	session, err := tk.TokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, "addr1", session.Address)
	assert.Equal(t, "jti-addr1", session.ID)
	assert.True(t, session.ExpiresAt.Equal(now.Add(time.Hour)))
	assert.True(t, session.IssuedAt.Equal(now))
}

func TestJWTTokenizer_Expired(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	current := issued
	tk := NewJWTTokenizer(testSecret).WithClock(func() time.Time { return current })

	token, err := tk.SessionToToken(newSession("addr1", issued, time.Hour))
	require.NoError(t, err)

	current = issued.Add(59 * time.Minute)
	_, err = tk.TokenToSession(token)
	require.NoError(t, err)

	current = issued.Add(time.Hour + time.Second)
	_, err = tk.TokenToSession(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWTTokenizer_DifferentSecret(t *testing.T) {
	token, err := NewJWTTokenizer([]byte("another-secret")).SessionToToken(newSession("addr1", time.Now(), time.Hour))
	require.NoError(t, err)

	_, err = NewJWTTokenizer(testSecret).TokenToSession(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestJWTTokenizer_RejectsOtherAlgorithms(t *testing.T) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		PublicAddress: "addr1",
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = NewJWTTokenizer(testSecret).TokenToSession(hs512)
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewJWTTokenizer(testSecret).TokenToSession(none)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestJWTTokenizer_RequiresExpiryAndAddress(t *testing.T) {
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{PublicAddress: "addr1"}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = NewJWTTokenizer(testSecret).TokenToSession(noExp)
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	noAddr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = NewJWTTokenizer(testSecret).TokenToSession(noAddr)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestJWTTokenizer_Garbage(t *testing.T) {
	tk := NewJWTTokenizer(testSecret)

	for _, token := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := tk.TokenToSession(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken, token)
	}
}

func TestJWTTokenizer_RefusesEmptySession(t *testing.T) {
	_, err := NewJWTTokenizer(testSecret).SessionToToken(&core.Session{})
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}
