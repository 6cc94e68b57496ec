package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/layer-3/flowkey/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisNonceStore_IssuePeekTake(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisNonceStore(client, 5*time.Minute)

	first, err := s.Issue(ctx, "addr1")
	require.NoError(t, err)
	second, err := s.Issue(ctx, "addr1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Value, second.Value)

	assert.True(t, mr.Exists("flowkey:nonce:addr1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("flowkey:nonce:addr1"))

	peeked, err := s.Peek(ctx, "addr1")
	require.NoError(t, err)
	assert.Equal(t, second.Value, peeked.Value)

	taken, err := s.Take(ctx, "addr1")
	require.NoError(t, err)
	assert.Equal(t, second.Value, taken.Value)

	_, err = s.Peek(ctx, "addr1")
	assert.ErrorIs(t, err, core.ErrNoChallengePending)
}

func TestRedisNonceStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisNonceStore(client, time.Minute)

	_, err := s.Issue(ctx, "addr1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = s.Take(ctx, "addr1")
	assert.ErrorIs(t, err, core.ErrNoChallengePending)
}

func TestRedisNonceStore_BackendDown(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisNonceStore(client, time.Minute)
	mr.Close()

	_, err := s.Issue(ctx, "addr1")
	assert.ErrorIs(t, err, core.ErrStoreOperationFailed)

	_, err = s.Take(ctx, "addr1")
	assert.ErrorIs(t, err, core.ErrStoreOperationFailed)
}

func TestRedisStore_InvalidateToken(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisStore(client)

	revoked, err := s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.InvalidateToken(ctx, "jti-1", time.Hour))
	revoked, err = s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(time.Hour + time.Second)
	revoked, err = s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisStore_ShorterExpiryDoesNotShrink(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisStore(client)

	require.NoError(t, s.InvalidateToken(ctx, "jti-2", time.Hour))
	require.NoError(t, s.InvalidateToken(ctx, "jti-2", time.Minute))
	assert.Equal(t, time.Hour, mr.TTL(revokedPrefix+"jti-2"))

	require.NoError(t, s.InvalidateToken(ctx, "jti-3", 0))
	assert.False(t, mr.Exists(revokedPrefix+"jti-3"))
}

func TestRedisStore_BackendDown(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisStore(client)
	mr.Close()

	assert.ErrorIs(t, s.InvalidateToken(ctx, "jti", time.Hour), core.ErrStoreOperationFailed)

	_, err := s.IsTokenInvalidated(ctx, "jti")
	assert.ErrorIs(t, err, core.ErrStoreOperationFailed)
}
