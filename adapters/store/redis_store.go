package store

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/flowkey/core"
	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "flowkey:revoked:"

// RedisStore keeps the revocation denylist in Redis. Each revoked token ID is
// a key that lives exactly as long as the token it blocks.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis revocation store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: revokedPrefix,
	}
}

func (s *RedisStore) key(tokenID string) string {
	return s.prefix + tokenID
}

// InvalidateToken denylists tokenID for expiry. A second call never shortens
// an existing entry, and an already expired token needs none.
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}

	// PTTL is negative when the key is missing
	remaining, err := s.client.PTTL(ctx, s.key(tokenID)).Result()
	if err != nil {
		return fmt.Errorf("failed to read revocation ttl: %w: %v", core.ErrStoreOperationFailed, err)
	}
	if remaining >= expiry {
		return nil
	}

	if err := s.client.Set(ctx, s.key(tokenID), time.Now().Unix(), expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w: %v", core.ErrStoreOperationFailed, err)
	}

	return nil
}

// IsTokenInvalidated reports whether tokenID is on the denylist
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w: %v", core.ErrStoreOperationFailed, err)
	}
	return n > 0, nil
}
