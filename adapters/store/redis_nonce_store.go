package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/flowkey/core"
	"github.com/redis/go-redis/v9"
)

// RedisNonceStore keeps challenges in Redis so several instances can share them.
// Expiry is delegated to the key TTL.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisNonceStore creates a Redis-backed nonce store
func NewRedisNonceStore(client *redis.Client, ttl time.Duration) *RedisNonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "flowkey:nonce:",
		ttl:    ttl,
	}
}

// Issue generates a nonce and stores it, replacing the previous one
func (s *RedisNonceStore) Issue(ctx context.Context, address string) (core.Nonce, error) {
	nonce, err := core.NewNonce(time.Now(), s.ttl)
	if err != nil {
		return core.Nonce{}, err
	}

	payload, err := json.Marshal(nonce)
	if err != nil {
		return core.Nonce{}, fmt.Errorf("failed to marshal nonce: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+address, payload, s.ttl).Err(); err != nil {
		return core.Nonce{}, fmt.Errorf("failed to store nonce: %w: %v", core.ErrStoreOperationFailed, err)
	}

	return nonce, nil
}

// Peek reads the current nonce for address
func (s *RedisNonceStore) Peek(ctx context.Context, address string) (core.Nonce, error) {
	raw, err := s.client.Get(ctx, s.prefix+address).Bytes()
	return s.decode(raw, err)
}

// Take reads and deletes the current nonce with a single GETDEL
func (s *RedisNonceStore) Take(ctx context.Context, address string) (core.Nonce, error) {
	raw, err := s.client.GetDel(ctx, s.prefix+address).Bytes()
	return s.decode(raw, err)
}

func (s *RedisNonceStore) decode(raw []byte, err error) (core.Nonce, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Nonce{}, core.ErrNoChallengePending
		}
		return core.Nonce{}, fmt.Errorf("failed to read nonce: %w: %v", core.ErrStoreOperationFailed, err)
	}

	var nonce core.Nonce
	if err := json.Unmarshal(raw, &nonce); err != nil {
		return core.Nonce{}, fmt.Errorf("failed to decode nonce: %w: %v", core.ErrStoreOperationFailed, err)
	}
	if nonce.Expired(time.Now()) {
		return core.Nonce{}, core.ErrNoChallengePending
	}

	return nonce, nil
}
