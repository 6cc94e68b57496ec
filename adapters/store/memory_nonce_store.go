package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/layer-3/flowkey/core"
)

const nonceShards = 32

type nonceShard struct {
	mu      sync.Mutex
	entries map[string]core.Nonce
}

// MemoryNonceStore is an in-memory NonceStore. Addresses are spread over
// independently locked shards so every address is serialized on exactly one
// mutex.
type MemoryNonceStore struct {
	shards [nonceShards]*nonceShard
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryNonceStore creates a nonce store whose challenges live for ttl
func NewMemoryNonceStore(ttl time.Duration) *MemoryNonceStore {
	s := &MemoryNonceStore{ttl: ttl, now: time.Now}
	for i := range s.shards {
		s.shards[i] = &nonceShard{entries: make(map[string]core.Nonce)}
	}
	return s
}

// WithClock replaces the time source; used by tests.
func (s *MemoryNonceStore) WithClock(now func() time.Time) *MemoryNonceStore {
	s.now = now
	return s
}

func (s *MemoryNonceStore) shard(address string) *nonceShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(address))
	return s.shards[h.Sum32()%nonceShards]
}

// Issue generates a new nonce for address and overwrites the previous one
func (s *MemoryNonceStore) Issue(ctx context.Context, address string) (core.Nonce, error) {
	nonce, err := core.NewNonce(s.now(), s.ttl)
	if err != nil {
		return core.Nonce{}, err
	}

	sh := s.shard(address)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entries[address] = nonce
	return nonce, nil
}

// Peek returns the current nonce for address without consuming it
func (s *MemoryNonceStore) Peek(ctx context.Context, address string) (core.Nonce, error) {
	sh := s.shard(address)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	return s.lookup(sh, address)
}

// Take returns the current nonce for address and deletes it
func (s *MemoryNonceStore) Take(ctx context.Context, address string) (core.Nonce, error) {
	sh := s.shard(address)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	nonce, err := s.lookup(sh, address)
	if err != nil {
		return core.Nonce{}, err
	}
	delete(sh.entries, address)
	return nonce, nil
}

// lookup must be called with sh.mu held. Expired entries are dropped.
func (s *MemoryNonceStore) lookup(sh *nonceShard, address string) (core.Nonce, error) {
	nonce, ok := sh.entries[address]
	if !ok {
		return core.Nonce{}, core.ErrNoChallengePending
	}
	if nonce.Expired(s.now()) {
		delete(sh.entries, address)
		return core.Nonce{}, core.ErrNoChallengePending
	}
	return nonce, nil
}

// Sweep removes every nonce that expired before now and returns how many
// were dropped
func (s *MemoryNonceStore) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for addr, nonce := range sh.entries {
			if nonce.Expired(now) {
				delete(sh.entries, addr)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of outstanding nonces, expired or not
func (s *MemoryNonceStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
