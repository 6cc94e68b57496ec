package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/layer-3/flowkey/core"
	bolt "go.etcd.io/bbolt"
)

var revokedBucket = []byte("revoked")

// BoltStore keeps the revocation denylist in a local bbolt file, so a single
// instance remembers logouts across restarts. Values are the expiry time.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBoltStore opens or creates the database at path
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %v", path, core.ErrStoreOperationFailed, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(revokedBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w: %v", core.ErrStoreOperationFailed, err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// WithClock replaces the time source; used by tests.
func (s *BoltStore) WithClock(now func() time.Time) *BoltStore {
	s.now = now
	return s
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// InvalidateToken marks tokenID revoked until expiry has elapsed
func (s *BoltStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	until := s.now().Add(expiry)

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(revokedBucket)
		if prev := b.Get([]byte(tokenID)); prev != nil && decodeTime(prev).After(until) {
			return nil
		}
		return b.Put([]byte(tokenID), encodeTime(until))
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate token: %w: %v", core.ErrStoreOperationFailed, err)
	}

	return nil
}

func (s *BoltStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	var until time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(revokedBucket).Get([]byte(tokenID)); v != nil {
			until = decodeTime(v)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w: %v", core.ErrStoreOperationFailed, err)
	}

	return !until.IsZero() && s.now().Before(until), nil
}

// Sweep deletes entries whose token has expired by now. A failed sweep
// removes nothing and reports 0; TrySweep exposes the error.
func (s *BoltStore) Sweep(now time.Time) int {
	removed, err := s.TrySweep(now)
	if err != nil {
		return 0
	}
	return removed
}

// TrySweep is Sweep with the transaction error. The count is only non-zero
// when the deletions were committed.
func (s *BoltStore) TrySweep(now time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(revokedBucket)

		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if !now.Before(decodeTime(v)) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sweep revocations: %w: %v", core.ErrStoreOperationFailed, err)
	}

	return removed, nil
}

func encodeTime(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixNano()))
	return buf
}

func decodeTime(b []byte) time.Time {
	if len(b) != 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(b)))
}
