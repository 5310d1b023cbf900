// Package store persists operator defined SS58 networks in a bbolt database.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pinch-protocol/ss58/internal/address"
	"github.com/pinch-protocol/ss58/internal/registry"
)

var (
	networksBucket = []byte("networks")

	ErrNetworkNotFound = errors.New("network not found")
	ErrReservedPrefix  = errors.New("prefix is reserved")
)

type networkEntry struct {
	registry.Network
	RegisteredAt int64 `json:"registeredAt"` // Unix seconds
}

// NetworkStore is a bbolt-backed registry of operator defined networks.
// It satisfies registry.Registry.
type NetworkStore struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenDB opens (creating if needed) the bbolt file at path.
func OpenDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

// NewNetworkStore creates or opens the networks bucket in the given database.
func NewNetworkStore(db *bolt.DB) (*NetworkStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(networksBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &NetworkStore{db: db, now: time.Now}, nil
}

func prefixKey(prefix int) []byte {
	var k [2]byte
	binary.BigEndian.PutUint16(k[:], uint16(prefix))
	return k[:]
}

// Put stores or replaces the network registered under n.Prefix.
func (s *NetworkStore) Put(n registry.Network) error {
	if err := registry.Validate(n); err != nil {
		return err
	}
	if registry.IsReserved(n.Prefix) {
		return fmt.Errorf("%w: %d", ErrReservedPrefix, n.Prefix)
	}
	data, err := json.Marshal(networkEntry{Network: n, RegisteredAt: s.now().Unix()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(networksBucket).Put(prefixKey(n.Prefix), data)
	})
}

// Get returns the network stored under prefix or ErrNetworkNotFound.
func (s *NetworkStore) Get(prefix int) (registry.Network, error) {
	if !address.ValidPrefix(prefix) {
		return registry.Network{}, ErrNetworkNotFound
	}
	var entry networkEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(networksBucket).Get(prefixKey(prefix))
		if data == nil {
			return ErrNetworkNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return registry.Network{}, err
	}
	return entry.Network, nil
}

// Delete removes the network stored under prefix.
func (s *NetworkStore) Delete(prefix int) error {
	if !address.ValidPrefix(prefix) {
		return ErrNetworkNotFound
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(networksBucket)
		if b.Get(prefixKey(prefix)) == nil {
			return ErrNetworkNotFound
		}
		return b.Delete(prefixKey(prefix))
	})
}

// List returns every stored network ordered by prefix.
func (s *NetworkStore) List() ([]registry.Network, error) {
	var out []registry.Network
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(networksBucket).ForEach(func(_, v []byte) error {
			var entry networkEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			out = append(out, entry.Network)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup implements registry.Registry.
func (s *NetworkStore) Lookup(prefix int) (registry.Network, bool) {
	n, err := s.Get(prefix)
	return n, err == nil
}

// IsKnown implements registry.Registry and address.Registry.
func (s *NetworkStore) IsKnown(prefix int) bool {
	if !address.ValidPrefix(prefix) {
		return false
	}
	var found bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(networksBucket).Get(prefixKey(prefix)) != nil
		return nil
	})
	return found
}

// SweepOlderThan removes networks registered before now minus ttl and
// returns how many were removed. Malformed entries are removed as well.
func (s *NetworkStore) SweepOlderThan(ttl time.Duration) (int, error) {
	cutoff := s.now().Add(-ttl).Unix()
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(networksBucket)
		var toDelete [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var entry networkEntry
			if err := json.Unmarshal(v, &entry); err != nil || entry.RegisteredAt < cutoff {
				toDelete = append(toDelete, append([]byte{}, k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(toDelete)
		return nil
	})
	return removed, err
}
