package persistence

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketUndo = []byte("undo")
	keyBlob    = []byte("requests")
)

// Store wraps a bbolt database holding the undo manager's serialized state.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the persistence file undomgr.db inside
// dataDir and ensures its bucket exists.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "undomgr.db")
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketUndo)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save overwrites the stored blob with data.
func (s *Store) Save(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUndo).Put(keyBlob, data)
	})
}

// Load returns the stored blob, or (nil, nil) if nothing has been saved
// yet — a fresh daemon boots with an empty manager rather than an error.
func (s *Store) Load() ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUndo).Get(keyBlob)
		if v == nil {
			return nil
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	return data, err
}

// Ping verifies the underlying database still answers a read transaction.
// It is cheap enough to call from a health poller on a short interval.
func (s *Store) Ping() error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketUndo) == nil {
			return fmt.Errorf("persistence: bucket missing")
		}
		return nil
	})
}
