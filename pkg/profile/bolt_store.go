package profile

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"
)

// Bucket names for BoltDB storage
var profilesBucket = []byte("profiles")

// BoltStore is a Catalog persisted in a BoltDB file.
//
// BoltStore is safe for concurrent use by multiple goroutines. BoltDB runs read
// transactions concurrently and serializes write transactions, so no additional
// locking is needed.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// NewBoltStore opens or creates the catalog at path. A freshly created catalog
// is seeded with Defaults.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(profilesBucket)
		if err != nil {
			return fmt.Errorf("failed to create profiles bucket: %w", err)
		}
		if k, _ := bucket.Cursor().First(); k != nil {
			return nil
		}
		for _, p := range Defaults() {
			if err := putProfile(bucket, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: path}, nil
}

// Path returns the database file location.
func (b *BoltStore) Path() string {
	return b.path
}

// Close releases all database resources.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func putProfile(bucket *bbolt.Bucket, p Profile) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}
	if err := bucket.Put([]byte(key(p.Name)), val); err != nil {
		return fmt.Errorf("failed to store profile %q: %w", p.Name, err)
	}
	return nil
}

// Put stores or replaces the profile for p.Name.
func (b *BoltStore) Put(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putProfile(tx.Bucket(profilesBucket), p)
	})
}

// Get returns the profile stored for name. Names match case-insensitively.
func (b *BoltStore) Get(name string) (Profile, bool, error) {
	var (
		p     Profile
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(profilesBucket).Get([]byte(key(name)))
		if v == nil {
			return nil
		}
		// Unmarshal copies, so v is not used after the transaction ends
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("failed to deserialize profile %q: %w", name, err)
		}
		found = true
		return nil
	})
	return p, found, err
}

// List returns all profiles ordered by name.
func (b *BoltStore) List() ([]Profile, error) {
	var out []Profile
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(profilesBucket).ForEach(func(k, v []byte) error {
			var p Profile
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("failed to deserialize profile %q: %w", k, err)
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out, nil
}
