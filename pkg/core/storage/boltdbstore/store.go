// Package boltdbstore implements storage.Store over a single bbolt
// bucket, via go.etcd.io/bbolt, for the "boltdb" config provider.
package boltdbstore

import (
	"bytes"

	"github.com/n3-core/node/pkg/core/storage"
	"go.etcd.io/bbolt"
)

var rootBucket = []byte("neo")

// Store wraps a *bbolt.DB behind storage.Store.
type Store struct {
	db *bbolt.DB
}

// NewStore opens (creating if absent) a bbolt database at path.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get implements storage.Store.
func (s *Store) Get(key []byte) (val []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(rootBucket).Get(key)
		if v == nil {
			return storage.ErrKeyNotFound
		}
		val = append([]byte{}, v...)
		return nil
	})
	return val, err
}

// Put implements storage.Store.
func (s *Store) Put(key, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key, value)
	})
}

// Delete implements storage.Store.
func (s *Store) Delete(key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key)
	})
}

type batch struct {
	puts    []storage.KeyValue
	deletes [][]byte
}

func (b *batch) Put(key, value []byte) {
	b.puts = append(b.puts, storage.KeyValue{Key: append([]byte{}, key...), Value: append([]byte{}, value...)})
}
func (b *batch) Delete(key []byte) {
	b.deletes = append(b.deletes, append([]byte{}, key...))
}

// Batch implements storage.Store.
func (s *Store) Batch() storage.Batch { return &batch{} }

// PutBatch implements storage.Store, applying all mutations in a single
// bbolt transaction.
func (s *Store) PutBatch(b storage.Batch) error {
	bb := b.(*batch)
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(rootBucket)
		for _, kv := range bb.puts {
			if err := bucket.Put(kv.Key, kv.Value); err != nil {
				return err
			}
		}
		for _, k := range bb.deletes {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Seek implements storage.Store.
func (s *Store) Seek(prefix []byte, f func(k, v []byte) bool) {
	_ = s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(rootBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !f(append([]byte{}, k...), append([]byte{}, v...)) {
				break
			}
		}
		return nil
	})
}

// Close implements storage.Store.
func (s *Store) Close() error { return s.db.Close() }
