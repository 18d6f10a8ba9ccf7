// Package leveldbstore implements storage.Store over a LevelDB database,
// via github.com/syndtr/goleveldb, for the "leveldb" config provider.
package leveldbstore

import (
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store wraps a *leveldb.DB behind storage.Store.
type Store struct {
	db *leveldb.DB
}

// NewStore opens (creating if absent) a LevelDB database at path.
func NewStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get implements storage.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, storage.ErrKeyNotFound
	}
	return v, err
}

// Put implements storage.Store.
func (s *Store) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

// Delete implements storage.Store.
func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

type batch struct{ b *leveldb.Batch }

func (b *batch) Put(key, value []byte) { b.b.Put(key, value) }
func (b *batch) Delete(key []byte)     { b.b.Delete(key) }

// Batch implements storage.Store.
func (s *Store) Batch() storage.Batch { return &batch{b: new(leveldb.Batch)} }

// PutBatch implements storage.Store.
func (s *Store) PutBatch(b storage.Batch) error {
	return s.db.Write(b.(*batch).b, nil)
}

// Seek implements storage.Store.
func (s *Store) Seek(prefix []byte, f func(k, v []byte) bool) {
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		k := append([]byte{}, iter.Key()...)
		v := append([]byte{}, iter.Value()...)
		if !f(k, v) {
			return
		}
	}
}

// Close implements storage.Store.
func (s *Store) Close() error { return s.db.Close() }
