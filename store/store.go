package store

import (
	"encoding/binary"
	"path/filepath"
	"strings"
	"sync"

	"github.com/canopy-network/mnvalidator/lib"
)

var (
	versionKey = lib.JoinLenPrefix([]byte("version/")) // reserved key holding the committed height

	_ lib.StoreI = &Store{} // enforce the Store interface
)

/*
	The Store is a thin versioned layer over a single key value backend (badger by default, leveldb optionally).

	Writes accumulate in an in-memory Txn overlay; reads merge the overlay with the backend.
	Commit(version) writes the overlay and the version key in one backend batch, so a block is either fully
	persisted with its height or not at all. The version is the height of the last connected block.
*/

// backend is the minimal surface the Store needs from a database
type backend interface {
	lib.RStoreI
	write(ops txn) lib.ErrorI
	close() lib.ErrorI
}

// committed adapts a backend to the read write surface a Txn flushes into, each write is its own batch
type committed struct{ backend }

// Set() writes a single key straight to the backend
func (c committed) Set(key, value []byte) lib.ErrorI {
	t := NewTxn(nil)
	t.update(string(key), value, false)
	return c.write(t.txn)
}

// Delete() deletes a single key straight from the backend
func (c committed) Delete(key []byte) lib.ErrorI {
	t := NewTxn(nil)
	t.update(string(key), nil, true)
	return c.write(t.txn)
}

type Store struct {
	mu      sync.Mutex  // guards the overlay and the version
	version uint64      // height of the last commit
	db      backend     // underlying database
	pending *Txn        // uncommitted writes
	log     lib.LoggerI // logger
}

// New() creates a new instance of a StoreI either in memory or on disk
func New(config lib.StoreConfig, log lib.LoggerI) (lib.StoreI, lib.ErrorI) {
	path := ""
	if !config.InMemory {
		path = filepath.Join(config.DataDirPath, config.DBName)
	}
	var (
		db  backend
		err lib.ErrorI
	)
	switch strings.ToLower(config.Backend) {
	case lib.BadgerBackend, "":
		db, err = NewBadgerDB(path, log)
	case lib.LevelDBBackend:
		db, err = NewLevelDB(path)
	default:
		return nil, ErrUnknownBackend(config.Backend)
	}
	if err != nil {
		return nil, err
	}
	return newStore(db, log)
}

// NewStoreInMemory() creates a badger backed store that lives in memory
func NewStoreInMemory(log lib.LoggerI) (lib.StoreI, lib.ErrorI) {
	return New(lib.StoreConfig{InMemory: true, Backend: lib.BadgerBackend}, log)
}

// newStore() wraps the backend and loads the last committed version
func newStore(db backend, log lib.LoggerI) (*Store, lib.ErrorI) {
	s := &Store{db: db, log: log}
	s.pending = NewTxn(committed{db})
	bz, err := db.Get(versionKey)
	if err != nil {
		return nil, err
	}
	if len(bz) == 8 {
		s.version = binary.BigEndian.Uint64(bz)
	}
	return s, nil
}

// Get() reads through the pending writes to the backend
func (s *Store) Get(key []byte) ([]byte, lib.ErrorI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Get(key)
}

// Set() stages a write
func (s *Store) Set(key, value []byte) lib.ErrorI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Set(key, value)
}

// Delete() stages a delete
func (s *Store) Delete(key []byte) lib.ErrorI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Delete(key)
}

// Iterator() iterates the merged pending and committed state in lexicographical order
func (s *Store) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Iterator(prefix)
}

// RevIterator() iterates the merged pending and committed state in reverse lexicographical order
func (s *Store) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.RevIterator(prefix)
}

// NewTxn() nests a discardable batch over the store
func (s *Store) NewTxn() lib.TxnI { return NewTxn(s) }

// Version() returns the height of the last commit
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Commit() atomically persists the pending writes together with the version
func (s *Store) Commit(version uint64) lib.ErrorI {
	s.mu.Lock()
	defer s.mu.Unlock()
	// stage the version with the rest of the writes
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, version)
	s.pending.update(string(versionKey), v, false)
	// write everything in one backend batch
	if err := s.db.write(s.pending.txn); err != nil {
		return err
	}
	s.pending.Discard()
	s.version = version
	s.log.Debugf("Committed store at version %d", version)
	return nil
}

// Discard() drops the pending writes
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Discard()
}

// Close() discards the pending writes and gracefully stops the database
func (s *Store) Close() lib.ErrorI {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Discard()
	return s.db.close()
}
