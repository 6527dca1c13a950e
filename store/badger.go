package store

import (
	"bytes"

	"github.com/canopy-network/mnvalidator/lib"
	"github.com/dgraph-io/badger/v4"
)

// enforce the backend interface
var _ backend = &BadgerDB{}

// BadgerDB wraps a badger database as a store backend
type BadgerDB struct {
	db *badger.DB
}

// NewBadgerDB() opens a badger database at path, or in memory if path is empty
func NewBadgerDB(path string, log lib.LoggerI) (*BadgerDB, lib.ErrorI) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR).WithLogger(badgerLogger{log})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, ErrOpenDB(err)
	}
	return &BadgerDB{db: db}, nil
}

// Get() retrieves a copy of the value for key; a missing key returns nil without error
func (b *BadgerDB) Get(key []byte) (value []byte, e lib.ErrorI) {
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil && err != badger.ErrKeyNotFound {
		return nil, ErrStoreGet(err)
	}
	return value, nil
}

// write() applies the operations in a single badger transaction
func (b *BadgerDB) write(ops txn) lib.ErrorI {
	err := b.db.Update(func(tx *badger.Txn) error {
		for _, k := range ops.sorted {
			o := ops.ops[k]
			if o.delete {
				if err := tx.Delete([]byte(k)); err != nil {
					return err
				}
				continue
			}
			if err := tx.Set([]byte(k), o.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ErrCommitDB(err)
	}
	return nil
}

// Iterator() creates a new iterator for the given prefix in lexicographical order
func (b *BadgerDB) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	tx := b.db.NewTransaction(false)
	it := tx.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: false})
	it.Rewind()
	return &badgerIterator{tx: tx, it: it, prefix: prefix}, nil
}

// RevIterator() creates a new iterator for the given prefix in reverse lexicographical order
func (b *BadgerDB) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	tx := b.db.NewTransaction(false)
	// no Prefix option: a reverse seek may land on the prefix end key itself, which the wrapper steps over
	it := tx.NewIterator(badger.IteratorOptions{Reverse: true, PrefetchValues: false})
	end := prefixEnd(prefix)
	if end == nil {
		it.Rewind()
	} else {
		it.Seek(end)
		if it.Valid() && bytes.Equal(it.Item().Key(), end) {
			it.Next()
		}
	}
	return &badgerIterator{tx: tx, it: it, prefix: prefix}, nil
}

// close() gracefully stops the database
func (b *BadgerDB) close() lib.ErrorI {
	if err := b.db.Close(); err != nil {
		return ErrCloseDB(err)
	}
	return nil
}

// IteratorI interface enforcement
var _ lib.IteratorI = &badgerIterator{}

// badgerIterator wraps a badger iterator and the read transaction that owns it
type badgerIterator struct {
	tx     *badger.Txn
	it     *badger.Iterator
	prefix []byte
}

func (i *badgerIterator) Valid() bool {
	return i.it.Valid() && bytes.HasPrefix(i.it.Item().Key(), i.prefix)
}
func (i *badgerIterator) Next()       { i.it.Next() }
func (i *badgerIterator) Key() []byte { return i.it.Item().KeyCopy(nil) }

// Value() returns a copy of the value, nil if it could not be read
func (i *badgerIterator) Value() []byte {
	v, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		return nil
	}
	return v
}

// Close() releases the iterator then its read transaction
func (i *badgerIterator) Close() {
	i.it.Close()
	i.tx.Discard()
}

// badgerLogger routes badger's internal logs to the node logger
type badgerLogger struct{ log lib.LoggerI }

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Errorf("badger: "+f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warnf("badger: "+f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.log.Debugf("badger: "+f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.log.Debugf("badger: "+f, v...) }
