package store

import (
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

/*
	This file wraps LevelDB as an alternative store backend
	In doing so, it also implements the IteratorI
*/

// enforce the backend interface
var _ backend = &LevelDB{}

// LevelDB wraps a goleveldb database as a store backend
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB() opens a leveldb database at path, or in memory if path is empty
func NewLevelDB(path string) (*LevelDB, lib.ErrorI) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, ErrOpenDB(err)
	}
	return &LevelDB{db: db}, nil
}

// Get() retrieves the value for key; a missing key returns nil without error
func (l *LevelDB) Get(key []byte) ([]byte, lib.ErrorI) {
	bz, err := l.db.Get(key, nil)
	if err == errors.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, ErrStoreGet(err)
	}
	return bz, nil
}

// write() applies the operations as a single leveldb batch
func (l *LevelDB) write(ops txn) lib.ErrorI {
	batch := new(leveldb.Batch)
	for _, k := range ops.sorted {
		if o := ops.ops[k]; o.delete {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), o.value)
		}
	}
	if err := l.db.Write(batch, nil); err != nil {
		return ErrCommitDB(err)
	}
	return nil
}

// Iterator() creates a new iterator for the given prefix in lexicographical order
func (l *LevelDB) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	it.First()
	return &levelDBIterator{source: it}, nil
}

// RevIterator() creates a new iterator for the given prefix in reverse lexicographical order
func (l *LevelDB) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	it.Last()
	return &levelDBIterator{source: it, reverse: true}, nil
}

// close() gracefully stops the database
func (l *LevelDB) close() lib.ErrorI {
	if err := l.db.Close(); err != nil {
		return ErrCloseDB(err)
	}
	return nil
}

var _ lib.IteratorI = (*levelDBIterator)(nil)

// levelDBIterator is a directional wrapper over a range bounded leveldb iterator
type levelDBIterator struct {
	source  iterator.Iterator
	reverse bool
}

func (itr *levelDBIterator) Valid() bool   { return itr.source.Error() == nil && itr.source.Valid() }
func (itr *levelDBIterator) Key() []byte   { return cp(itr.source.Key()) }
func (itr *levelDBIterator) Value() []byte { return cp(itr.source.Value()) }
func (itr *levelDBIterator) Close()        { itr.source.Release() }

func (itr *levelDBIterator) Next() {
	if itr.reverse {
		itr.source.Prev()
	} else {
		itr.source.Next()
	}
}
