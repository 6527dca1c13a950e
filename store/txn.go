package store

import (
	"bytes"
	"sort"
	"strings"

	"github.com/canopy-network/mnvalidator/lib"
)

// enforce the TxnI interface
var _ lib.TxnI = &Txn{}

/*
	Txn acts like a database transaction
	It saves set/del operations in memory and allows the caller to Write() to the parent or Discard()
	When read from, it merges with the parent as if Write() had already been called

	The Store keeps one Txn as the pending writes of the block being connected, and the state machine
	nests another Txn over it so a block that fails half way leaves nothing behind.

	CONTRACT:
	- not thread safe
	- deleted values are shadowed in the merged reads and iteration
	- Write() is not atomic; atomicity comes from the backend batch in Store.Commit()
*/

type Txn struct {
	parent lib.RWStoreI // store to Write() to
	txn
}

// internal txn structure maintains the write operations sorted lexicographically by keys
type txn struct {
	ops    map[string]op // [string(key)] -> set/del operations saved in memory
	sorted []string      // ops keys sorted lexicographically; needed for iteration
}

// op or Operation has the value portion of the operation and if it's a *delete* or a *set*
type op struct {
	value  []byte // value of key value pair
	delete bool   // is operation delete
}

// NewTxn() creates a new instance of a Txn with the specified parent store
func NewTxn(parent lib.RWStoreI) *Txn {
	return &Txn{parent: parent, txn: newTxnOps()}
}

func newTxnOps() txn { return txn{ops: make(map[string]op), sorted: make([]string, 0)} }

// Get() retrieves the value for a given key from either the in-memory operations or the parent store
func (c *Txn) Get(key []byte) ([]byte, lib.ErrorI) {
	if v, found := c.ops[string(key)]; found {
		return v.value, nil
	}
	return c.parent.Get(key)
}

// Set() adds or updates the value for a key in the in-memory operations
func (c *Txn) Set(key, value []byte) lib.ErrorI {
	if len(key) == 0 {
		return ErrNilKey()
	}
	c.update(string(key), value, false)
	return nil
}

// Delete() marks a key for deletion in the in-memory operations
func (c *Txn) Delete(key []byte) lib.ErrorI {
	if len(key) == 0 {
		return ErrNilKey()
	}
	c.update(string(key), nil, true)
	return nil
}

// update() modifies or adds an operation for a key in the in-memory operations and maintains order
func (c *Txn) update(key string, v []byte, delete bool) {
	if _, found := c.ops[key]; !found {
		// binary search the insert position to keep the keys sorted
		i := sort.SearchStrings(c.sorted, key)
		c.sorted = append(c.sorted, "")
		copy(c.sorted[i+1:], c.sorted[i:])
		c.sorted[i] = key
	}
	c.ops[key] = op{value: v, delete: delete}
}

// Iterator() returns a new iterator for merged iteration of both the in-memory operations and parent store with the given prefix
func (c *Txn) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	parent, err := c.parent.Iterator(prefix)
	if err != nil {
		return nil, err
	}
	return newTxnIterator(parent, c.txn, prefix, false), nil
}

// RevIterator() returns a new reverse iterator for merged iteration of both the in-memory operations and parent store with the given prefix
func (c *Txn) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	parent, err := c.parent.RevIterator(prefix)
	if err != nil {
		return nil, err
	}
	return newTxnIterator(parent, c.txn, prefix, true), nil
}

// Discard() clears all in-memory operations
func (c *Txn) Discard() { c.txn = newTxnOps() }

// Write() flushes the in-memory operations to the parent store in key order and clears in-memory changes
func (c *Txn) Write() (err lib.ErrorI) {
	for _, k := range c.sorted {
		v := c.ops[k]
		if v.delete {
			err = c.parent.Delete([]byte(k))
		} else {
			err = c.parent.Set([]byte(k), v.value)
		}
		if err != nil {
			return
		}
	}
	c.txn = newTxnOps()
	return
}

// enforce the Iterator interface
var _ lib.IteratorI = &TxnIterator{}

// TxnIterator is a reversible, merged iterator of the parent and the in-memory operations
type TxnIterator struct {
	parent lib.IteratorI
	txn
	prefix  string
	index   int
	reverse bool
	useTxn  bool
}

// newTxnIterator() initializes a new merged iterator positioned at the first entry for the direction
func newTxnIterator(parent lib.IteratorI, t txn, prefix []byte, reverse bool) *TxnIterator {
	it := &TxnIterator{parent: parent, txn: t, prefix: string(prefix), reverse: reverse}
	if reverse {
		// position at the last in-memory key under the prefix
		if end := prefixEnd(prefix); end == nil {
			it.index = len(t.sorted) - 1
		} else {
			it.index = sort.SearchStrings(t.sorted, string(end)) - 1
		}
	} else {
		// position at the first in-memory key at or after the prefix
		it.index = sort.SearchStrings(t.sorted, it.prefix)
	}
	return it
}

// Close() closes the merged iterator
func (c *TxnIterator) Close() { c.parent.Close() }

// Next() advances the iterator to the next entry, choosing between in-memory and parent store entries
func (c *TxnIterator) Next() {
	// if parent is not usable any more then txn.Next()
	if !c.parent.Valid() {
		c.txnNext()
		return
	}
	// if txn is not usable any more then parent.Next()
	if c.txnInvalid() {
		c.parent.Next()
		return
	}
	// compare the keys of the in memory option and the parent option
	switch c.compare(c.txnKey(), c.parent.Key()) {
	case 1: // use parent
		c.parent.Next()
	case 0: // use both
		c.parent.Next()
		c.txnNext()
	case -1: // use txn
		c.txnNext()
	}
}

// Key() returns the current key from either the in-memory operations or the parent store
func (c *TxnIterator) Key() []byte {
	if c.useTxn {
		return c.txnKey()
	}
	return c.parent.Key()
}

// Value() returns the current value from either the in-memory operations or the parent store
func (c *TxnIterator) Value() []byte {
	if c.useTxn {
		return c.txnValue().value
	}
	return c.parent.Value()
}

// Valid() skips shadowed deletes and reports whether either side still has an entry
func (c *TxnIterator) Valid() bool {
	for {
		if !c.parent.Valid() {
			// only the in-memory side is left; skip deleted entries
			for !c.txnInvalid() && c.txnValue().delete {
				c.txnNext()
			}
			c.useTxn = true
			return !c.txnInvalid()
		}
		if c.txnInvalid() {
			// parent is valid; txn is not
			c.useTxn = false
			return true
		}
		// both are valid; key comparison matters
		switch c.compare(c.txnKey(), c.parent.Key()) {
		case 1: // parent comes first
			c.useTxn = false
			return true
		case 0: // when equal txn shadows parent
			if c.txnValue().delete {
				c.parent.Next()
				c.txnNext()
				continue
			}
			c.useTxn = true
			return true
		default: // txn comes first
			if c.txnValue().delete {
				c.txnNext()
				continue
			}
			c.useTxn = true
			return true
		}
	}
}

// txnInvalid() determines if the current in-memory entry is out of range or outside the prefix
func (c *TxnIterator) txnInvalid() bool {
	if c.index < 0 || c.index >= len(c.sorted) {
		return true
	}
	return !strings.HasPrefix(c.sorted[c.index], c.prefix)
}

// txnKey() returns the key of the current in-memory operation
func (c *TxnIterator) txnKey() []byte { return []byte(c.sorted[c.index]) }

// txnValue() returns the current in-memory operation
func (c *TxnIterator) txnValue() op { return c.ops[c.sorted[c.index]] }

// compare() compares two byte slices, adjusting for reverse iteration if needed
func (c *TxnIterator) compare(a, b []byte) int {
	if c.reverse {
		return bytes.Compare(a, b) * -1
	}
	return bytes.Compare(a, b)
}

// txnNext() advances the index of the in-memory operations based on the iteration direction
func (c *TxnIterator) txnNext() {
	if c.reverse {
		c.index--
	} else {
		c.index++
	}
}
