package lib

import (
	"container/list"
	"sync"
)

/* This file defines and implements a mempool that maintains an arrival ordered list of 'valid, pending to be included' transactions */

var _ Mempool = &FifoMempool{} // Mempool interface enforcement for FifoMempool implementation

// Mempool interface is a model for a pre-block, in-memory, transaction store
type Mempool interface {
	Contains(id string) bool                     // whether the mempool has this transaction already (de-duplicated by id)
	Get(id string) (tx []byte, found bool)       // retrieve the transaction bytes for an id
	AddTransaction(id string, tx []byte) ErrorI  // insert new unconfirmed transaction at the back of the queue
	DeleteTransaction(id string) (deleted bool)  // delete unconfirmed transaction
	GetTransactions(maxBytes uint64) []MempoolTx // retrieve transactions from the oldest to the newest

	Clear()              // reset the entire store
	TxCount() int        // number of transactions in the pool
	TxsBytes() int       // collective number of bytes in the pool
	Iterator() IteratorI // loop through each transaction in the pool
}

// FifoMempool is a Mempool implementation that keeps transactions in the order they were admitted
// Validator transactions carry no fee, so arrival order is the only priority
type FifoMempool struct {
	l        sync.RWMutex             // for thread safety
	queue    *list.List               // arrival ordered transactions
	index    map[string]*list.Element // id -> list element for O(1) de-duplication and deletion
	txsBytes int                      // collective number of bytes in the pool
	config   MempoolConfig            // user configuration of the pool
}

// MempoolTx is a wrapper over transaction bytes that maintains the id associated with the bytes
type MempoolTx struct {
	ID string // transaction id
	Tx []byte // transaction bytes
}

// NewMempool() creates a new FifoMempool instance of a Mempool
func NewMempool(config MempoolConfig) Mempool {
	return &FifoMempool{
		queue:  list.New(),
		index:  make(map[string]*list.Element),
		config: config,
	}
}

// AddTransaction() inserts a new unconfirmed transaction at the back of the pool
func (f *FifoMempool) AddTransaction(id string, tx []byte) ErrorI {
	// lock the mempool for thread safety
	f.l.Lock()
	// when the function finishes unlock the mempool
	defer f.l.Unlock()
	// ensure the size of the transaction doesn't exceed the individual limit
	if uint32(len(tx)) > f.config.IndividualMaxTxSize {
		return ErrMaxTxSize()
	}
	// check for a duplicate
	if _, found := f.index[id]; found {
		return ErrTxFoundInMempool(id)
	}
	// validator transactions are never silently dropped; a full pool rejects instead
	if uint32(f.queue.Len()) >= f.config.MaxTransactionCount || uint64(f.txsBytes+len(tx)) > f.config.MaxTotalBytes {
		return ErrMempoolFull()
	}
	// insert the transaction into the pool and the index
	f.index[id] = f.queue.PushBack(MempoolTx{ID: id, Tx: tx})
	// update the number of bytes
	f.txsBytes += len(tx)
	return nil
}

// GetTransactions() returns the oldest transactions from the pool up to 'max collective transaction bytes'
func (f *FifoMempool) GetTransactions(maxBytes uint64) (txs []MempoolTx) {
	// lock for thread safety
	f.l.RLock()
	// unlock when the function completes
	defer f.l.RUnlock()
	// create a variable to track the total transaction byte count
	totalBytes := uint64(0)
	// for each transaction in the pool
	for e := f.queue.Front(); e != nil; e = e.Next() {
		item := e.Value.(MempoolTx)
		// add to the total bytes
		totalBytes += uint64(len(item.Tx))
		// exit without adding the tx if this exceeds the limit
		if totalBytes > maxBytes {
			return
		}
		txs = append(txs, item)
	}
	return
}

// Contains() checks if a transaction with the given id exists in the mempool
func (f *FifoMempool) Contains(id string) (contains bool) {
	f.l.RLock()
	defer f.l.RUnlock()
	_, contains = f.index[id]
	return
}

// Get() returns the transaction bytes for the id
func (f *FifoMempool) Get(id string) ([]byte, bool) {
	f.l.RLock()
	defer f.l.RUnlock()
	e, found := f.index[id]
	if !found {
		return nil, false
	}
	return e.Value.(MempoolTx).Tx, true
}

// DeleteTransaction() removes the specified transaction from the mempool
func (f *FifoMempool) DeleteTransaction(id string) bool {
	// lock for thread safety
	f.l.Lock()
	// unlock when the function completes
	defer f.l.Unlock()
	e, found := f.index[id]
	// if not found, exit
	if !found {
		return false
	}
	// remove from the queue and the index
	f.queue.Remove(e)
	delete(f.index, id)
	// subtract from the tx bytes count
	f.txsBytes -= len(e.Value.(MempoolTx).Tx)
	return true
}

// Clear() empties the mempool and resets its state
func (f *FifoMempool) Clear() {
	f.l.Lock()
	defer f.l.Unlock()
	f.queue = list.New()
	f.index = make(map[string]*list.Element)
	f.txsBytes = 0
}

// TxCount() returns the current number of transactions in the mempool
func (f *FifoMempool) TxCount() int {
	f.l.RLock()
	defer f.l.RUnlock()
	return f.queue.Len()
}

// TxsBytes() returns the total size in bytes of all transactions in the mempool
func (f *FifoMempool) TxsBytes() int {
	f.l.RLock()
	defer f.l.RUnlock()
	return f.txsBytes
}

// Iterator() creates a new iterator over a copy of the pool
func (f *FifoMempool) Iterator() IteratorI {
	f.l.RLock()
	defer f.l.RUnlock()
	items := make([]MempoolTx, 0, f.queue.Len())
	for e := f.queue.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value.(MempoolTx))
	}
	return &mempoolIterator{items: items}
}

var _ IteratorI = &mempoolIterator{} // enforce

// mempoolIterator implements IteratorI over a snapshot of the pool; the key is the id and the value is the tx
type mempoolIterator struct {
	items []MempoolTx
	index int
}

// Valid() checks if the iterator is positioned on a valid element
func (m *mempoolIterator) Valid() bool { return m.index < len(m.items) }

// Next() advances the iterator to the next transaction in the pool
func (m *mempoolIterator) Next() { m.index++ }

// Key() returns the transaction id at the current iterator position
func (m *mempoolIterator) Key() []byte { return []byte(m.items[m.index].ID) }

// Value() returns the transaction bytes at the current iterator position
func (m *mempoolIterator) Value() []byte { return m.items[m.index].Tx }

// Close() is a no-op in this iterator, as no resources need to be released
func (m *mempoolIterator) Close() {}
