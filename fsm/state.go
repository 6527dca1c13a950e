package fsm

import (
	"sync"

	"github.com/canopy-network/mnvalidator/lib"
)

// checkMode selects how pending entries take part in the uniqueness rules
type checkMode int

const (
	mempoolCheck checkMode = iota // a new submission: any pending entry for the key rejects
	recheck                       // a pending transaction re-judged at a new tip: only other transactions' entries reject
	blockCheck                    // a block: pending entries are ignored, earlier transactions of the block reject
)

// StateMachine is the validator lifecycle state machine
// It owns the registration and voting ledgers, each a single merged index of key -> best known fact,
// and derives active validator sets from immutable snapshots of their confirmed part
type StateMachine struct {
	mu       sync.RWMutex   // serializes admissions and block callbacks, guards everything below
	schedule Schedule       // the phase calculator
	oracle   IdentityOracle // masternode ownership and liveness
	mempool  lib.Mempool    // pending transactions waiting for a block
	store    lib.StoreI     // confirmed facts and the tip height
	tally    *TallyEngine   // active set derivation
	metrics  *lib.Metrics   // telemetry
	log      lib.LoggerI    // logging

	height     uint64                  // the confirmed tip
	generation uint64                  // count of disconnected blocks, stamps snapshots
	candidates map[string]*Candidacy   // registration ledger: candidate -> best known candidacy
	votes      map[string]*VoteRecord  // voting ledger: voter/candidate -> best known record
	pending    map[string]*Transaction // txID -> transaction whose facts are pending
	snapshot   *Snapshot               // the confirmed view at height, replaced on every block callback
}

// New() creates a StateMachine from the governance layout and reloads the confirmed facts from the store
func New(config lib.GovernanceConfig, store lib.StoreI, mempool lib.Mempool, oracle IdentityOracle, metrics *lib.Metrics, log lib.LoggerI) (*StateMachine, lib.ErrorI) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	tally, err := NewTallyEngine(config.ActivationThreshold, log)
	if err != nil {
		return nil, err
	}
	sm := &StateMachine{
		schedule:   NewSchedule(config),
		oracle:     oracle,
		mempool:    mempool,
		store:      store,
		tally:      tally,
		metrics:    metrics,
		log:        log,
		candidates: make(map[string]*Candidacy),
		votes:      make(map[string]*VoteRecord),
		pending:    make(map[string]*Transaction),
	}
	return sm, sm.Initialize()
}

// Initialize() loads the genesis validators and every confirmed fact persisted in the store
func (s *StateMachine) Initialize() lib.ErrorI {
	s.mu.Lock()
	defer s.mu.Unlock()
	genesis, err := genesisCandidacies(s.schedule.GovernanceConfig)
	if err != nil {
		return err
	}
	for _, c := range genesis {
		s.candidates[candidacyIndexKey(c.PublicKey)] = c
	}
	s.height = s.store.Version()
	if err = s.loadCandidacies(); err != nil {
		return err
	}
	if err = s.loadVotes(); err != nil {
		return err
	}
	s.refreshSnapshot()
	s.log.Infof("Loaded validator ledgers at height %d: %d candidates, %d votes", s.height, len(s.snapshot.Candidates), len(s.snapshot.Votes))
	return nil
}

// Height() returns the confirmed tip
func (s *StateMachine) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// Schedule() returns the phase calculator
func (s *StateMachine) Schedule() Schedule { return s.schedule }

// PhaseInfo() returns the phase the next block will be in
func (s *StateMachine) PhaseInfo() PhaseInfo { return s.schedule.Info(s.Height()) }

// Snapshot() returns the immutable confirmed view at the tip
func (s *StateMachine) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// PendingCount() returns the number of transactions with pending facts
func (s *StateMachine) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// HandleTransaction() decodes and submits transaction bytes received from a wallet or peer
func (s *StateMachine) HandleTransaction(bz []byte) (string, lib.ErrorI) {
	tx, err := DecodeTransaction(bz)
	if err != nil {
		s.metrics.RecordAdmission("unknown", err)
		return "", err
	}
	return s.SubmitTransaction(tx)
}

// SubmitTransaction() judges a transaction at the next height and admits it to the ledgers and the mempool
// The uniqueness check and the insertion are one step under the write lock
func (s *StateMachine) SubmitTransaction(tx *Transaction) (txID string, err lib.ErrorI) {
	if tx == nil {
		return "", ErrNilTransaction()
	}
	defer func() { s.metrics.RecordAdmission(string(tx.Type), err) }()
	if err = tx.Check(); err != nil {
		return "", err
	}
	bz, err := tx.Bytes()
	if err != nil {
		return "", err
	}
	if txID, err = tx.ID(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.checkTransaction(tx, txID, s.height+1, mempoolCheck, nil); err != nil {
		s.log.Debugf("Rejected %s %s: %s", tx.Type, txID, err.Error())
		return txID, err
	}
	if err = s.mempool.AddTransaction(txID, bz); err != nil {
		return txID, err
	}
	s.addPending(tx, txID)
	s.log.Debugf("Admitted %s %s", tx.Type, txID)
	return txID, nil
}

// ValidateBlockTxs() checks that every transaction of the block at height is valid against the confirmed tip
func (s *StateMachine) ValidateBlockTxs(height uint64, txs [][]byte) lib.ErrorI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if height != s.height+1 {
		return ErrWrongHeight(s.height+1, height)
	}
	_, _, err := s.validateBlockTxs(height, txs)
	return err
}

// AssembleBlockTxs() selects the mempool transactions valid in the block at height, oldest first
// Transactions excluded by the block rules are discarded from the ledgers and the mempool
func (s *StateMachine) AssembleBlockTxs(height, maxBytes uint64) (txs [][]byte, err lib.ErrorI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height != s.height+1 {
		return nil, ErrWrongHeight(s.height+1, height)
	}
	inBlock := make(map[string]struct{})
	for _, candidate := range s.mempool.GetTransactions(maxBytes) {
		tx, e := DecodeTransaction(candidate.Tx)
		if e == nil {
			e = s.checkTransaction(tx, candidate.ID, height, blockCheck, inBlock)
		}
		if e != nil {
			s.log.Infof("Excluded %s from block %d: %s", candidate.ID, height, e.Error())
			s.dropPending(candidate.ID)
			s.mempool.DeleteTransaction(candidate.ID)
			continue
		}
		for _, key := range indexKeys(tx) {
			inBlock[key] = struct{}{}
		}
		txs = append(txs, candidate.Tx)
	}
	return
}

// OnBlockConnected() confirms the facts of the block at the next height
// Pending facts owned by the block's transactions are promoted, conflicting pending transactions are evicted,
// and pending transactions no longer valid at the new tip are discarded
// The pending writes of the store, including any the caller staged for the block, are committed at height
func (s *StateMachine) OnBlockConnected(height uint64, txs [][]byte) (err lib.ErrorI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// callbacks must arrive in strict height order
	if height != s.height+1 {
		s.store.Discard()
		return ErrWrongHeight(s.height+1, height)
	}
	decoded, txIDs, err := s.validateBlockTxs(height, txs)
	if err != nil {
		s.store.Discard()
		return err
	}
	// persist the confirmed facts and the tip atomically before touching memory
	var candidacies []*Candidacy
	var votes []*VoteRecord
	for i, tx := range decoded {
		switch tx.Type {
		case TxTypeRegistration:
			candidacies = append(candidacies, confirmedCandidacy(tx.Registration, txIDs[i], height))
		case TxTypeVote:
			votes = append(votes, confirmedVotes(tx.Vote, txIDs[i], height)...)
		}
	}
	if err = s.persist(candidacies, votes); err != nil {
		s.store.Discard()
		return err
	}
	if err = s.store.Commit(height); err != nil {
		s.store.Discard()
		return err
	}
	// evict every other pending transaction that claims a key the block confirms
	for i, tx := range decoded {
		for _, key := range indexKeys(tx) {
			if other := s.pendingOwner(key); other != "" && other != txIDs[i] {
				s.dropPending(other)
				s.log.Infof("Evicted pending %s conflicting with block %d", other, height)
			}
		}
		s.forgetPending(txIDs[i])
	}
	for _, c := range candidacies {
		s.candidates[candidacyIndexKey(c.PublicKey)] = c
	}
	for _, v := range votes {
		s.votes[v.key()] = v
	}
	s.height = height
	s.refreshSnapshot()
	discarded := s.revalidatePending()
	s.log.Infof("Connected block %d with %d validator txs (%d pending discarded)", height, len(decoded), len(discarded))
	return nil
}

// OnBlockDisconnected() reverts the block at the tip
// Its confirmed facts are demoted to pending, then re-admitted to the mempool if still valid at the new tip or discarded
// Returns the ids of every discarded transaction
func (s *StateMachine) OnBlockDisconnected(height uint64, txs [][]byte) (discarded []string, err lib.ErrorI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height == 0 || height != s.height {
		s.store.Discard()
		return nil, ErrWrongHeight(s.height, height)
	}
	decoded := make([]*Transaction, 0, len(txs))
	txIDs := make([]string, 0, len(txs))
	for _, bz := range txs {
		tx, e := DecodeTransaction(bz)
		if e != nil {
			s.store.Discard()
			return nil, e
		}
		txID, e := tx.ID()
		if e != nil {
			s.store.Discard()
			return nil, e
		}
		decoded, txIDs = append(decoded, tx), append(txIDs, txID)
	}
	// remove the block's facts from the store
	for i, tx := range decoded {
		if err = s.unpersist(tx, txIDs[i], height); err != nil {
			s.store.Discard()
			return nil, err
		}
	}
	if err = s.store.Commit(height - 1); err != nil {
		s.store.Discard()
		return nil, err
	}
	// demote in reverse block order
	var demoted []string
	for i := len(decoded) - 1; i >= 0; i-- {
		tx, txID := decoded[i], txIDs[i]
		var ok bool
		switch tx.Type {
		case TxTypeRegistration:
			ok = s.demoteCandidacy(tx.Registration, txID)
		case TxTypeVote:
			ok = s.demoteVotes(tx.Vote, txID)
		}
		if ok {
			s.pending[txID] = tx
			demoted = append(demoted, txID)
			s.log.Infof("Demoted %s %s from block %d to pending", tx.Type, txID, height)
		}
	}
	s.height, s.generation = height-1, s.generation+1
	s.tally.Purge()
	s.refreshSnapshot()
	discarded = s.revalidatePending()
	// the survivors among the demoted return to the mempool
	for _, txID := range demoted {
		tx, stillPending := s.pending[txID]
		if !stillPending || s.mempool.Contains(txID) {
			continue
		}
		bz, e := tx.Bytes()
		if e == nil {
			e = s.mempool.AddTransaction(txID, bz)
		}
		if e != nil {
			s.log.Warnf("Unable to re-admit %s to the mempool: %s", txID, e.Error())
			s.dropPending(txID)
			discarded = append(discarded, txID)
		}
	}
	s.log.Infof("Disconnected block %d: %d demoted, %d discarded", height, len(demoted), len(discarded))
	return discarded, nil
}

// checkTransaction() dispatches the admission rules by transaction type
func (s *StateMachine) checkTransaction(tx *Transaction, txID string, height uint64, mode checkMode, inBlock map[string]struct{}) lib.ErrorI {
	if err := tx.Check(); err != nil {
		return err
	}
	switch tx.Type {
	case TxTypeRegistration:
		return s.checkRegistration(tx, txID, height, mode, inBlock)
	case TxTypeVote:
		return s.checkVote(tx, txID, height, mode, inBlock)
	}
	return ErrUnknownTxType(tx.Type)
}

// checkPendingConflict() applies the uniqueness rule against pending entries (mempool) or earlier block entries
func checkPendingConflict(key, pendingTxID, txID string, mode checkMode, inBlock map[string]struct{}) lib.ErrorI {
	switch mode {
	case mempoolCheck:
		if pendingTxID != "" {
			return ErrDuplicateInMempool()
		}
	case recheck:
		if pendingTxID != "" && pendingTxID != txID {
			return ErrDuplicateInMempool()
		}
	case blockCheck:
		if _, found := inBlock[key]; found {
			return ErrDuplicateInBlock(txID)
		}
	}
	return nil
}

// validateBlockTxs() decodes and checks the block's transactions in order, the caller holds the lock
func (s *StateMachine) validateBlockTxs(height uint64, txs [][]byte) (decoded []*Transaction, txIDs []string, err lib.ErrorI) {
	inBlock := make(map[string]struct{})
	for _, bz := range txs {
		tx, e := DecodeTransaction(bz)
		if e != nil {
			return nil, nil, e
		}
		txID, e := tx.ID()
		if e != nil {
			return nil, nil, e
		}
		if e = s.checkTransaction(tx, txID, height, blockCheck, inBlock); e != nil {
			return nil, nil, e
		}
		for _, key := range indexKeys(tx) {
			inBlock[key] = struct{}{}
		}
		decoded, txIDs = append(decoded, tx), append(txIDs, txID)
	}
	return
}

// revalidatePending() re-judges every pending transaction at the next height and discards the ones that fail
func (s *StateMachine) revalidatePending() (discarded []string) {
	for _, txID := range lib.SortedKeys(s.pending) {
		if err := s.checkTransaction(s.pending[txID], txID, s.height+1, recheck, nil); err != nil {
			s.dropPending(txID)
			discarded = append(discarded, txID)
			s.log.Infof("Discarded pending %s: %s", txID, err.Error())
		}
	}
	return
}

// addPending() inserts the pending facts of an admitted transaction
func (s *StateMachine) addPending(tx *Transaction, txID string) {
	switch tx.Type {
	case TxTypeRegistration:
		s.pendCandidacy(tx.Registration, txID)
	case TxTypeVote:
		s.pendVotes(tx.Vote, txID)
	}
	s.pending[txID] = tx
}

// dropPending() removes a pending transaction from the ledgers and the mempool
func (s *StateMachine) dropPending(txID string) {
	tx, found := s.pending[txID]
	if !found {
		return
	}
	switch tx.Type {
	case TxTypeRegistration:
		s.dropCandidacy(tx.Registration, txID)
	case TxTypeVote:
		s.dropVotes(tx.Vote, txID)
	}
	s.forgetPending(txID)
}

// forgetPending() stops tracking a transaction as pending without touching its facts
func (s *StateMachine) forgetPending(txID string) {
	delete(s.pending, txID)
	s.mempool.DeleteTransaction(txID)
}

// pendingOwner() returns the transaction owning the pending entry at the index key, if any
func (s *StateMachine) pendingOwner(key string) string {
	if c, found := s.candidates[key]; found && c.Status == StatusPending {
		return c.TxID
	}
	if v, found := s.votes[key]; found && v.Status == StatusPending {
		return v.TxID
	}
	return ""
}

// indexKeys() returns the ledger keys a transaction claims
func indexKeys(tx *Transaction) (keys []string) {
	switch tx.Type {
	case TxTypeRegistration:
		keys = append(keys, candidacyIndexKey(tx.Registration.PublicKey))
	case TxTypeVote:
		for _, entry := range tx.Vote.Votes {
			keys = append(keys, voteIndexKey(tx.Vote.Voter, entry.Candidate))
		}
	}
	return
}

// refreshSnapshot() replaces the confirmed view, the caller holds the write lock
func (s *StateMachine) refreshSnapshot() {
	snapshot := &Snapshot{Height: s.height, Generation: s.generation}
	for _, key := range lib.SortedKeys(s.candidates) {
		if c := s.candidates[key]; c.Status == StatusConfirmed {
			snapshot.Candidates = append(snapshot.Candidates, *c)
		}
	}
	for _, key := range lib.SortedKeys(s.votes) {
		if v := s.votes[key]; v.Status == StatusConfirmed {
			snapshot.Votes = append(snapshot.Votes, *v)
		}
	}
	s.snapshot = snapshot
}

// persist() stages the confirmed facts in the store
func (s *StateMachine) persist(candidacies []*Candidacy, votes []*VoteRecord) lib.ErrorI {
	for _, c := range candidacies {
		bz, err := lib.MarshalJSON(c)
		if err != nil {
			return err
		}
		if err = s.store.Set(KeyForCandidacy(c.PublicKey), bz); err != nil {
			return err
		}
	}
	for _, v := range votes {
		bz, err := lib.MarshalJSON(v)
		if err != nil {
			return err
		}
		if err = s.store.Set(KeyForVote(v.Voter, v.Candidate), bz); err != nil {
			return err
		}
	}
	return nil
}

// unpersist() stages the deletion of the facts a transaction confirmed at height
func (s *StateMachine) unpersist(tx *Transaction, txID string, height uint64) lib.ErrorI {
	switch tx.Type {
	case TxTypeRegistration:
		c := s.candidates[candidacyIndexKey(tx.Registration.PublicKey)]
		if c != nil && c.Status == StatusConfirmed && c.TxID == txID && c.Height == height {
			return s.store.Delete(KeyForCandidacy(c.PublicKey))
		}
	case TxTypeVote:
		for _, entry := range tx.Vote.Votes {
			v := s.votes[voteIndexKey(tx.Vote.Voter, entry.Candidate)]
			if v == nil || v.Status != StatusConfirmed || v.TxID != txID || v.Height != height {
				continue
			}
			if err := s.store.Delete(KeyForVote(v.Voter, v.Candidate)); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadCandidacies() reloads the confirmed candidacies from the store
func (s *StateMachine) loadCandidacies() lib.ErrorI {
	it, err := s.store.Iterator(CandidacyPrefix())
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		c := new(Candidacy)
		if err = lib.UnmarshalJSON(it.Value(), c); err != nil {
			return err
		}
		s.candidates[candidacyIndexKey(c.PublicKey)] = c
	}
	return nil
}

// loadVotes() reloads the confirmed vote records from the store
func (s *StateMachine) loadVotes() lib.ErrorI {
	it, err := s.store.Iterator(VotePrefix())
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		v := new(VoteRecord)
		if err = lib.UnmarshalJSON(it.Value(), v); err != nil {
			return err
		}
		s.votes[v.key()] = v
	}
	return nil
}

// PendingTransactions() returns the ids of the pending transactions in ascending order
func (s *StateMachine) PendingTransactions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lib.SortedKeys(s.pending)
}
