package fsm

import (
	"github.com/canopy-network/mnvalidator/lib"
)

/* This file implements the registration ledger: one candidacy per masternode public key across mempool and chain */

// Status is the lifecycle state of a ledger fact
// A rejected fact is removed from the index and never becomes confirmed
type Status string

const (
	StatusPending   Status = "pending"   // admitted to the mempool, not yet in a connected block
	StatusConfirmed Status = "confirmed" // included in a connected block
)

// Candidacy is a masternode's bid to become a validator
type Candidacy struct {
	PublicKey lib.HexBytes `json:"pubkey"`            // the candidate masternode key
	TxID      string       `json:"txid"`              // the registering transaction
	Status    Status       `json:"status"`            // pending or confirmed
	Height    uint64       `json:"height"`            // the confirming block, 0 while pending
	Genesis   bool         `json:"genesis,omitempty"` // registered by the genesis configuration
}

// checkRegistration() runs the admission rules for a registration judged at height
// Order: permission, duplicate in history, phase, duplicate in mempool (or block)
func (s *StateMachine) checkRegistration(tx *Transaction, txID string, height uint64, mode checkMode, inBlock map[string]struct{}) lib.ErrorI {
	reg := tx.Registration
	// only the holder of the candidate key may register it
	if err := tx.CheckSignature(); err != nil {
		return err
	}
	// the candidate key must belong to an eligible, running masternode
	// the oracle is node local, so blocks are judged on chain state alone
	if mode != blockCheck && !s.oracle.OwnsActiveMasternode(reg.PublicKey) {
		return ErrRegistrationPermission()
	}
	key := candidacyIndexKey(reg.PublicKey)
	existing := s.candidates[key]
	// registrations are a one-time event for the lifetime of the chain
	if existing != nil && existing.Status == StatusConfirmed {
		return ErrAlreadyRegistered()
	}
	if err := s.schedule.CheckWindow(RegistrationOpen, height); err != nil {
		return err
	}
	var pendingTxID string
	if existing != nil {
		pendingTxID = existing.TxID
	}
	return checkPendingConflict(key, pendingTxID, txID, mode, inBlock)
}

// pendCandidacy() inserts the pending candidacy of a registration
func (s *StateMachine) pendCandidacy(reg *Registration, txID string) {
	s.candidates[candidacyIndexKey(reg.PublicKey)] = &Candidacy{
		PublicKey: reg.PublicKey,
		TxID:      txID,
		Status:    StatusPending,
	}
}

// confirmedCandidacy() builds the confirmed candidacy a registration produces at height
func confirmedCandidacy(reg *Registration, txID string, height uint64) *Candidacy {
	return &Candidacy{
		PublicKey: reg.PublicKey,
		TxID:      txID,
		Status:    StatusConfirmed,
		Height:    height,
	}
}

// demoteCandidacy() moves a confirmed candidacy back to pending, returning false if the registration didn't confirm it
func (s *StateMachine) demoteCandidacy(reg *Registration, txID string) bool {
	c := s.candidates[candidacyIndexKey(reg.PublicKey)]
	if c == nil || c.Status != StatusConfirmed || c.TxID != txID || c.Genesis {
		return false
	}
	s.candidates[candidacyIndexKey(reg.PublicKey)] = &Candidacy{
		PublicKey: c.PublicKey,
		TxID:      c.TxID,
		Status:    StatusPending,
	}
	return true
}

// dropCandidacy() removes the pending candidacy owned by the transaction
func (s *StateMachine) dropCandidacy(reg *Registration, txID string) {
	key := candidacyIndexKey(reg.PublicKey)
	if c := s.candidates[key]; c != nil && c.Status == StatusPending && c.TxID == txID {
		delete(s.candidates, key)
	}
}

// ListRegisteredCandidates() returns the confirmed candidacies as of the confirmed tip
func (s *StateMachine) ListRegisteredCandidates() []Candidacy { return s.Snapshot().Candidates }

// GetCandidacy() returns the best known candidacy for a public key, pending or confirmed
func (s *StateMachine) GetCandidacy(pubKey []byte) (Candidacy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, found := s.candidates[candidacyIndexKey(pubKey)]
	if !found {
		return Candidacy{}, false
	}
	return *c, true
}
