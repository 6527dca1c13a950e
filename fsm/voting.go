package fsm

import (
	"github.com/canopy-network/mnvalidator/lib"
)

/* This file implements the voting ledger: one vote per (voter, candidate) pair across mempool and chain */

// VoteRecord is one masternode operator's vote on one candidacy
type VoteRecord struct {
	Voter     lib.HexBytes `json:"voter"`     // the voting masternode key
	Candidate lib.HexBytes `json:"candidate"` // the candidate voted on
	Value     VoteValue    `json:"vote"`      // yes or no
	TxID      string       `json:"txid"`      // the vote transaction
	Status    Status       `json:"status"`    // pending or confirmed
	Height    uint64       `json:"height"`    // the confirming block, 0 while pending
}

// key() returns the voting ledger key of the record
func (v *VoteRecord) key() string { return voteIndexKey(v.Voter, v.Candidate) }

// checkVote() runs the admission rules for a vote judged at height
// Every entry must pass for the transaction to be admitted
// Order: permission, duplicate in history, phase, unknown candidate, duplicate in mempool (or block)
func (s *StateMachine) checkVote(tx *Transaction, txID string, height uint64, mode checkMode, inBlock map[string]struct{}) lib.ErrorI {
	vote := tx.Vote
	if err := tx.CheckSignature(); err != nil {
		return err
	}
	// the voter must operate a running, synced masternode regardless of the candidate
	// the oracle is node local, so blocks are judged on chain state alone
	if mode != blockCheck && !s.oracle.OwnsActiveMasternode(vote.Voter) {
		return ErrVotePermission()
	}
	// a pair may only be voted once for the lifetime of the chain
	for _, entry := range vote.Votes {
		if r := s.votes[voteIndexKey(vote.Voter, entry.Candidate)]; r != nil && r.Status == StatusConfirmed {
			return ErrAlreadyVoted()
		}
	}
	if err := s.schedule.CheckWindow(VotingOpen, height); err != nil {
		return err
	}
	// every candidate must have a confirmed candidacy
	for _, entry := range vote.Votes {
		if c := s.candidates[candidacyIndexKey(entry.Candidate)]; c == nil || c.Status != StatusConfirmed {
			return ErrUnknownCandidate(entry.Candidate.String())
		}
	}
	for _, entry := range vote.Votes {
		key := voteIndexKey(vote.Voter, entry.Candidate)
		var pendingTxID string
		if r := s.votes[key]; r != nil {
			pendingTxID = r.TxID
		}
		if err := checkPendingConflict(key, pendingTxID, txID, mode, inBlock); err != nil {
			return err
		}
	}
	return nil
}

// pendVotes() inserts the pending records of every entry of a vote
func (s *StateMachine) pendVotes(vote *Vote, txID string) {
	for _, entry := range vote.Votes {
		r := &VoteRecord{
			Voter:     vote.Voter,
			Candidate: entry.Candidate,
			Value:     entry.Value,
			TxID:      txID,
			Status:    StatusPending,
		}
		s.votes[r.key()] = r
	}
}

// confirmedVotes() builds the confirmed records a vote produces at height
func confirmedVotes(vote *Vote, txID string, height uint64) (records []*VoteRecord) {
	for _, entry := range vote.Votes {
		records = append(records, &VoteRecord{
			Voter:     vote.Voter,
			Candidate: entry.Candidate,
			Value:     entry.Value,
			TxID:      txID,
			Status:    StatusConfirmed,
			Height:    height,
		})
	}
	return
}

// demoteVotes() moves the confirmed records of a vote back to pending, returning false if the vote confirmed none
func (s *StateMachine) demoteVotes(vote *Vote, txID string) (demoted bool) {
	for _, entry := range vote.Votes {
		key := voteIndexKey(vote.Voter, entry.Candidate)
		r := s.votes[key]
		if r == nil || r.Status != StatusConfirmed || r.TxID != txID {
			continue
		}
		s.votes[key] = &VoteRecord{
			Voter:     r.Voter,
			Candidate: r.Candidate,
			Value:     r.Value,
			TxID:      r.TxID,
			Status:    StatusPending,
		}
		demoted = true
	}
	return
}

// dropVotes() removes the pending records owned by the transaction
func (s *StateMachine) dropVotes(vote *Vote, txID string) {
	for _, entry := range vote.Votes {
		key := voteIndexKey(vote.Voter, entry.Candidate)
		if r := s.votes[key]; r != nil && r.Status == StatusPending && r.TxID == txID {
			delete(s.votes, key)
		}
	}
}

// ListVotes() returns the confirmed vote records as of the confirmed tip
func (s *StateMachine) ListVotes() []VoteRecord { return s.Snapshot().Votes }

// GetVote() returns the best known record for a (voter, candidate) pair, pending or confirmed
func (s *StateMachine) GetVote(voter, candidate []byte) (VoteRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, found := s.votes[voteIndexKey(voter, candidate)]
	if !found {
		return VoteRecord{}, false
	}
	return *r, true
}
