package fsm

import (
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
	mapset "github.com/deckarep/golang-set"
)

/* This file implements the block eligibility gate consulted by block assembly and block validation */

// ActiveSetAt() returns the active validator set as of a confirmed height
func (s *StateMachine) ActiveSetAt(height uint64) mapset.Set {
	return s.tally.ActiveSetAt(s.Snapshot(), height)
}

// ListActiveValidators() returns the hex public keys of the active set at the confirmed tip
func (s *StateMachine) ListActiveValidators() []string {
	snapshot := s.Snapshot()
	return SortedMembers(s.tally.ActiveSetAt(snapshot, snapshot.Height))
}

// MayAttachValidatorSignature() returns true if the key is in the active set of the parent of the proposed block
// The set of the block being built is never consulted
func (s *StateMachine) MayAttachValidatorSignature(proposedHeight uint64, pubKey []byte) bool {
	if proposedHeight == 0 || len(pubKey) == 0 {
		return false
	}
	snapshot := s.Snapshot()
	parent := proposedHeight - 1
	// the parent must already be confirmed locally
	if parent > snapshot.Height {
		return false
	}
	return s.tally.ActiveSetAt(snapshot, parent).Contains(lib.BytesToString(pubKey))
}

// CheckValidatorSignature() is the consensus validity rule for a block carrying a validator signature
// The signer must pass the gate and the signature must verify over the block sign bytes
func (s *StateMachine) CheckValidatorSignature(height uint64, pubKey, signBytes, signature []byte) lib.ErrorI {
	if !s.MayAttachValidatorSignature(height, pubKey) {
		return ErrNotActiveValidator(lib.BytesToString(pubKey))
	}
	publicKey, err := crypto.BytesToSECP256K1Public(pubKey)
	if err != nil {
		return lib.ErrInvalidPublicKey(err)
	}
	if !publicKey.VerifyBytes(signBytes, signature) {
		return ErrInvalidBlockSignature()
	}
	return nil
}

// ActiveSetOf() returns the active validator set at the tip of a snapshot
func (s *StateMachine) ActiveSetOf(snapshot *Snapshot) mapset.Set {
	return s.tally.ActiveSetAt(snapshot, snapshot.Height)
}
