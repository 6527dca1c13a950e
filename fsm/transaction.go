package fsm

import (
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
)

/* This file defines the validator transactions and their signing, encoding and structural checks */

// TxType identifies the payload of a validator transaction
type TxType string

const (
	TxTypeRegistration TxType = "validator_registration" // a masternode bids to become a validator
	TxTypeVote         TxType = "validator_vote"         // a masternode operator votes on candidates
)

// VoteValue is the choice carried by a single vote entry
type VoteValue string

const (
	VoteYes VoteValue = "yes"
	VoteNo  VoteValue = "no"
)

// Transaction is the signed envelope of a validator registration or vote
type Transaction struct {
	Type         TxType        `json:"type"`                   // which payload is set
	Registration *Registration `json:"registration,omitempty"` // set for registrations
	Vote         *Vote         `json:"vote,omitempty"`         // set for votes
	Signature    lib.HexBytes  `json:"signature,omitempty"`    // DER signature over the sign bytes by the signer
}

// Registration is a masternode's bid to become a validator, signed by the candidate key
type Registration struct {
	PublicKey lib.HexBytes `json:"pubkey"`
}

// Vote carries one operator's votes on one or more candidates, signed by the voter key
type Vote struct {
	Voter lib.HexBytes `json:"voter"`
	Votes []VoteEntry  `json:"votes"`
}

// VoteEntry is a single choice on a single candidate
type VoteEntry struct {
	Candidate lib.HexBytes `json:"pubkey"`
	Value     VoteValue    `json:"vote"`
}

// NewRegistrationTx() creates a registration for the key's public key signed by the key
func NewRegistrationTx(pk crypto.PrivateKeyI) (*Transaction, lib.ErrorI) {
	tx := &Transaction{
		Type:         TxTypeRegistration,
		Registration: &Registration{PublicKey: pk.PublicKey().Bytes()},
	}
	return tx, tx.Sign(pk)
}

// NewVoteTx() creates a vote by the key's public key on the entries, signed by the key
func NewVoteTx(pk crypto.PrivateKeyI, entries []VoteEntry) (*Transaction, lib.ErrorI) {
	tx := &Transaction{
		Type: TxTypeVote,
		Vote: &Vote{Voter: pk.PublicKey().Bytes(), Votes: entries},
	}
	return tx, tx.Sign(pk)
}

// DecodeTransaction() converts transaction bytes into an object and checks its structure
func DecodeTransaction(bz []byte) (*Transaction, lib.ErrorI) {
	if len(bz) == 0 {
		return nil, ErrNilTransaction()
	}
	tx := new(Transaction)
	if err := lib.UnmarshalJSON(bz, tx); err != nil {
		return nil, err
	}
	if err := tx.Check(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Bytes() returns the canonical encoding of the transaction
func (t *Transaction) Bytes() ([]byte, lib.ErrorI) { return lib.MarshalJSON(t) }

// ID() returns the hex sha256 of the canonical encoding
func (t *Transaction) ID() (string, lib.ErrorI) {
	bz, err := t.Bytes()
	if err != nil {
		return "", err
	}
	return crypto.HashString(bz), nil
}

// SignBytes() returns the canonical encoding without the signature
func (t *Transaction) SignBytes() ([]byte, lib.ErrorI) {
	return lib.MarshalJSON(&Transaction{
		Type:         t.Type,
		Registration: t.Registration,
		Vote:         t.Vote,
	})
}

// Sign() populates the signature using the private key
func (t *Transaction) Sign(pk crypto.PrivateKeyI) lib.ErrorI {
	signBytes, err := t.SignBytes()
	if err != nil {
		return err
	}
	t.Signature = pk.Sign(signBytes)
	return nil
}

// Signer() returns the public key the transaction must be signed by
func (t *Transaction) Signer() []byte {
	switch t.Type {
	case TxTypeRegistration:
		return t.Registration.PublicKey
	case TxTypeVote:
		return t.Vote.Voter
	}
	return nil
}

// CheckSignature() validates the signature against the signer public key
func (t *Transaction) CheckSignature() lib.ErrorI {
	if len(t.Signature) == 0 {
		return ErrInvalidSignature()
	}
	publicKey, e := crypto.BytesToSECP256K1Public(t.Signer())
	if e != nil {
		return lib.ErrInvalidPublicKey(e)
	}
	signBytes, err := t.SignBytes()
	if err != nil {
		return err
	}
	if !publicKey.VerifyBytes(signBytes, t.Signature) {
		return ErrInvalidSignature()
	}
	return nil
}

// Check() performs stateless structural validation of the transaction
func (t *Transaction) Check() lib.ErrorI {
	switch t.Type {
	case TxTypeRegistration:
		if t.Registration == nil || t.Vote != nil {
			return ErrUnknownTxType(t.Type)
		}
		if len(t.Registration.PublicKey) == 0 {
			return lib.ErrInvalidPublicKey(errEmptyKey)
		}
		return nil
	case TxTypeVote:
		if t.Vote == nil || t.Registration != nil {
			return ErrUnknownTxType(t.Type)
		}
		return t.Vote.Check()
	default:
		return ErrUnknownTxType(t.Type)
	}
}

// Check() validates the vote entries: at least one, no repeated candidate, yes or no only
func (v *Vote) Check() lib.ErrorI {
	if len(v.Voter) == 0 {
		return lib.ErrInvalidPublicKey(errEmptyKey)
	}
	if len(v.Votes) == 0 {
		return ErrEmptyVotes()
	}
	seen := make(map[string]struct{}, len(v.Votes))
	for _, entry := range v.Votes {
		if len(entry.Candidate) == 0 {
			return lib.ErrInvalidPublicKey(errEmptyKey)
		}
		if entry.Value != VoteYes && entry.Value != VoteNo {
			return ErrInvalidVoteValue(entry.Value)
		}
		candidate := entry.Candidate.String()
		if _, found := seen[candidate]; found {
			return ErrDuplicateVoteEntry(candidate)
		}
		seen[candidate] = struct{}{}
	}
	return nil
}

// ParseVoteValue() converts user input into a VoteValue
func ParseVoteValue(s string) (VoteValue, lib.ErrorI) {
	switch v := VoteValue(s); v {
	case VoteYes, VoteNo:
		return v, nil
	default:
		return "", ErrInvalidVoteValue(v)
	}
}
