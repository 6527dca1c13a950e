package fsm

import (
	"github.com/canopy-network/mnvalidator/lib"
)

/* key.go contains prefix keys logic for the confirmed facts in the underlying store */

var (
	candidacyPrefix = []byte{1} // store key prefix for confirmed candidacies
	votePrefix      = []byte{2} // store key prefix for confirmed vote records
)

/*
- Only confirmed facts are persisted; pending facts live in memory next to the mempool

- Length prefixed append is used to be able to easily separate the segments of a key

- Iterating a prefix reloads a whole ledger on startup
*/
func CandidacyPrefix() []byte                   { return lib.JoinLenPrefix(candidacyPrefix) }
func VotePrefix() []byte                        { return lib.JoinLenPrefix(votePrefix) }
func KeyForCandidacy(pubKey []byte) []byte      { return lib.JoinLenPrefix(candidacyPrefix, pubKey) }
func KeyForVote(voter, candidate []byte) []byte { return lib.JoinLenPrefix(votePrefix, voter, candidate) }

// candidacyIndexKey() is the registration ledger key for a candidate
func candidacyIndexKey(pubKey []byte) string { return lib.BytesToString(pubKey) }

// voteIndexKey() is the voting ledger key for a (voter, candidate) pair
func voteIndexKey(voter, candidate []byte) string {
	return lib.BytesToString(voter) + "/" + lib.BytesToString(candidate)
}
