package fsm

import (
	"testing"

	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
	"github.com/stretchr/testify/require"
)

func TestTransactionSignature(t *testing.T) {
	key := newTestKey(t)
	tx, err := NewRegistrationTx(key.PrivateKey)
	require.NoError(t, err)
	require.NoError(t, tx.CheckSignature())
	// the id is stable across encode and decode
	bz, err := tx.Bytes()
	require.NoError(t, err)
	decoded, err := DecodeTransaction(bz)
	require.NoError(t, err)
	id1, err := tx.ID()
	require.NoError(t, err)
	id2, err := decoded.ID()
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.NoError(t, decoded.CheckSignature())
	// a registration for someone else's key signed by this key doesn't verify
	other := newTestKey(t)
	decoded.Registration.PublicKey = other.PublicKey.Bytes()
	require.ErrorIs(t, decoded.CheckSignature(), ErrInvalidSignature())
	// an empty signature never verifies
	tx.Signature = nil
	require.ErrorIs(t, tx.CheckSignature(), ErrInvalidSignature())
}

func TestTransactionCheck(t *testing.T) {
	voter, candidate := newTestKey(t), newTestKey(t)
	yes := VoteEntry{Candidate: candidate.PublicKey.Bytes(), Value: VoteYes}
	tests := []struct {
		name     string
		detail   string
		tx       *Transaction
		expected lib.ErrorI
	}{
		{
			name:   "valid registration",
			detail: "a registration with a public key",
			tx:     &Transaction{Type: TxTypeRegistration, Registration: &Registration{PublicKey: candidate.PublicKey.Bytes()}},
		},
		{
			name:   "valid vote",
			detail: "a vote with one yes entry",
			tx:     &Transaction{Type: TxTypeVote, Vote: &Vote{Voter: voter.PublicKey.Bytes(), Votes: []VoteEntry{yes}}},
		},
		{
			name:     "unknown type",
			detail:   "the type must be registration or vote",
			tx:       &Transaction{Type: "stake"},
			expected: ErrUnknownTxType("stake"),
		},
		{
			name:     "mismatched payload",
			detail:   "a registration type must carry a registration payload",
			tx:       &Transaction{Type: TxTypeRegistration, Vote: &Vote{}},
			expected: ErrUnknownTxType(TxTypeRegistration),
		},
		{
			name:     "empty votes",
			detail:   "a vote must carry at least one entry",
			tx:       &Transaction{Type: TxTypeVote, Vote: &Vote{Voter: voter.PublicKey.Bytes()}},
			expected: ErrEmptyVotes(),
		},
		{
			name:     "repeated candidate",
			detail:   "a candidate may appear once per vote",
			tx:       &Transaction{Type: TxTypeVote, Vote: &Vote{Voter: voter.PublicKey.Bytes(), Votes: []VoteEntry{yes, yes}}},
			expected: ErrDuplicateVoteEntry(candidate.PublicKey.String()),
		},
		{
			name:   "bad vote value",
			detail: "a vote value is yes or no",
			tx: &Transaction{Type: TxTypeVote, Vote: &Vote{Voter: voter.PublicKey.Bytes(), Votes: []VoteEntry{
				{Candidate: candidate.PublicKey.Bytes(), Value: "maybe"},
			}}},
			expected: ErrInvalidVoteValue("maybe"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.tx.Check()
			if test.expected == nil {
				require.NoError(t, err, test.detail)
				return
			}
			require.ErrorIs(t, err, test.expected, test.detail)
		})
	}
}

func TestDecodeTransaction(t *testing.T) {
	_, err := DecodeTransaction(nil)
	require.ErrorIs(t, err, ErrNilTransaction())
	_, err = DecodeTransaction([]byte("{"))
	require.True(t, lib.IsErrorCode(err, lib.MainModule, lib.CodeJSONUnmarshal))
	_, err = DecodeTransaction([]byte(`{"type":"validator_vote","vote":{"voter":"02","votes":[]}}`))
	require.ErrorIs(t, err, ErrEmptyVotes())
}

func TestParseVoteValue(t *testing.T) {
	v, err := ParseVoteValue("yes")
	require.NoError(t, err)
	require.Equal(t, VoteYes, v)
	v, err = ParseVoteValue("no")
	require.NoError(t, err)
	require.Equal(t, VoteNo, v)
	_, err = ParseVoteValue("abstain")
	require.Error(t, err)
}

func newTestKey(t *testing.T) *crypto.KeyGroup {
	key, err := crypto.NewRandomKeyGroup()
	require.NoError(t, err)
	return key
}
