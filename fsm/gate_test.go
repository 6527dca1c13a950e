package fsm

import (
	"testing"

	"github.com/canopy-network/mnvalidator/lib"
	"github.com/stretchr/testify/require"
)

func TestMayAttachValidatorSignature(t *testing.T) {
	genesis, candidate, voter, outsider := newTestKey(t), newTestKey(t), newTestKey(t), newTestKey(t)
	config := lib.DefaultGovernanceConfig()
	config.GenesisValidators = []string{genesis.PublicKey.String()}
	chain := newTestChain(t, config, newTestOracle(candidate, voter))
	chain.registerAll(candidate)
	chain.advanceTo(119)
	_, err := chain.submit(newTestVote(t, voter, VoteEntry{Candidate: candidate.PublicKey.Bytes(), Value: VoteYes}))
	require.NoError(t, err)
	chain.generate(1) // the vote confirms at 120
	tests := []struct {
		name     string
		detail   string
		height   uint64
		pubKey   []byte
		expected bool
	}{
		{
			name:     "height zero",
			detail:   "the genesis block has no parent",
			height:   0,
			pubKey:   genesis.PublicKey.Bytes(),
			expected: false,
		},
		{
			name:     "genesis validator",
			detail:   "genesis validators are active from the first block",
			height:   1,
			pubKey:   genesis.PublicKey.Bytes(),
			expected: true,
		},
		{
			name:     "same block as the vote",
			detail:   "the parent of block 120 doesn't have the vote",
			height:   120,
			pubKey:   candidate.PublicKey.Bytes(),
			expected: false,
		},
		{
			name:     "after the vote",
			detail:   "the parent of block 121 has the vote",
			height:   121,
			pubKey:   candidate.PublicKey.Bytes(),
			expected: true,
		},
		{
			name:     "unknown parent",
			detail:   "the parent of block 122 isn't confirmed yet",
			height:   122,
			pubKey:   candidate.PublicKey.Bytes(),
			expected: false,
		},
		{
			name:     "voter only",
			detail:   "the voter never registered so nobody could vote for it",
			height:   121,
			pubKey:   voter.PublicKey.Bytes(),
			expected: false,
		},
		{
			name:     "outsider",
			detail:   "a key with no candidacy",
			height:   121,
			pubKey:   outsider.PublicKey.Bytes(),
			expected: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, chain.sm.MayAttachValidatorSignature(test.height, test.pubKey), test.detail)
		})
	}
	require.Equal(t, SortedMembers(chain.sm.ActiveSetAt(120)), chain.sm.ListActiveValidators())
}

func TestCheckValidatorSignature(t *testing.T) {
	genesis, outsider := newTestKey(t), newTestKey(t)
	config := lib.DefaultGovernanceConfig()
	config.GenesisValidators = []string{genesis.PublicKey.String()}
	chain := newTestChain(t, config, newTestOracle())
	chain.generate(3)
	msg := []byte("block sign bytes")
	tests := []struct {
		name      string
		detail    string
		pubKey    []byte
		signature []byte
		expected  lib.ErrorI
	}{
		{
			name:      "valid",
			detail:    "an active validator signing the block",
			pubKey:    genesis.PublicKey.Bytes(),
			signature: genesis.PrivateKey.Sign(msg),
		},
		{
			name:      "not active",
			detail:    "a valid signature by a key outside the active set",
			pubKey:    outsider.PublicKey.Bytes(),
			signature: outsider.PrivateKey.Sign(msg),
			expected:  ErrNotActiveValidator(""),
		},
		{
			name:      "bad signature",
			detail:    "an active validator key with someone else's signature",
			pubKey:    genesis.PublicKey.Bytes(),
			signature: outsider.PrivateKey.Sign(msg),
			expected:  ErrInvalidBlockSignature(),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := chain.sm.CheckValidatorSignature(4, test.pubKey, msg, test.signature)
			if test.expected == nil {
				require.NoError(t, err, test.detail)
				return
			}
			require.ErrorIs(t, err, test.expected, test.detail)
		})
	}
}
