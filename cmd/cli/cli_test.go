package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/canopy-network/mnvalidator/controller"
	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/stretchr/testify/require"
)

func TestArgsToVotes(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		args     []string
		expected []fsm.VoteEntry
		error    lib.ErrorI
	}{
		{
			name:   "single vote",
			detail: "one pubkey and value pair",
			args:   []string{"0a0b", "yes"},
			expected: []fsm.VoteEntry{
				{Candidate: []byte{0x0a, 0x0b}, Value: fsm.VoteYes},
			},
		},
		{
			name:   "multi vote",
			detail: "pairs keep their order",
			args:   []string{"0a", "no", "0b", "yes"},
			expected: []fsm.VoteEntry{
				{Candidate: []byte{0x0a}, Value: fsm.VoteNo},
				{Candidate: []byte{0x0b}, Value: fsm.VoteYes},
			},
		},
		{
			name:   "odd args",
			detail: "a pubkey without a value",
			args:   []string{"0a", "yes", "0b"},
			error:  lib.ErrInvalidArgument(),
		},
		{
			name:   "bad value",
			detail: "only yes and no are votes",
			args:   []string{"0a", "maybe"},
			error:  fsm.ErrInvalidVoteValue("maybe"),
		},
		{
			name:   "bad pubkey",
			detail: "the candidate must be hex",
			args:   []string{"zz", "yes"},
			error:  lib.ErrStringToBytes(os.ErrInvalid),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			votes, err := argsToVotes(test.args)
			if test.error != nil {
				require.ErrorIs(t, err, test.error)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expected, votes)
		})
	}
}

func TestInitializeDataDirectory(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "node")
	c := InitializeDataDirectory(dataDir, lib.NewNullLogger())
	require.Equal(t, dataDir, c.DataDirPath)
	require.Equal(t, lib.DefaultGovernanceConfig(), c.GovernanceConfig)
	// the config and an empty masternode list are written
	require.FileExists(t, filepath.Join(dataDir, lib.ConfigFilePath))
	masternodes, err := controller.NewMasternodeListFromFile(dataDir)
	require.NoError(t, err)
	require.Empty(t, masternodes.List())
	// an edited config survives a second initialization
	c.PeriodLength = 100
	c.SettleStart = 90
	require.NoError(t, c.WriteToFile(filepath.Join(dataDir, lib.ConfigFilePath)))
	reloaded := InitializeDataDirectory(dataDir, lib.NewNullLogger())
	require.EqualValues(t, 100, reloaded.PeriodLength)
}
