package fsm

import (
	"testing"

	"github.com/canopy-network/mnvalidator/lib"
	"github.com/stretchr/testify/require"
)

func TestPhaseAt(t *testing.T) {
	schedule := NewSchedule(lib.DefaultGovernanceConfig())
	tests := []struct {
		name          string
		detail        string
		height        uint64
		expected      Phase
		expectedUntil uint64
	}{
		{
			name:          "genesis",
			detail:        "heights before the first cycle are dormant",
			height:        0,
			expected:      Dormant,
			expectedUntil: 80,
		},
		{
			name:          "last dormant",
			detail:        "the block before the first cycle is still dormant",
			height:        79,
			expected:      Dormant,
			expectedUntil: 1,
		},
		{
			name:          "cycle start",
			detail:        "the first block of a cycle opens registration",
			height:        80,
			expected:      RegistrationOpen,
			expectedUntil: 20,
		},
		{
			name:          "registration closed",
			detail:        "offset 20 closes registration",
			height:        100,
			expected:      RegistrationClosed,
			expectedUntil: 20,
		},
		{
			name:          "voting open",
			detail:        "offset 40 opens voting",
			height:        120,
			expected:      VotingOpen,
			expectedUntil: 20,
		},
		{
			name:          "voting closed",
			detail:        "offset 60 closes voting",
			height:        140,
			expected:      VotingClosed,
			expectedUntil: 10,
		},
		{
			name:          "settled",
			detail:        "offset 70 settles the cycle",
			height:        150,
			expected:      Settled,
			expectedUntil: 10,
		},
		{
			name:          "last settled",
			detail:        "the last block of a cycle",
			height:        159,
			expected:      Settled,
			expectedUntil: 1,
		},
		{
			name:          "next cycle",
			detail:        "the cycle repeats every period",
			height:        160,
			expected:      RegistrationOpen,
			expectedUntil: 20,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			phase, until := schedule.PhaseAt(test.height)
			require.Equal(t, test.expected, phase, test.detail)
			require.Equal(t, test.expectedUntil, until, test.detail)
		})
	}
}

func TestPhaseMonotonic(t *testing.T) {
	schedule := NewSchedule(lib.DefaultGovernanceConfig())
	// walking one block at a time, the phase only changes when the countdown reaches its end
	prev, prevUntil := schedule.PhaseAt(0)
	for h := uint64(1); h < 5*80; h++ {
		phase, until := schedule.PhaseAt(h)
		if prevUntil == 1 {
			require.NotEqual(t, prev, phase, "height %d", h)
		} else {
			require.Equal(t, prev, phase, "height %d", h)
			require.Equal(t, prevUntil-1, until, "height %d", h)
		}
		prev, prevUntil = phase, until
	}
}

func TestBlocksUntilWindows(t *testing.T) {
	schedule := NewSchedule(lib.DefaultGovernanceConfig())
	tests := []struct {
		name                 string
		detail               string
		height               uint64
		expectedRegistration uint64
		expectedVoting       uint64
	}{
		{
			name:                 "dormant",
			detail:               "counts run to the first cycle",
			height:               10,
			expectedRegistration: 70,
			expectedVoting:       110,
		},
		{
			name:                 "registration submission trace",
			detail:               "a submission at tip 280 is judged at 281 which is 39 blocks from the next registration window",
			height:               281,
			expectedRegistration: 39,
			expectedVoting:       0,
		},
		{
			name:                 "vote submission trace",
			detail:               "a submission at tip 329 is judged at 330 which is 30 blocks from the voting window",
			height:               330,
			expectedRegistration: 0,
			expectedVoting:       30,
		},
		{
			name:                 "voting open",
			detail:               "no wait while voting is open",
			height:               360,
			expectedRegistration: 40,
			expectedVoting:       0,
		},
		{
			name:                 "after voting",
			detail:               "after the voting window the count runs to the next cycle's voting window",
			height:               380,
			expectedRegistration: 20,
			expectedVoting:       60,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expectedRegistration, schedule.BlocksUntilRegistration(test.height), test.detail)
			require.Equal(t, test.expectedVoting, schedule.BlocksUntilVoting(test.height), test.detail)
		})
	}
}

func TestCheckWindow(t *testing.T) {
	schedule := NewSchedule(lib.DefaultGovernanceConfig())
	// registration
	err := schedule.CheckWindow(RegistrationOpen, 281)
	require.Error(t, err)
	require.Equal(t, lib.CodePhaseViolation, err.Code())
	pv, ok := AsPhaseViolation(err)
	require.True(t, ok)
	require.Equal(t, "39 blocks until start of the registration phase", pv.Msg)
	require.Equal(t, RegistrationOpen, pv.Awaited)
	require.EqualValues(t, 39, pv.BlocksRemaining)
	require.False(t, IsPermanent(err))
	// voting
	err = schedule.CheckWindow(VotingOpen, 330)
	pv, ok = AsPhaseViolation(err)
	require.True(t, ok)
	require.Equal(t, "30 blocks until start of the voting phase", pv.Msg)
	// inside the windows
	require.Nil(t, schedule.CheckWindow(RegistrationOpen, 320))
	require.Nil(t, schedule.CheckWindow(VotingOpen, 360))
}

func TestPhaseViolationCountMatchesSchedule(t *testing.T) {
	schedule := NewSchedule(lib.DefaultGovernanceConfig())
	for h := uint64(0); h < 4*80; h++ {
		phase, _ := schedule.PhaseAt(h)
		err := schedule.CheckWindow(RegistrationOpen, h)
		if phase == RegistrationOpen {
			require.Nil(t, err, "height %d", h)
			continue
		}
		pv, ok := AsPhaseViolation(err)
		require.True(t, ok, "height %d", h)
		require.Equal(t, schedule.BlocksUntilRegistration(h), pv.BlocksRemaining)
		// advancing by the reported count lands exactly on an open registration window
		landed, _ := schedule.PhaseAt(h + pv.BlocksRemaining)
		require.Equal(t, RegistrationOpen, landed, "height %d", h)
	}
}

func TestPhaseText(t *testing.T) {
	for p := Dormant; p <= Settled; p++ {
		text, err := p.MarshalText()
		require.NoError(t, err)
		var got Phase
		require.NoError(t, got.UnmarshalText(text))
		require.Equal(t, p, got)
	}
	var p Phase
	require.Error(t, p.UnmarshalText([]byte("harvest")))
}
