package fsm

import (
	"testing"

	"github.com/canopy-network/mnvalidator/lib"
	"github.com/stretchr/testify/require"
)

func TestTally(t *testing.T) {
	a, b, c := lib.HexBytes{0xa}, lib.HexBytes{0xb}, lib.HexBytes{0xc}
	v1, v2, v3 := lib.HexBytes{0x1}, lib.HexBytes{0x2}, lib.HexBytes{0x3}
	snapshot := &Snapshot{
		Height: 20,
		Candidates: []Candidacy{
			{PublicKey: a, Status: StatusConfirmed, Height: 5},
			{PublicKey: b, Status: StatusConfirmed, Height: 5},
			{PublicKey: c, Status: StatusConfirmed, Height: 15},
		},
		Votes: []VoteRecord{
			{Voter: v1, Candidate: a, Value: VoteYes, Height: 10},
			{Voter: v2, Candidate: a, Value: VoteYes, Height: 12},
			{Voter: v3, Candidate: a, Value: VoteNo, Height: 12},
			{Voter: v1, Candidate: b, Value: VoteNo, Height: 10},
			{Voter: v1, Candidate: c, Value: VoteYes, Height: 16},
		},
	}
	tests := []struct {
		name     string
		detail   string
		height   uint64
		expected map[string]uint64
	}{
		{
			name:     "before any candidacy",
			detail:   "no candidate is confirmed at height 4",
			height:   4,
			expected: map[string]uint64{},
		},
		{
			name:     "before any vote",
			detail:   "confirmed candidates start at zero",
			height:   5,
			expected: map[string]uint64{a.String(): 0, b.String(): 0},
		},
		{
			name:     "partial",
			detail:   "only votes at or before the height count",
			height:   11,
			expected: map[string]uint64{a.String(): 1, b.String(): 0},
		},
		{
			name:     "all",
			detail:   "no votes never count",
			height:   20,
			expected: map[string]uint64{a.String(): 2, b.String(): 0, c.String(): 1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, Tally(snapshot, test.height), test.detail)
		})
	}
}

func TestActiveSetAt(t *testing.T) {
	g, a, b := lib.HexBytes{0x9}, lib.HexBytes{0xa}, lib.HexBytes{0xb}
	snapshot := &Snapshot{
		Height: 20,
		Candidates: []Candidacy{
			{PublicKey: g, Status: StatusConfirmed, Genesis: true},
			{PublicKey: a, Status: StatusConfirmed, Height: 5},
			{PublicKey: b, Status: StatusConfirmed, Height: 5},
		},
		Votes: []VoteRecord{
			{Voter: g, Candidate: a, Value: VoteYes, Height: 10},
			{Voter: a, Candidate: b, Value: VoteYes, Height: 12},
			{Voter: g, Candidate: b, Value: VoteYes, Height: 14},
		},
	}
	tests := []struct {
		name      string
		detail    string
		threshold uint64
		height    uint64
		expected  []string
	}{
		{
			name:      "genesis only",
			detail:    "genesis validators are active without votes",
			threshold: 1,
			height:    0,
			expected:  []string{g.String()},
		},
		{
			name:      "threshold one",
			detail:    "a single yes vote activates",
			threshold: 1,
			height:    12,
			expected:  []string{g.String(), a.String(), b.String()},
		},
		{
			name:      "threshold two before",
			detail:    "b has one of two votes at height 12",
			threshold: 2,
			height:    12,
			expected:  []string{g.String()},
		},
		{
			name:      "threshold two after",
			detail:    "b has both votes at height 14",
			threshold: 2,
			height:    14,
			expected:  []string{g.String(), b.String()},
		},
		{
			name:      "beyond the snapshot",
			detail:    "heights past the snapshot are answered at the snapshot tip",
			threshold: 2,
			height:    100,
			expected:  []string{g.String(), b.String()},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			engine, err := NewTallyEngine(test.threshold, lib.NewNullLogger())
			require.NoError(t, err)
			// compute twice to exercise the memo
			for i := 0; i < 2; i++ {
				require.ElementsMatch(t, test.expected, SortedMembers(engine.ActiveSetAt(snapshot, test.height)), test.detail)
			}
		})
	}
}

func TestActiveSetMemoIsIsolated(t *testing.T) {
	g := lib.HexBytes{0x9}
	snapshot := &Snapshot{Height: 1, Candidates: []Candidacy{{PublicKey: g, Status: StatusConfirmed, Genesis: true}}}
	engine, err := NewTallyEngine(1, lib.NewNullLogger())
	require.NoError(t, err)
	// mutating a returned set never leaks into the memo
	set := engine.ActiveSetAt(snapshot, 1)
	set.Add("intruder")
	require.Equal(t, []string{g.String()}, SortedMembers(engine.ActiveSetAt(snapshot, 1)))
	// a new generation at the same height is computed from its own snapshot
	reorged := &Snapshot{Height: 1, Generation: 1}
	require.Zero(t, engine.ActiveSetAt(reorged, 1).Cardinality())
	engine.Purge()
	require.Equal(t, []string{g.String()}, SortedMembers(engine.ActiveSetAt(snapshot, 1)))
}
