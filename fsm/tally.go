package fsm

import (
	"sort"

	"github.com/canopy-network/mnvalidator/lib"
	mapset "github.com/deckarep/golang-set"
	lru "github.com/hashicorp/golang-lru"
)

/* This file implements the tally and active set engine, a pure computation over confirmed ledger snapshots */

const defaultTallyCacheSize = 128

// Snapshot is an immutable, height stamped copy of the confirmed ledgers
type Snapshot struct {
	Height     uint64       `json:"height"`     // the confirmed tip the copy was taken at
	Generation uint64       `json:"generation"` // bumped on every disconnect so views of discarded branches never mix
	Candidates []Candidacy  `json:"candidates"` // confirmed candidacies ordered by public key
	Votes      []VoteRecord `json:"votes"`      // confirmed votes ordered by (voter, candidate)
}

// TallyEngine derives active validator sets from snapshots and memoizes them per (generation, height)
// The memo is a cache of pure results; it never holds counters that outlive a reorg
type TallyEngine struct {
	threshold uint64        // confirmed yes votes needed to become active
	cache     *lru.ARCCache // tallyKey -> mapset.Set
	log       lib.LoggerI   // logging
}

// tallyKey identifies a memoized active set
type tallyKey struct {
	generation uint64
	height     uint64
}

// NewTallyEngine() creates a tally engine with an activation threshold
func NewTallyEngine(threshold uint64, log lib.LoggerI) (*TallyEngine, lib.ErrorI) {
	cache, err := lru.NewARC(defaultTallyCacheSize)
	if err != nil {
		return nil, lib.ErrInvalidArgument()
	}
	return &TallyEngine{threshold: threshold, cache: cache, log: log}, nil
}

// Tally() counts, for each candidate confirmed at or before height, the confirmed yes votes at or before height
func Tally(snapshot *Snapshot, height uint64) map[string]uint64 {
	counts := make(map[string]uint64, len(snapshot.Candidates))
	for _, c := range snapshot.Candidates {
		if c.Height <= height {
			counts[c.PublicKey.String()] = 0
		}
	}
	for _, v := range snapshot.Votes {
		if v.Height > height || v.Value != VoteYes {
			continue
		}
		candidate := v.Candidate.String()
		if _, registered := counts[candidate]; registered {
			counts[candidate]++
		}
	}
	return counts
}

// ActiveSetAt() returns the hex public keys active at height: genesis validators plus candidates at or above threshold
// Heights beyond the snapshot are answered with the snapshot tip and not memoized
func (t *TallyEngine) ActiveSetAt(snapshot *Snapshot, height uint64) mapset.Set {
	if height > snapshot.Height {
		return t.compute(snapshot, snapshot.Height)
	}
	key := tallyKey{generation: snapshot.Generation, height: height}
	if cached, found := t.cache.Get(key); found {
		return cached.(mapset.Set).Clone()
	}
	set := t.compute(snapshot, height)
	t.cache.Add(key, set.Clone())
	return set
}

// compute() derives the active set from scratch
func (t *TallyEngine) compute(snapshot *Snapshot, height uint64) mapset.Set {
	set := mapset.NewSet()
	for _, c := range snapshot.Candidates {
		if c.Genesis {
			set.Add(c.PublicKey.String())
		}
	}
	for candidate, yes := range Tally(snapshot, height) {
		if yes >= t.threshold {
			set.Add(candidate)
		}
	}
	return set
}

// Purge() drops every memoized set
func (t *TallyEngine) Purge() {
	t.cache.Purge()
	t.log.Debug("Purged tally cache")
}

// SortedMembers() returns the members of a string set in ascending order
func SortedMembers(set mapset.Set) []string {
	members := make([]string, 0, set.Cardinality())
	for _, m := range set.ToSlice() {
		members = append(members, m.(string))
	}
	sort.Strings(members)
	return members
}
