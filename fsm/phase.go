package fsm

import (
	"fmt"

	"github.com/canopy-network/mnvalidator/lib"
)

/* This file implements the phase calculator: a pure function of block height over the governance cycle */

// Phase is the stage of the governance cycle a block height falls in
type Phase int

const (
	Dormant            Phase = iota // before the first cycle starts
	RegistrationOpen                // candidacies may be submitted
	RegistrationClosed              // waiting for voting to open
	VotingOpen                      // votes may be submitted
	VotingClosed                    // waiting for the settle window
	Settled                         // the cycle's outcome is final until the next cycle
)

// String() returns the name of the phase
func (p Phase) String() string {
	switch p {
	case Dormant:
		return "dormant"
	case RegistrationOpen:
		return "registration_open"
	case RegistrationClosed:
		return "registration_closed"
	case VotingOpen:
		return "voting_open"
	case VotingClosed:
		return "voting_closed"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// Kind() returns the short name used in phase violation messages
func (p Phase) Kind() string {
	switch p {
	case RegistrationOpen:
		return "registration"
	case VotingOpen:
		return "voting"
	}
	return p.String()
}

// MarshalText() encodes the phase as its name
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText() decodes the phase from its name
func (p *Phase) UnmarshalText(b []byte) error {
	for candidate := Dormant; candidate <= Settled; candidate++ {
		if candidate.String() == string(b) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// Schedule computes phases from the governance cycle layout
// It holds no chain state; every answer is derived from the height argument alone
type Schedule struct {
	lib.GovernanceConfig
}

// NewSchedule() creates a phase calculator for the cycle layout
func NewSchedule(config lib.GovernanceConfig) Schedule { return Schedule{GovernanceConfig: config} }

// position() returns the offset of the height within its cycle and false if the height is dormant
func (s Schedule) position(height uint64) (uint64, bool) {
	if height < s.StartHeight || s.PeriodLength == 0 {
		return 0, false
	}
	return (height - s.StartHeight) % s.PeriodLength, true
}

// PhaseAt() returns the phase at a height and the number of blocks until the next phase transition
func (s Schedule) PhaseAt(height uint64) (Phase, uint64) {
	pos, ok := s.position(height)
	if !ok {
		return Dormant, s.StartHeight - height
	}
	votingEnd := s.VotingStart + s.VotingLength
	switch {
	case pos < s.RegistrationLength:
		return RegistrationOpen, s.RegistrationLength - pos
	case pos < s.VotingStart:
		return RegistrationClosed, s.VotingStart - pos
	case pos < votingEnd:
		return VotingOpen, votingEnd - pos
	case pos < s.SettleStart:
		return VotingClosed, s.SettleStart - pos
	default:
		return Settled, s.PeriodLength - pos
	}
}

// CycleAt() returns the index of the cycle the height belongs to and false if the height is dormant
func (s Schedule) CycleAt(height uint64) (uint64, bool) {
	if _, ok := s.position(height); !ok {
		return 0, false
	}
	return (height - s.StartHeight) / s.PeriodLength, true
}

// BlocksUntilRegistration() returns 0 if registration is open at the height, else the blocks until it opens
func (s Schedule) BlocksUntilRegistration(height uint64) uint64 {
	pos, ok := s.position(height)
	switch {
	case !ok:
		return s.StartHeight - height
	case pos < s.RegistrationLength:
		return 0
	default:
		return s.PeriodLength - pos
	}
}

// BlocksUntilVoting() returns 0 if voting is open at the height, else the blocks until it opens
func (s Schedule) BlocksUntilVoting(height uint64) uint64 {
	pos, ok := s.position(height)
	switch {
	case !ok:
		return s.StartHeight - height + s.VotingStart
	case pos < s.VotingStart:
		return s.VotingStart - pos
	case pos < s.VotingStart+s.VotingLength:
		return 0
	default:
		return s.PeriodLength - pos + s.VotingStart
	}
}

// CheckWindow() returns a PhaseViolation if the height is outside the window the phase opens
func (s Schedule) CheckWindow(awaited Phase, height uint64) lib.ErrorI {
	var remaining uint64
	switch awaited {
	case RegistrationOpen:
		remaining = s.BlocksUntilRegistration(height)
	case VotingOpen:
		remaining = s.BlocksUntilVoting(height)
	default:
		return nil
	}
	if remaining == 0 {
		return nil
	}
	return ErrPhaseViolation(awaited, remaining)
}

// PhaseInfo summarizes the schedule at the height the next block will have
type PhaseInfo struct {
	Height                  uint64 `json:"height"`                  // the confirmed tip
	NextHeight              uint64 `json:"nextHeight"`              // the height submissions are judged at
	Phase                   Phase  `json:"phase"`                   // the phase at the next height
	BlocksUntilNext         uint64 `json:"blocksUntilNext"`         // blocks until the next transition
	BlocksUntilRegistration uint64 `json:"blocksUntilRegistration"` // 0 while registration is open
	BlocksUntilVoting       uint64 `json:"blocksUntilVoting"`       // 0 while voting is open
}

// Info() builds the PhaseInfo for a confirmed tip
func (s Schedule) Info(tip uint64) PhaseInfo {
	next := tip + 1
	phase, until := s.PhaseAt(next)
	return PhaseInfo{
		Height:                  tip,
		NextHeight:              next,
		Phase:                   phase,
		BlocksUntilNext:         until,
		BlocksUntilRegistration: s.BlocksUntilRegistration(next),
		BlocksUntilVoting:       s.BlocksUntilVoting(next),
	}
}
