package fsm

import (
	"errors"
	"fmt"

	"github.com/canopy-network/mnvalidator/lib"
)

// This file defines error objects for the State Machine module

var errEmptyKey = errors.New("empty public key")

// phaseError names the embedded error so its Error() method is promoted
type phaseError = lib.Error

// PhaseViolation is returned when a transaction is submitted outside the window for its kind
// It carries the awaited phase and the exact number of blocks until that phase opens
type PhaseViolation struct {
	phaseError
	Awaited         Phase  `json:"awaited"`         // the phase the transaction needs
	BlocksRemaining uint64 `json:"blocksRemaining"` // blocks until the awaited phase starts
}

// ErrPhaseViolation() builds the '<n> blocks until start of the <kind> phase' rejection
func ErrPhaseViolation(awaited Phase, blocksRemaining uint64) *PhaseViolation {
	msg := fmt.Sprintf("%d blocks until start of the %s phase", blocksRemaining, awaited.Kind())
	return &PhaseViolation{
		phaseError:      *lib.NewError(lib.CodePhaseViolation, lib.StateMachineModule, msg),
		Awaited:         awaited,
		BlocksRemaining: blocksRemaining,
	}
}

// AsPhaseViolation() unwraps a PhaseViolation from an error if there is one
func AsPhaseViolation(err error) (*PhaseViolation, bool) {
	var pv *PhaseViolation
	if errors.As(err, &pv) && pv != nil {
		return pv, true
	}
	return nil, false
}

// IsPermanent() returns true if the rejection can never resolve by waiting or resubmitting
// Mempool duplicates and phase violations are transient, the rest are not
func IsPermanent(err error) bool {
	e, ok := err.(lib.ErrorI)
	if !ok || e == nil || e.Module() != lib.StateMachineModule {
		return false
	}
	switch e.Code() {
	case lib.CodeDuplicateInMempool, lib.CodePhaseViolation:
		return false
	}
	return true
}

func ErrRegistrationPermission() lib.ErrorI {
	return lib.NewError(lib.CodePermissionDenied, lib.StateMachineModule, "CreateValidatorReg failed. You don't have permission for registration transaction.")
}

func ErrVotePermission() lib.ErrorI {
	return lib.NewError(lib.CodePermissionDenied, lib.StateMachineModule, "CreateValidatorVote failed. You don't have permission for voting transaction.")
}

func ErrDuplicateInMempool() lib.ErrorI {
	return lib.NewError(lib.CodeDuplicateInMempool, lib.StateMachineModule, "duplicated-validator-transaction")
}

func ErrAlreadyRegistered() lib.ErrorI {
	return lib.NewError(lib.CodeAlreadyRegistered, lib.StateMachineModule, "bad-validator-already-registered")
}

func ErrAlreadyVoted() lib.ErrorI {
	return lib.NewError(lib.CodeAlreadyVoted, lib.StateMachineModule, "bad-validator-already-voted")
}

func ErrUnknownCandidate(candidate string) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownCandidate, lib.StateMachineModule, fmt.Sprintf("bad-validator-unknown-candidate: %s", candidate))
}

func ErrInvalidSignature() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidSignature, lib.StateMachineModule, "invalid signature")
}

func ErrUnknownTxType(t TxType) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownTxType, lib.StateMachineModule, fmt.Sprintf("unknown validator transaction type: %q", t))
}

func ErrEmptyVotes() lib.ErrorI {
	return lib.NewError(lib.CodeEmptyVotes, lib.StateMachineModule, "vote transaction carries no votes")
}

func ErrDuplicateVoteEntry(candidate string) lib.ErrorI {
	return lib.NewError(lib.CodeDuplicateVoteEntry, lib.StateMachineModule, fmt.Sprintf("candidate %s appears more than once in the vote", candidate))
}

func ErrInvalidVoteValue(v VoteValue) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidVoteValue, lib.StateMachineModule, fmt.Sprintf("vote value must be 'yes' or 'no', got %q", v))
}

func ErrWrongHeight(expected, got uint64) lib.ErrorI {
	return lib.NewError(lib.CodeWrongHeight, lib.StateMachineModule, fmt.Sprintf("expected block height %d, got %d", expected, got))
}

func ErrNilTransaction() lib.ErrorI {
	return lib.NewError(lib.CodeNilTransaction, lib.StateMachineModule, "transaction is empty")
}

func ErrDuplicateInBlock(txID string) lib.ErrorI {
	return lib.NewError(lib.CodeDuplicateInBlock, lib.StateMachineModule, fmt.Sprintf("transaction %s conflicts with an earlier transaction in the block", txID))
}

func ErrUnknownTransaction(txID string) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownTransaction, lib.StateMachineModule, fmt.Sprintf("transaction %s is not pending", txID))
}

func ErrInvalidGenesis(err error) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidGenesis, lib.StateMachineModule, fmt.Sprintf("invalid genesis validator: %s", err.Error()))
}

func ErrNotActiveValidator(pubKey string) lib.ErrorI {
	return lib.NewError(lib.CodeNotActiveValidator, lib.StateMachineModule, fmt.Sprintf("%s is not an active validator", pubKey))
}

func ErrInvalidBlockSignature() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidBlockSignature, lib.StateMachineModule, "invalid validator block signature")
}
