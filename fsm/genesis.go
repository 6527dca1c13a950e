package fsm

import (
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
)

// genesisCandidacies() converts the configured genesis validators into confirmed candidacies at height 0
// Genesis validators are always active and can never be registered again
func genesisCandidacies(config lib.GovernanceConfig) ([]*Candidacy, lib.ErrorI) {
	candidacies := make([]*Candidacy, 0, len(config.GenesisValidators))
	for _, hexKey := range config.GenesisValidators {
		publicKey, err := crypto.StringToSECP256K1Public(hexKey)
		if err != nil {
			return nil, ErrInvalidGenesis(err)
		}
		candidacies = append(candidacies, &Candidacy{
			PublicKey: publicKey.Bytes(),
			Status:    StatusConfirmed,
			Genesis:   true,
		})
	}
	return candidacies, nil
}

// ExportState() returns the confirmed ledgers and the governance layout as a single document
func (s *StateMachine) ExportState() *ExportedState {
	return &ExportedState{
		Governance: s.schedule.GovernanceConfig,
		Snapshot:   s.Snapshot(),
	}
}

// ExportedState is the full confirmed governance state at a height
type ExportedState struct {
	Governance lib.GovernanceConfig `json:"governance"`
	*Snapshot
}
