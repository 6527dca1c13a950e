package rpc

import (
	"github.com/canopy-network/mnvalidator/controller"
	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
)

// =====================================================
// Query Request Types
// =====================================================
type heightRequest struct {
	Height uint64 `json:"height"`
}

// =====================================================
// Admin Request Types
// =====================================================
type passwordRequest struct {
	Password string `json:"password"`
}

type generateRequest struct {
	Count              int          `json:"count"`
	ValidatorPublicKey lib.HexBytes `json:"validatorPublicKey,omitempty"` // sign every block with this keystore key
	passwordRequest
}

type registerRequest struct {
	Alias string `json:"alias"`
	passwordRequest
}

type voteRequest struct {
	Votes []fsm.VoteEntry `json:"votes"`
	passwordRequest
}

type keystoreRequest struct {
	PublicKey  lib.HexBytes `json:"publicKey,omitempty"`
	PrivateKey lib.HexBytes `json:"privateKey,omitempty"`
	passwordRequest
}

type masternodeRequest struct {
	Alias     string       `json:"alias"`
	PublicKey lib.HexBytes `json:"publicKey,omitempty"`
	Operating bool         `json:"operating"`
}

// =====================================================
// Result Types
// =====================================================
type heightResult struct {
	Height uint64 `json:"height"`
}

type txResult struct {
	TxID string `json:"txid"`
}

type BlockResult struct {
	Hash  lib.HexBytes      `json:"hash"`
	Block *controller.Block `json:"block"`
}

type DisconnectResult struct {
	Height    uint64   `json:"height"`    // the new tip
	Discarded []string `json:"discarded"` // pending transactions no longer valid at the new tip
}

type ProcessResourceUsage struct {
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	CreateTime    string  `json:"createTime"`
	ThreadCount   uint64  `json:"threadCount"`
	MemoryPercent float64 `json:"usedMemoryPercent"`
	CPUPercent    float64 `json:"usedCPUPercent"`
}

type SystemResourceUsage struct {
	// ram
	TotalRAM       uint64  `json:"totalRAM"`
	AvailableRAM   uint64  `json:"availableRAM"`
	UsedRAM        uint64  `json:"usedRAM"`
	UsedRAMPercent float64 `json:"usedRAMPercent"`
	// cpu
	UsedCPUPercent float64 `json:"usedCPUPercent"`
	// disk holding the data directory
	TotalDisk       uint64  `json:"totalDisk"`
	UsedDisk        uint64  `json:"usedDisk"`
	UsedDiskPercent float64 `json:"usedDiskPercent"`
	FreeDisk        uint64  `json:"freeDisk"`
}

type ResourceUsageResult struct {
	Process ProcessResourceUsage `json:"process"`
	System  SystemResourceUsage  `json:"system"`
}

// errorResult is the body of every non-200 response
type errorResult struct {
	lib.Error
	Awaited         *fsm.Phase `json:"awaited,omitempty"`
	BlocksRemaining uint64     `json:"blocksRemaining,omitempty"`
}

// toError() rebuilds the typed error the server returned
func (e *errorResult) toError() lib.ErrorI {
	if e.Awaited != nil && e.EModule == lib.StateMachineModule && e.ECode == lib.CodePhaseViolation {
		return fsm.ErrPhaseViolation(*e.Awaited, e.BlocksRemaining)
	}
	return lib.NewError(e.ECode, e.EModule, e.Msg)
}
