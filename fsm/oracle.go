package fsm

/* This file defines the masternode identity capability the state machine consults synchronously */

// IdentityOracle answers masternode ownership and liveness questions
// Collateral discovery and masternode sync live behind it; the state machine never embeds that logic
type IdentityOracle interface {
	// OwnsActiveMasternode() returns true if the public key belongs to an eligible masternode with a running, synced instance
	OwnsActiveMasternode(pubKey []byte) bool
	// ResolveAlias() returns the masternode public key configured under the alias
	ResolveAlias(alias string) (pubKey []byte, found bool)
}
