package controller

import (
	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
)

/* This file implements alias based validator registration and voting from a wallet */

// Wallet is the set of private keys available to sign governance transactions
type Wallet interface {
	// Holds() returns true if the wallet has the private key of the public key
	Holds(publicKey []byte) bool
	// Key() unlocks the private key of the public key
	Key(publicKey []byte) (crypto.PrivateKeyI, lib.ErrorI)
}

// KeystoreWallet is a Wallet over an encrypted keystore unlocked with one password
type KeystoreWallet struct {
	keystore *crypto.Keystore
	password string
}

// NewKeystoreWallet() unlocks a keystore with a password for the lifetime of the wallet
func NewKeystoreWallet(ks *crypto.Keystore, password string) *KeystoreWallet {
	return &KeystoreWallet{keystore: ks, password: password}
}

// Holds() implements Wallet
func (w *KeystoreWallet) Holds(publicKey []byte) bool { return w.keystore.Has(publicKey) }

// Key() implements Wallet
func (w *KeystoreWallet) Key(publicKey []byte) (crypto.PrivateKeyI, lib.ErrorI) {
	kg, err := w.keystore.GetKeyGroup(publicKey, w.password)
	if err != nil {
		return nil, ErrNoMasternodeKey(err)
	}
	return kg.PrivateKey, nil
}

// RegisterValidator() registers the masternode configured under alias as a validator candidate
// The wallet must hold the masternode key
func (c *Controller) RegisterValidator(wallet Wallet, alias string) (txID string, err lib.ErrorI) {
	publicKey, found := c.Masternodes.ResolveAlias(alias)
	if !found {
		return "", ErrAliasNotFound(alias)
	}
	if !wallet.Holds(publicKey) {
		return "", fsm.ErrRegistrationPermission()
	}
	privateKey, err := wallet.Key(publicKey)
	if err != nil {
		return "", err
	}
	tx, err := fsm.NewRegistrationTx(privateKey)
	if err != nil {
		return "", err
	}
	return c.FSM.SubmitTransaction(tx)
}

// VoteValidators() casts the votes with the wallet's masternode key
// The first listed masternode whose key the wallet holds is the voter, operating entries first
func (c *Controller) VoteValidators(wallet Wallet, votes []fsm.VoteEntry) (txID string, err lib.ErrorI) {
	var voter []byte
	for _, mn := range c.Masternodes.List() {
		if !wallet.Holds(mn.PublicKey) {
			continue
		}
		if mn.Operating {
			voter = mn.PublicKey
			break
		}
		if voter == nil {
			voter = mn.PublicKey
		}
	}
	if voter == nil {
		return "", fsm.ErrVotePermission()
	}
	privateKey, err := wallet.Key(voter)
	if err != nil {
		return "", err
	}
	tx, err := fsm.NewVoteTx(privateKey, votes)
	if err != nil {
		return "", err
	}
	return c.FSM.SubmitTransaction(tx)
}
