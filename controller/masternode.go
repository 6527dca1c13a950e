package controller

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
)

/* This file implements the local masternode list, the node's identity oracle */

const MasternodeListName = "masternode.json"

var _ fsm.IdentityOracle = new(MasternodeList) // enforce the oracle interface

// Masternode is one entry of the masternode list
type Masternode struct {
	Alias     string       `json:"alias"`     // the operator chosen name
	PublicKey lib.HexBytes `json:"publicKey"` // the masternode key
	Operating bool         `json:"operating"` // true while the masternode runs and is synced
}

// MasternodeList is the set of masternodes known to this node, indexed by alias
type MasternodeList struct {
	mu      sync.RWMutex
	byAlias map[string]*Masternode
}

// NewMasternodeList() creates a list from entries
func NewMasternodeList(entries ...Masternode) (*MasternodeList, lib.ErrorI) {
	l := &MasternodeList{byAlias: make(map[string]*Masternode)}
	for _, e := range entries {
		if err := l.Add(e.Alias, e.PublicKey, e.Operating); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// NewMasternodeListFromFile() loads '<dataDir>/masternode.json', a missing file is an empty list
func NewMasternodeListFromFile(dataDirPath string) (*MasternodeList, lib.ErrorI) {
	path := filepath.Join(dataDirPath, MasternodeListName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return NewMasternodeList()
	}
	var entries []Masternode
	if err := lib.NewJSONFromFile(&entries, dataDirPath, MasternodeListName); err != nil {
		return nil, err
	}
	return NewMasternodeList(entries...)
}

// SaveToFile() persists the list to the data directory
func (l *MasternodeList) SaveToFile(dataDirPath string) lib.ErrorI {
	return lib.SaveJSONToFile(l.List(), dataDirPath, MasternodeListName)
}

// Add() inserts a masternode under a new alias
func (l *MasternodeList) Add(alias string, publicKey []byte, operating bool) lib.ErrorI {
	if alias == "" || len(publicKey) == 0 {
		return lib.ErrInvalidArgument()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byAlias[alias]; exists {
		return ErrDuplicateAlias(alias)
	}
	l.byAlias[alias] = &Masternode{Alias: alias, PublicKey: publicKey, Operating: operating}
	return nil
}

// SetOperating() marks a masternode as running and synced or not
func (l *MasternodeList) SetOperating(alias string, operating bool) lib.ErrorI {
	l.mu.Lock()
	defer l.mu.Unlock()
	mn, found := l.byAlias[alias]
	if !found {
		return ErrAliasNotFound(alias)
	}
	mn.Operating = operating
	return nil
}

// Remove() deletes a masternode by alias
func (l *MasternodeList) Remove(alias string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byAlias, alias)
}

// List() returns a copy of every entry ordered by alias
func (l *MasternodeList) List() []Masternode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	list := make([]Masternode, 0, len(l.byAlias))
	for _, mn := range l.byAlias {
		list = append(list, *mn)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Alias < list[j].Alias })
	return list
}

// OwnsActiveMasternode() returns true if the key belongs to a listed masternode that is operating
func (l *MasternodeList) OwnsActiveMasternode(pubKey []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, mn := range l.byAlias {
		if mn.Operating && bytes.Equal(mn.PublicKey, pubKey) {
			return true
		}
	}
	return false
}

// ResolveAlias() maps an alias to its masternode public key
func (l *MasternodeList) ResolveAlias(alias string) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	mn, found := l.byAlias[alias]
	if !found {
		return nil, false
	}
	return mn.PublicKey, true
}
