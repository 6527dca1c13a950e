package controller

import (
	"bytes"
	"time"

	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
)

/* This file implements regtest block production, block validation and chain reorganization */

// Generate() produces n blocks from the mempool and returns their hashes
// If a validator key is given, every block carries its signature; the key must pass the eligibility gate
func (c *Controller) Generate(n int, validatorKey crypto.PrivateKeyI) (hashes []string, err lib.ErrorI) {
	c.Lock()
	defer c.Unlock()
	for i := 0; i < n; i++ {
		block, e := c.produceBlock(validatorKey)
		if e != nil {
			return hashes, e
		}
		if e = c.connectBlock(block); e != nil {
			return hashes, e
		}
		hashes = append(hashes, block.Hash().String())
	}
	return
}

// produceBlock() assembles the next block from the mempool
func (c *Controller) produceBlock(validatorKey crypto.PrivateKeyI) (*Block, lib.ErrorI) {
	height := c.tip.Header.Height + 1
	// consult the gate before doing any work
	if validatorKey != nil && !c.FSM.MayAttachValidatorSignature(height, validatorKey.PublicKey().Bytes()) {
		return nil, fsm.ErrNotActiveValidator(validatorKey.PublicKey().String())
	}
	// select the transactions valid at the height, discarding the rest
	txs, err := c.FSM.AssembleBlockTxs(height, c.Config.MaxBlockBytes)
	if err != nil {
		return nil, err
	}
	block := NewBlock(c.tip, txs)
	if validatorKey != nil {
		block.Sign(validatorKey)
	}
	return block, nil
}

// ConnectBlock() validates a block built elsewhere and connects it on top of the tip
func (c *Controller) ConnectBlock(block *Block) lib.ErrorI {
	c.Lock()
	defer c.Unlock()
	return c.connectBlock(block)
}

// CheckBlock() validates a block against the tip without connecting it
func (c *Controller) CheckBlock(block *Block) lib.ErrorI {
	c.Lock()
	defer c.Unlock()
	if err := c.checkBlock(block); err != nil {
		return err
	}
	return c.FSM.ValidateBlockTxs(block.Header.Height, block.Txs())
}

// checkBlock() validates the header and the validator signature of a block extending the tip
func (c *Controller) checkBlock(block *Block) lib.ErrorI {
	if err := block.CheckBasic(); err != nil {
		return err
	}
	if block.Header.Height != c.tip.Header.Height+1 {
		return fsm.ErrWrongHeight(c.tip.Header.Height+1, block.Header.Height)
	}
	if !bytes.Equal(block.Header.PrevHash, c.tip.Hash()) {
		return ErrInvalidBlock("previous hash mismatch")
	}
	// eligibility is re-derived at acceptance regardless of who produced the block
	if block.Signed() {
		return c.FSM.CheckValidatorSignature(block.Header.Height, block.Header.ValidatorPublicKey, block.SignBytes(), block.ValidatorSignature)
	}
	return nil
}

// connectBlock() validates the block, stages it in the store and hands it to the state machine
// The state machine commits the block together with its facts or discards both
func (c *Controller) connectBlock(block *Block) lib.ErrorI {
	start := time.Now()
	if err := c.checkBlock(block); err != nil {
		return err
	}
	if err := saveBlock(c.store, block); err != nil {
		c.store.Discard()
		return err
	}
	if err := c.FSM.OnBlockConnected(block.Header.Height, block.Txs()); err != nil {
		return err
	}
	c.tip = block
	c.metrics.UpdateChainMetrics(block.Header.Height, block.Signed(), time.Since(start))
	c.notify()
	return nil
}

// DisconnectTip() reverts the tip block and returns the ids of the transactions discarded by the reorg
func (c *Controller) DisconnectTip() (discarded []string, err lib.ErrorI) {
	c.Lock()
	defer c.Unlock()
	_, discarded, err = c.disconnectTip()
	return
}

// disconnectTip() removes the tip block from the store and hands it back to the state machine
func (c *Controller) disconnectTip() (block *Block, discarded []string, err lib.ErrorI) {
	block, height := c.tip, c.tip.Header.Height
	if height == 0 {
		return nil, nil, ErrReorgDepth(1, 0)
	}
	parent, err := loadBlock(c.store, height-1)
	if err != nil {
		return nil, nil, err
	}
	if err = c.store.Delete(KeyForBlock(height)); err != nil {
		c.store.Discard()
		return nil, nil, err
	}
	if discarded, err = c.FSM.OnBlockDisconnected(height, block.Txs()); err != nil {
		return nil, nil, err
	}
	c.tip = parent
	c.metrics.UpdateDisconnect(height - 1)
	c.notify()
	c.log.Infof("Disconnected block %d (%s)", height, block.Hash())
	return block, discarded, nil
}

// Reorganize() disconnects depth blocks in strict descending height and connects the replacement branch
// If any step fails, the original branch is restored and the error is returned
// ErrRestoreFailed is returned if the original branch couldn't be restored either, the tip is then wherever the restore stopped
func (c *Controller) Reorganize(depth uint64, replacement []*Block) (discarded []string, err lib.ErrorI) {
	c.Lock()
	defer c.Unlock()
	if depth > c.tip.Header.Height {
		return nil, ErrReorgDepth(depth, c.tip.Header.Height)
	}
	forkHeight := c.tip.Header.Height - depth
	// disconnect, remembering the old branch tip first
	var old []*Block
	for c.tip.Header.Height > forkHeight {
		block, d, e := c.disconnectTip()
		if e != nil {
			c.log.Warnf("Disconnect of block %d failed: %s", c.tip.Header.Height, e.Error())
			return nil, c.restoreBranch(c.tip.Header.Height, old, e)
		}
		old = append([]*Block{block}, old...)
		discarded = append(discarded, d...)
	}
	// connect the replacement in ascending height
	for _, block := range replacement {
		if err = c.connectBlock(block); err != nil {
			c.log.Warnf("Replacement block %d rejected: %s", block.Header.Height, err.Error())
			return nil, c.restoreBranch(forkHeight, old, err)
		}
	}
	c.log.Infof("Reorganized %d blocks from height %d, new tip %d", depth, forkHeight, c.tip.Header.Height)
	return discarded, nil
}

// restoreBranch() rewinds to the fork height and reconnects the original blocks
// Returns the cause of the failed reorg, or ErrRestoreFailed wrapping both errors if the restore fails
func (c *Controller) restoreBranch(forkHeight uint64, branch []*Block, cause lib.ErrorI) lib.ErrorI {
	for c.tip.Header.Height > forkHeight {
		if _, _, err := c.disconnectTip(); err != nil {
			c.log.Errorf("Unable to rewind the replacement branch: %s", err.Error())
			return ErrRestoreFailed(cause, err)
		}
	}
	for _, block := range branch {
		if err := c.connectBlock(block); err != nil {
			c.log.Errorf("Unable to restore block %d: %s", block.Header.Height, err.Error())
			return ErrRestoreFailed(cause, err)
		}
	}
	return cause
}
