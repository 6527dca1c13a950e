package controller

import (
	"context"
	"sync"

	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
)

// Controller acts as the 'manager' of the modules of the application
// It is the chain and mempool feed of the state machine: it produces, validates, connects and disconnects blocks
type Controller struct {
	FSM         *fsm.StateMachine // the validator lifecycle state machine
	Mempool     lib.Mempool       // unconfirmed transactions
	Masternodes *MasternodeList   // the identity oracle
	Config      lib.Config        // user configuration
	store       lib.StoreI        // blocks and confirmed facts
	metrics     *lib.Metrics      // telemetry
	tip         *Block            // the last connected block
	refresh     chan struct{}     // signals the metrics refresher after every tip change
	log         lib.LoggerI       // logging
	sync.Mutex                    // serializes block production and chain changes
}

// New() creates a new instance of a Controller, this is the entry point when initializing the node
func New(c lib.Config, store lib.StoreI, masternodes *MasternodeList, metrics *lib.Metrics, l lib.LoggerI) (*Controller, lib.ErrorI) {
	mempool := lib.NewMempool(c.MempoolConfig)
	sm, err := fsm.New(c.GovernanceConfig, store, mempool, masternodes, metrics, l)
	if err != nil {
		return nil, err
	}
	controller := &Controller{
		FSM:         sm,
		Mempool:     mempool,
		Masternodes: masternodes,
		Config:      c,
		store:       store,
		metrics:     metrics,
		refresh:     make(chan struct{}, 1),
		log:         l,
	}
	// load the tip or write the genesis block on first start
	if controller.tip, err = loadBlock(store, sm.Height()); err != nil {
		if sm.Height() != 0 || !lib.IsErrorCode(err, lib.ControllerModule, lib.CodeNoBlocks) {
			return nil, err
		}
		genesis := newGenesisBlock()
		if err = saveBlock(store, genesis); err != nil {
			return nil, err
		}
		if err = store.Commit(0); err != nil {
			return nil, err
		}
		controller.tip = genesis
		l.Infof("Wrote genesis block %s", genesis.Hash())
	}
	controller.notify()
	return controller, nil
}

// Start() runs the background services until the context is cancelled
func (c *Controller) Start(ctx context.Context) {
	c.log.Infof("Starting controller at height %d", c.Height())
	c.refreshMetrics(ctx)
}

// Stop() terminates the Controller service
func (c *Controller) Stop() {
	c.Lock()
	defer c.Unlock()
	if err := c.store.Close(); err != nil {
		c.log.Error(err.Error())
	}
}

// Height() returns the confirmed tip height
func (c *Controller) Height() uint64 { return c.FSM.Height() }

// Tip() returns the last connected block
func (c *Controller) Tip() *Block {
	c.Lock()
	defer c.Unlock()
	return c.tip
}

// LoadBlock() returns the block at a connected height
func (c *Controller) LoadBlock(height uint64) (*Block, lib.ErrorI) {
	c.Lock()
	defer c.Unlock()
	if height > c.tip.Header.Height {
		return nil, ErrBlockNotFound(height)
	}
	return loadBlock(c.store, height)
}

// SendTransaction() submits a wallet or peer transaction to the state machine and the mempool
func (c *Controller) SendTransaction(tx []byte) (string, lib.ErrorI) {
	return c.FSM.HandleTransaction(tx)
}

// notify() wakes the metrics refresher without blocking
func (c *Controller) notify() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// refreshMetrics() recomputes the lifecycle gauges from a height stamped snapshot each time the tip changes
func (c *Controller) refreshMetrics(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.refresh:
			snapshot := c.FSM.Snapshot()
			info := c.FSM.Schedule().Info(snapshot.Height)
			active := c.FSM.ActiveSetOf(snapshot)
			c.metrics.UpdateLifecycleMetrics(int(info.Phase), info.BlocksUntilNext, len(snapshot.Candidates),
				len(snapshot.Votes), active.Cardinality(), c.FSM.PendingCount())
		}
	}
}
