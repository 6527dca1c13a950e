package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
	"github.com/canopy-network/mnvalidator/store"
	"github.com/stretchr/testify/require"
)

const testPassword = "password"

func TestValidatorLifecycleTrace(t *testing.T) {
	genesis, master, idle := newTestKey(t), newTestKey(t), newTestKey(t)
	masternodes := newTestMasternodes(t, Masternode{Alias: "mn1", PublicKey: master.PublicKey.Bytes(), Operating: true},
		Masternode{Alias: "mn2", PublicKey: idle.PublicKey.Bytes()})
	c := newTestController(t, newTestStore(t), masternodes, genesis)
	wallet := newTestWallet(t, master, idle)
	idleWallet := newTestWallet(t, idle)
	_, err := c.Generate(280, nil)
	require.NoError(t, err)
	// registration before the window reports the exact wait
	_, err = c.RegisterValidator(wallet, "mn1")
	require.Error(t, err)
	require.Equal(t, "39 blocks until start of the registration phase", err.(*fsm.PhaseViolation).Msg)
	_, err = c.Generate(39, nil)
	require.NoError(t, err)
	// register
	_, err = c.RegisterValidator(wallet, "mn1")
	require.NoError(t, err)
	_, err = c.RegisterValidator(wallet, "mn1")
	require.Equal(t, "duplicated-validator-transaction", err.(*lib.Error).Msg)
	_, err = c.Generate(10, nil)
	require.NoError(t, err)
	_, err = c.RegisterValidator(wallet, "mn1")
	require.Equal(t, "bad-validator-already-registered", err.(*lib.Error).Msg)
	// voting before the window reports the exact wait
	votes := []fsm.VoteEntry{{Candidate: master.PublicKey.Bytes(), Value: fsm.VoteYes}}
	_, err = c.VoteValidators(wallet, votes)
	require.Error(t, err)
	require.Equal(t, "30 blocks until start of the voting phase", err.(*fsm.PhaseViolation).Msg)
	_, err = c.Generate(30, nil)
	require.NoError(t, err)
	// a masternode that isn't operating can't vote
	_, err = c.VoteValidators(idleWallet, votes)
	require.Equal(t, "CreateValidatorVote failed. You don't have permission for voting transaction.", err.(*lib.Error).Msg)
	// the registering operator votes
	_, err = c.VoteValidators(wallet, votes)
	require.NoError(t, err)
	_, err = c.Generate(10, nil)
	require.NoError(t, err)
	require.Contains(t, c.FSM.ListActiveValidators(), master.PublicKey.String())
	// a block built by the now active validator increments the height exactly once
	before := c.Height()
	hashes, err := c.Generate(1, master.PrivateKey)
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	require.Equal(t, before+1, c.Height())
	require.True(t, c.Tip().Signed())
	require.Equal(t, hashes[0], c.Tip().Hash().String())
	// a key outside the active set can't sign
	_, err = c.Generate(1, idle.PrivateKey)
	require.ErrorIs(t, err, fsm.ErrNotActiveValidator(""))
	require.Equal(t, before+1, c.Height())
}

func TestRegisterValidatorAlias(t *testing.T) {
	master, stranger := newTestKey(t), newTestKey(t)
	masternodes := newTestMasternodes(t, Masternode{Alias: "mn1", PublicKey: master.PublicKey.Bytes(), Operating: true})
	c := newTestController(t, newTestStore(t), masternodes, newTestKey(t))
	_, err := c.Generate(79, nil)
	require.NoError(t, err)
	tests := []struct {
		name     string
		detail   string
		wallet   Wallet
		alias    string
		expected lib.ErrorI
	}{
		{
			name:     "unknown alias",
			detail:   "the alias isn't in the masternode list",
			wallet:   newTestWallet(t, master),
			alias:    "mn9",
			expected: ErrAliasNotFound("mn9"),
		},
		{
			name:     "missing key",
			detail:   "the wallet doesn't hold the masternode key",
			wallet:   newTestWallet(t, stranger),
			alias:    "mn1",
			expected: fsm.ErrRegistrationPermission(),
		},
		{
			name:     "wrong password",
			detail:   "the wallet can't unlock the masternode key",
			wallet:   NewKeystoreWallet(newTestWallet(t, master).keystore, "wrong"),
			alias:    "mn1",
			expected: lib.NewError(lib.CodeNoMasternodeKey, lib.ControllerModule, ""),
		},
		{
			name:   "registered",
			detail: "the wallet holds the masternode key",
			wallet: newTestWallet(t, master),
			alias:  "mn1",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := c.RegisterValidator(test.wallet, test.alias)
			if test.expected == nil {
				require.NoError(t, err, test.detail)
				return
			}
			require.ErrorIs(t, err, test.expected, test.detail)
		})
	}
}

func TestVoteValidatorsWithoutMasternode(t *testing.T) {
	c := newTestController(t, newTestStore(t), newTestMasternodes(t), newTestKey(t))
	_, err := c.VoteValidators(newTestWallet(t, newTestKey(t)), []fsm.VoteEntry{{Candidate: newTestKey(t).PublicKey.Bytes(), Value: fsm.VoteYes}})
	require.ErrorIs(t, err, fsm.ErrVotePermission())
}

func TestCheckBlock(t *testing.T) {
	genesis, outsider := newTestKey(t), newTestKey(t)
	c := newTestController(t, newTestStore(t), newTestMasternodes(t), genesis)
	_, err := c.Generate(3, nil)
	require.NoError(t, err)
	tests := []struct {
		name     string
		detail   string
		block    func() *Block
		expected lib.ErrorI
	}{
		{
			name:   "unsigned",
			detail: "an empty block on the tip",
			block:  func() *Block { return NewBlock(c.Tip(), nil) },
		},
		{
			name:   "signed by an active validator",
			detail: "the genesis validator is active at the parent",
			block: func() *Block {
				b := NewBlock(c.Tip(), nil)
				b.Sign(genesis.PrivateKey)
				return b
			},
		},
		{
			name:   "signed by an outsider",
			detail: "the signature verifies but the key isn't active",
			block: func() *Block {
				b := NewBlock(c.Tip(), nil)
				b.Sign(outsider.PrivateKey)
				return b
			},
			expected: fsm.ErrNotActiveValidator(""),
		},
		{
			name:   "forged signature",
			detail: "an active key with a signature from someone else",
			block: func() *Block {
				b := NewBlock(c.Tip(), nil)
				b.Sign(outsider.PrivateKey)
				b.Header.ValidatorPublicKey = genesis.PublicKey.Bytes()
				return b
			},
			expected: fsm.ErrInvalidBlockSignature(),
		},
		{
			name:   "tx root mismatch",
			detail: "the root must commit to the transactions",
			block: func() *Block {
				b := NewBlock(c.Tip(), nil)
				b.Transactions = append(b.Transactions, []byte("{}"))
				return b
			},
			expected: ErrInvalidBlock(""),
		},
		{
			name:   "wrong parent",
			detail: "the block must extend the tip",
			block: func() *Block {
				b := NewBlock(c.Tip(), nil)
				b.Header.PrevHash = crypto.Hash([]byte("other"))
				return b
			},
			expected: ErrInvalidBlock(""),
		},
		{
			name:   "wrong height",
			detail: "the block must be at tip + 1",
			block: func() *Block {
				b := NewBlock(c.Tip(), nil)
				b.Header.Height++
				return b
			},
			expected: fsm.ErrWrongHeight(0, 0),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := c.CheckBlock(test.block())
			if test.expected == nil {
				require.NoError(t, err, test.detail)
				return
			}
			require.ErrorIs(t, err, test.expected, test.detail)
		})
	}
}

func TestConnectBlockRejectsInvalidTransactions(t *testing.T) {
	master := newTestKey(t)
	masternodes := newTestMasternodes(t, Masternode{Alias: "mn1", PublicKey: master.PublicKey.Bytes(), Operating: true})
	c := newTestController(t, newTestStore(t), masternodes, newTestKey(t))
	// a registration mined outside the window
	tx, err := fsm.NewRegistrationTx(master.PrivateKey)
	require.NoError(t, err)
	bz, err := tx.Bytes()
	require.NoError(t, err)
	err = c.ConnectBlock(NewBlock(c.Tip(), [][]byte{bz}))
	_, ok := fsm.AsPhaseViolation(err)
	require.True(t, ok)
	require.Zero(t, c.Height())
	// the rejected block left nothing in the store
	_, err = loadBlock(c.store, 1)
	require.ErrorIs(t, err, ErrBlockNotFound(1))
}

func TestReorganize(t *testing.T) {
	master := newTestKey(t)
	masternodes := newTestMasternodes(t, Masternode{Alias: "mn1", PublicKey: master.PublicKey.Bytes(), Operating: true})
	c := newTestController(t, newTestStore(t), masternodes, newTestKey(t))
	wallet := newTestWallet(t, master)
	_, err := c.Generate(79, nil)
	require.NoError(t, err)
	txID, err := c.RegisterValidator(wallet, "mn1")
	require.NoError(t, err)
	_, err = c.Generate(1, nil)
	require.NoError(t, err)
	candidacy, _ := c.FSM.GetCandidacy(master.PublicKey.Bytes())
	require.Equal(t, fsm.StatusConfirmed, candidacy.Status)
	// replace block 80 with an empty one, the registration returns to the mempool
	parent, err := c.LoadBlock(79)
	require.NoError(t, err)
	replacement := NewBlock(parent, nil)
	discarded, err := c.Reorganize(1, []*Block{replacement})
	require.NoError(t, err)
	require.Empty(t, discarded)
	require.Equal(t, replacement.Hash(), c.Tip().Hash())
	candidacy, _ = c.FSM.GetCandidacy(master.PublicKey.Bytes())
	require.Equal(t, fsm.StatusPending, candidacy.Status)
	require.True(t, c.Mempool.Contains(txID))
	// the next block confirms it again
	_, err = c.Generate(1, nil)
	require.NoError(t, err)
	candidacy, _ = c.FSM.GetCandidacy(master.PublicKey.Bytes())
	require.Equal(t, fsm.StatusConfirmed, candidacy.Status)
	require.EqualValues(t, 81, candidacy.Height)
	// a reorg deeper than the chain is refused
	_, err = c.Reorganize(1000, nil)
	require.ErrorIs(t, err, ErrReorgDepth(0, 0))
}

func TestReorganizeRestoresOnFailure(t *testing.T) {
	c := newTestController(t, newTestStore(t), newTestMasternodes(t), newTestKey(t))
	_, err := c.Generate(5, nil)
	require.NoError(t, err)
	tip := c.Tip().Hash()
	parent, err := c.LoadBlock(3)
	require.NoError(t, err)
	good := NewBlock(parent, nil)
	bad := NewBlock(good, nil)
	bad.Header.PrevHash = crypto.Hash([]byte("other"))
	_, err = c.Reorganize(2, []*Block{good, bad})
	require.ErrorIs(t, err, ErrInvalidBlock(""))
	require.EqualValues(t, 5, c.Height())
	require.Equal(t, tip, c.Tip().Hash())
}

func TestReorganizeRestoresAfterOperatorStops(t *testing.T) {
	master := newTestKey(t)
	masternodes := newTestMasternodes(t, Masternode{Alias: "mn1", PublicKey: master.PublicKey.Bytes(), Operating: true})
	c := newTestController(t, newTestStore(t), masternodes, newTestKey(t))
	_, err := c.Generate(79, nil)
	require.NoError(t, err)
	_, err = c.RegisterValidator(newTestWallet(t, master), "mn1")
	require.NoError(t, err)
	_, err = c.Generate(1, nil)
	require.NoError(t, err)
	tip := c.Tip().Hash()
	// the masternode stops after its registration confirmed
	require.NoError(t, masternodes.SetOperating("mn1", false))
	parent, err := c.LoadBlock(79)
	require.NoError(t, err)
	bad := NewBlock(parent, nil)
	bad.Header.PrevHash = crypto.Hash([]byte("other"))
	_, err = c.Reorganize(1, []*Block{bad})
	require.ErrorIs(t, err, ErrInvalidBlock(""))
	// the original block and its confirmed registration are back
	require.EqualValues(t, 80, c.Height())
	require.Equal(t, tip, c.Tip().Hash())
	candidacy, found := c.FSM.GetCandidacy(master.PublicKey.Bytes())
	require.True(t, found)
	require.Equal(t, fsm.StatusConfirmed, candidacy.Status)
}

func TestReorganizeStoreFailures(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		failing  int
		height   uint64
		restored bool
		expected lib.ErrorI
	}{
		{
			name:     "disconnect fails",
			detail:   "the second disconnect can't commit, the first is reconnected",
			failing:  2,
			height:   5,
			restored: true,
			expected: store.ErrCommitDB(errDiskFull),
		},
		{
			name:     "restore fails",
			detail:   "the replacement is rejected and rewinding it can't commit",
			failing:  4,
			height:   4,
			expected: ErrRestoreFailed(ErrInvalidBlock(""), store.ErrCommitDB(errDiskFull)),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			db := &failingStore{StoreI: newTestStore(t)}
			c := newTestController(t, db, newTestMasternodes(t), newTestKey(t))
			_, err := c.Generate(5, nil)
			require.NoError(t, err)
			tip := c.Tip().Hash()
			parent, err := c.LoadBlock(3)
			require.NoError(t, err)
			good := NewBlock(parent, nil)
			bad := NewBlock(good, nil)
			bad.Header.PrevHash = crypto.Hash([]byte("other"))
			// count commits from here on
			db.failAt = test.failing
			_, err = c.Reorganize(2, []*Block{good, bad})
			require.ErrorIs(t, err, test.expected, test.detail)
			require.Equal(t, test.height, c.Height())
			require.Equal(t, test.restored, tip.String() == c.Tip().Hash().String())
		})
	}
}

func TestDisconnectTip(t *testing.T) {
	c := newTestController(t, newTestStore(t), newTestMasternodes(t), newTestKey(t))
	// the genesis block can't be disconnected
	_, err := c.DisconnectTip()
	require.ErrorIs(t, err, ErrReorgDepth(0, 0))
	hashes, err := c.Generate(2, nil)
	require.NoError(t, err)
	_, err = c.DisconnectTip()
	require.NoError(t, err)
	require.EqualValues(t, 1, c.Height())
	require.Equal(t, hashes[0], c.Tip().Hash().String())
	_, err = c.LoadBlock(2)
	require.ErrorIs(t, err, ErrBlockNotFound(2))
}

func TestRestart(t *testing.T) {
	master := newTestKey(t)
	genesis := newTestKey(t)
	dataDir := t.TempDir()
	masternodes := newTestMasternodes(t, Masternode{Alias: "mn1", PublicKey: master.PublicKey.Bytes(), Operating: true})
	db, err := store.New(lib.StoreConfig{DataDirPath: dataDir, DBName: "test", Backend: lib.BadgerBackend}, lib.NewNullLogger())
	require.NoError(t, err)
	c := newTestController(t, db, masternodes, genesis)
	_, err = c.Generate(79, nil)
	require.NoError(t, err)
	_, err = c.RegisterValidator(newTestWallet(t, master), "mn1")
	require.NoError(t, err)
	_, err = c.Generate(1, nil)
	require.NoError(t, err)
	tip := c.Tip().Hash()
	c.Stop()
	// reopen
	db, err = store.New(lib.StoreConfig{DataDirPath: dataDir, DBName: "test", Backend: lib.BadgerBackend}, lib.NewNullLogger())
	require.NoError(t, err)
	c = newTestController(t, db, masternodes, genesis)
	require.EqualValues(t, 80, c.Height())
	require.Equal(t, tip, c.Tip().Hash())
	candidacy, found := c.FSM.GetCandidacy(master.PublicKey.Bytes())
	require.True(t, found)
	require.Equal(t, fsm.StatusConfirmed, candidacy.Status)
}

func TestRefreshMetrics(t *testing.T) {
	metrics := lib.NewMetricsServer(lib.MetricsConfig{Enabled: true}, lib.NewNullLogger())
	config := newTestConfig(newTestKey(t))
	c, err := New(config, newTestStore(t), newTestMasternodes(t), metrics, lib.NewNullLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)
	_, err = c.Generate(90, nil)
	require.NoError(t, err)
	// the refresher converges on the registration window of height 91 with the genesis validator active
	require.Eventually(t, func() bool {
		return gaugeValue(t, metrics, "mnv_phase") == float64(fsm.RegistrationOpen) &&
			gaugeValue(t, metrics, "mnv_active_validators") == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func gaugeValue(t *testing.T, metrics *lib.Metrics, name string) float64 {
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) != 0 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return -1
}

func newTestKey(t *testing.T) *crypto.KeyGroup {
	key, err := crypto.NewRandomKeyGroup()
	require.NoError(t, err)
	return key
}

func newTestStore(t *testing.T) lib.StoreI {
	db, err := store.NewStoreInMemory(lib.NewNullLogger())
	require.NoError(t, err)
	return db
}

func newTestMasternodes(t *testing.T, entries ...Masternode) *MasternodeList {
	l, err := NewMasternodeList(entries...)
	require.NoError(t, err)
	return l
}

func newTestWallet(t *testing.T, keys ...*crypto.KeyGroup) *KeystoreWallet {
	ks := crypto.NewKeystoreInMemory()
	for _, k := range keys {
		_, err := ks.ImportRaw(k.PrivateKey.Bytes(), testPassword)
		require.NoError(t, err)
	}
	return NewKeystoreWallet(ks, testPassword)
}

func newTestConfig(genesis *crypto.KeyGroup) lib.Config {
	config := lib.DefaultConfig()
	config.GenesisValidators = []string{genesis.PublicKey.String()}
	return config
}

func newTestController(t *testing.T, db lib.StoreI, masternodes *MasternodeList, genesis *crypto.KeyGroup) *Controller {
	c, err := New(newTestConfig(genesis), db, masternodes, nil, lib.NewNullLogger())
	require.NoError(t, err)
	return c
}

var errDiskFull = errors.New("disk full")

// failingStore fails exactly one commit, counted once failAt is set
type failingStore struct {
	lib.StoreI
	commits, failAt int
}

func (f *failingStore) Commit(version uint64) lib.ErrorI {
	if f.failAt == 0 {
		return f.StoreI.Commit(version)
	}
	if f.commits++; f.commits == f.failAt {
		return store.ErrCommitDB(errDiskFull)
	}
	return f.StoreI.Commit(version)
}
