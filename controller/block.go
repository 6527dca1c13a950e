package controller

import (
	"bytes"
	"time"

	"github.com/canopy-network/mnvalidator/lib"
	"github.com/canopy-network/mnvalidator/lib/crypto"
)

/* This file implements the regtest block: its encoding, hashing, signing and storage */

var blockPrefix = []byte{10} // store key prefix for blocks

// BlockHeader is the signed part of a block
type BlockHeader struct {
	Height             uint64       `json:"height"`                       // the height of the block
	PrevHash           lib.HexBytes `json:"prevHash"`                     // the hash of the parent
	TxRoot             lib.HexBytes `json:"txRoot"`                       // merkle root of the transactions
	Time               uint64       `json:"time"`                         // unix micro timestamp
	ValidatorPublicKey lib.HexBytes `json:"validatorPublicKey,omitempty"` // the active validator co-signing the block, if any
}

// Block is a header, its transactions and the optional validator signature
type Block struct {
	Header             *BlockHeader   `json:"header"`
	Transactions       []lib.HexBytes `json:"transactions"`
	ValidatorSignature lib.HexBytes   `json:"validatorSignature,omitempty"`
}

// NewBlock() creates an unsigned block on top of a parent
func NewBlock(parent *Block, txs [][]byte) *Block {
	transactions := make([]lib.HexBytes, 0, len(txs))
	for _, tx := range txs {
		transactions = append(transactions, tx)
	}
	return &Block{
		Header: &BlockHeader{
			Height:   parent.Header.Height + 1,
			PrevHash: parent.Hash(),
			TxRoot:   crypto.MerkleRoot(txs),
			Time:     uint64(time.Now().UnixMicro()),
		},
		Transactions: transactions,
	}
}

// newGenesisBlock() creates the deterministic block at height 0
func newGenesisBlock() *Block {
	return &Block{Header: &BlockHeader{TxRoot: crypto.MerkleRoot(nil)}}
}

// SignBytes() returns the canonical bytes the validator signs
func (b *Block) SignBytes() []byte {
	bz, _ := lib.MarshalJSON(b.Header)
	return bz
}

// Hash() returns the sha256 of the header
func (b *Block) Hash() lib.HexBytes { return crypto.Hash(b.SignBytes()) }

// Txs() returns the raw transactions
func (b *Block) Txs() [][]byte {
	txs := make([][]byte, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		txs = append(txs, tx)
	}
	return txs
}

// Sign() attaches a validator signature to the block
func (b *Block) Sign(privateKey crypto.PrivateKeyI) {
	b.Header.ValidatorPublicKey = privateKey.PublicKey().Bytes()
	b.ValidatorSignature = privateKey.Sign(b.SignBytes())
}

// Signed() returns true if the block claims a validator signature
func (b *Block) Signed() bool {
	return len(b.Header.ValidatorPublicKey) != 0 || len(b.ValidatorSignature) != 0
}

// CheckBasic() performs the stateless validations of a block
func (b *Block) CheckBasic() lib.ErrorI {
	if b == nil || b.Header == nil {
		return ErrInvalidBlock("empty header")
	}
	if !bytes.Equal(b.Header.TxRoot, crypto.MerkleRoot(b.Txs())) {
		return ErrInvalidBlock("tx root mismatch")
	}
	if len(b.Header.ValidatorPublicKey) == 0 && len(b.ValidatorSignature) != 0 {
		return ErrInvalidBlock("signature without a validator public key")
	}
	return nil
}

// KeyForBlock() returns the store key of the block at height
func KeyForBlock(height uint64) []byte {
	return lib.JoinLenPrefix(blockPrefix, lib.Uint64ToBytes(height))
}

// saveBlock() stages a block write, committed with the state machine callback
func saveBlock(store lib.RWStoreI, b *Block) lib.ErrorI {
	bz, err := lib.MarshalJSON(b)
	if err != nil {
		return err
	}
	return store.Set(KeyForBlock(b.Header.Height), bz)
}

// loadBlock() reads the block at height from the store
func loadBlock(store lib.RStoreI, height uint64) (*Block, lib.ErrorI) {
	bz, err := store.Get(KeyForBlock(height))
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrBlockNotFound(height)
	}
	b := new(Block)
	if err = lib.UnmarshalJSON(bz, b); err != nil {
		return nil, err
	}
	return b, nil
}
