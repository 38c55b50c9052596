package evmcore

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
)

// GenesisBlock is the block a node derives from a genesis document.
type GenesisBlock struct {
	Header *types.Header
	Root   common.Hash // state root of the alloc
	Hash   common.Hash // block hash
}

// GenesisHeader builds the header of block zero from the header fields of
// doc and the state root of its alloc. Missing gas limit and difficulty fall
// back to the go-ethereum genesis defaults, the way geth does on init.
func GenesisHeader(doc *genesis.Document, root common.Hash) *types.Header {
	head := &types.Header{
		Number:     new(big.Int),
		Root:       root,
		GasLimit:   params.GenesisGasLimit,
		Difficulty: params.GenesisDifficulty,
	}
	if doc.Number != nil {
		head.Number.SetUint64(uint64(*doc.Number))
	}
	if doc.Nonce != nil {
		head.Nonce = types.EncodeNonce(uint64(*doc.Nonce))
	}
	if doc.Timestamp != nil {
		head.Time = uint64(*doc.Timestamp)
	}
	if doc.ExtraData != nil {
		head.Extra = append([]byte(nil), (*doc.ExtraData)...)
	}
	if doc.GasLimit != nil && *doc.GasLimit != 0 {
		head.GasLimit = uint64(*doc.GasLimit)
	}
	if doc.GasUsed != nil {
		head.GasUsed = uint64(*doc.GasUsed)
	}
	if doc.Difficulty != nil {
		head.Difficulty = new(big.Int).Set(doc.Difficulty.ToInt())
	}
	if doc.Mixhash != nil {
		head.MixDigest = *doc.Mixhash
	}
	if doc.Coinbase != nil {
		head.Coinbase = *doc.Coinbase
	}
	if doc.ParentHash != nil {
		head.ParentHash = *doc.ParentHash
	}
	return head
}

// Preview replays doc into an in-memory state and assembles its genesis
// block. The document is not modified.
func Preview(doc *genesis.Document) (*GenesisBlock, error) {
	root, err := StateRoot(doc)
	if err != nil {
		return nil, err
	}
	// an empty body gives the empty transaction, uncle and receipt roots
	block := types.NewBlock(GenesisHeader(doc, root), nil, nil, nil, trie.NewStackTrie(nil))
	return &GenesisBlock{
		Header: block.Header(),
		Root:   root,
		Hash:   block.Hash(),
	}, nil
}
