// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package evmcore replays a genesis document into an in-memory EVM state so
// the builder can report the state root and block hash a node will compute
// when it boots from the document.

package evmcore

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"

	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
)

// ApplyGenesis writes every account of doc into statedb and commits it.
//
// Process:
//  1. Sets balance, code, nonce and storage of every alloc entry
//  2. Commits the state and computes the state root
//
// Returns the state root of the committed state.
func ApplyGenesis(statedb *state.StateDB, doc *genesis.Document) (common.Hash, error) {
	for addr, acc := range doc.Alloc {
		if acc.Balance != nil {
			statedb.SetBalance(addr, acc.Balance.BigInt())
		}
		if len(acc.Code) > 0 {
			statedb.SetCode(addr, acc.Code)
		}
		if acc.Nonce != nil {
			statedb.SetNonce(addr, uint64(*acc.Nonce))
		}
		for key, value := range acc.Storage {
			statedb.SetState(addr, common.Hash(key), common.BytesToHash(value.Bytes()))
		}
	}
	return flush(statedb, false)
}

// StateRoot replays doc into a throwaway in-memory database and returns the
// resulting state root.
func StateRoot(doc *genesis.Document) (common.Hash, error) {
	statedb, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()), nil)
	if err != nil {
		return common.Hash{}, err
	}
	return ApplyGenesis(statedb, doc)
}

// flush commits state changes to the database and returns the state root hash.
//
// Genesis accounts may hold storage only, with zero balance and nonce, so
// empty objects are kept: deleteEmpty is false for every genesis commit.
func flush(statedb *state.StateDB, deleteEmpty bool) (root common.Hash, err error) {
	// Phase 1: commit pending state changes to the state trie
	root, err = statedb.Commit(deleteEmpty)
	if err != nil {
		return
	}

	// Phase 2: commit the trie nodes to the underlying database
	err = statedb.Database().TrieDB().Commit(root, false, nil)
	return
}
