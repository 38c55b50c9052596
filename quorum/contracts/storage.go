// Package contracts writes the genesis storage of the two quorum system
// contracts.
//
// BlockVoting declares, in order:
//
//	slot 0  (inherited, untouched)
//	slot 1  uint    voteThreshold
//	slot 2  uint    voterCount
//	slot 3  mapping(address => bool) canVote
//	slot 4  uint    blockMakerCount
//	slot 5  mapping(address => bool) canCreateBlocks
//
// The governance contract declares:
//
//	slot 0  mapping(address => bool) owners
//	slot 1  uint    numOwners
package contracts

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-quorum-genesis/quorum"
	"github.com/rony4d/go-quorum-genesis/quorum/contracts/slots"
	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
)

// BlockVoting slot indexes.
const (
	VoteThresholdSlot   uint64 = 1
	VoterCountSlot      uint64 = 2
	CanVoteSlot         uint64 = 3
	BlockMakerCountSlot uint64 = 4
	CanCreateBlocksSlot uint64 = 5
)

// Governance slot indexes.
const (
	OwnersSlot    uint64 = 0
	NumOwnersSlot uint64 = 1
)

// scalarWidth is the minimal byte width scalar values are written with.
const scalarWidth = 1

// WriteVotingStorage fills the BlockVoting contract at addr with the voters
// and makers of cfg. In proof-of-work mode the threshold slot holds zero.
func WriteVotingStorage(doc *genesis.Document, addr common.Address, mode quorum.VotingMode, cfg *genesis.Config) error {
	acc, err := systemAccount(doc, addr, "voting")
	if err != nil {
		return err
	}

	threshold := uint64(0)
	if mode == quorum.VotingThreshold {
		threshold = cfg.Threshold
	}
	setScalar(acc, VoteThresholdSlot, threshold)
	setScalar(acc, VoterCountSlot, uint64(len(cfg.Voters)))
	mapAddresses(acc, CanVoteSlot, cfg.Voters)
	setScalar(acc, BlockMakerCountSlot, uint64(len(cfg.Makers)))
	mapAddresses(acc, CanCreateBlocksSlot, cfg.Makers)
	return nil
}

// WriteGovernanceStorage marks every owner in the governance contract at
// addr and records their count.
func WriteGovernanceStorage(doc *genesis.Document, addr common.Address, owners []common.Address) error {
	acc, err := systemAccount(doc, addr, "governance")
	if err != nil {
		return err
	}
	mapAddresses(acc, OwnersSlot, owners)
	setScalar(acc, NumOwnersSlot, uint64(len(owners)))
	return nil
}

// systemAccount looks up a contract the template must declare.
func systemAccount(doc *genesis.Document, addr common.Address, name string) (*genesis.Account, error) {
	acc, ok := doc.Alloc[addr]
	if !ok {
		return nil, &genesis.ConfigError{
			Field:  "template.alloc",
			Reason: name + " contract " + addr.Hex() + " is not declared",
		}
	}
	return acc, nil
}

func setScalar(acc *genesis.Account, index, value uint64) {
	acc.SetStorage(slots.ScalarKey(index), slots.PadScalar(value, scalarWidth, true))
}

// mapAddresses sets mapping(address => bool) entries to true.
func mapAddresses(acc *genesis.Account, index uint64, addrs []common.Address) {
	for _, addr := range addrs {
		acc.SetStorage(slots.DeriveSlotKey(index, addr), slots.True)
	}
}
