package contracts

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-quorum-genesis/quorum"
	"github.com/rony4d/go-quorum-genesis/quorum/contracts/slots"
	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
)

var (
	voting     = common.HexToAddress("0x20")
	governance = common.HexToAddress("0x2a")
)

func addrs(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.BigToAddress(common.Big1)
		out[i][0] = byte(i + 1)
	}
	return out
}

func storage(doc *genesis.Document, contract common.Address, key common.Hash) genesis.StorageValue {
	return doc.Alloc[contract].Storage[genesis.StorageKey(key)]
}

func TestWriteVotingStorage(t *testing.T) {
	cfg := &genesis.Config{Voters: addrs(2), Makers: addrs(3)[2:], Threshold: 2}

	for _, tc := range []struct {
		mode      quorum.VotingMode
		threshold genesis.StorageValue
	}{
		{quorum.VotingPoW, "0x00"},
		{quorum.VotingThreshold, "0x02"},
	} {
		t.Run(string(tc.mode), func(t *testing.T) {
			doc := genesis.DefaultTemplate()
			require.NoError(t, WriteVotingStorage(doc, voting, tc.mode, cfg))

			assert.Equal(t, tc.threshold, storage(doc, voting, slots.ScalarKey(VoteThresholdSlot)))
			assert.Equal(t, genesis.StorageValue("0x02"), storage(doc, voting, slots.ScalarKey(VoterCountSlot)))
			assert.Equal(t, genesis.StorageValue("0x01"), storage(doc, voting, slots.ScalarKey(BlockMakerCountSlot)))
			for _, v := range cfg.Voters {
				assert.Equal(t, genesis.StorageValue(slots.True), storage(doc, voting, slots.DeriveSlotKey(CanVoteSlot, v)))
			}
			assert.Equal(t, genesis.StorageValue(slots.True), storage(doc, voting, slots.DeriveSlotKey(CanCreateBlocksSlot, cfg.Makers[0])))

			// storage only, the governance contract and balances are untouched
			assert.Empty(t, doc.Alloc[governance].Storage)
			assert.Equal(t, "0", doc.Alloc[voting].Balance.String())
		})
	}
}

func TestWriteVotingStorage_noVoters(t *testing.T) {
	doc := genesis.DefaultTemplate()
	cfg := &genesis.Config{Makers: addrs(1)}
	require.NoError(t, WriteVotingStorage(doc, voting, quorum.VotingPoW, cfg))

	assert.Equal(t, genesis.StorageValue("0x00"), storage(doc, voting, slots.ScalarKey(VoterCountSlot)))
	// threshold, voter count, maker count and one maker entry
	assert.Len(t, doc.Alloc[voting].Storage, 4)
}

func TestWriteVotingStorage_wideCounts(t *testing.T) {
	doc := genesis.DefaultTemplate()
	makers := make([]common.Address, 300)
	for i := range makers {
		makers[i] = common.BigToAddress(common.Big1)
		makers[i][0], makers[i][1] = byte(i>>8), byte(i)
	}
	require.NoError(t, WriteVotingStorage(doc, voting, quorum.VotingPoW, &genesis.Config{Makers: makers}))
	assert.Equal(t, genesis.StorageValue("0x012c"), storage(doc, voting, slots.ScalarKey(BlockMakerCountSlot)))
}

func TestWriteGovernanceStorage(t *testing.T) {
	doc := genesis.DefaultTemplate()
	owners := addrs(3)
	require.NoError(t, WriteGovernanceStorage(doc, governance, owners))

	assert.Equal(t, genesis.StorageValue("0x03"), storage(doc, governance, slots.ScalarKey(NumOwnersSlot)))
	for _, o := range owners {
		assert.Equal(t, genesis.StorageValue(slots.True), storage(doc, governance, slots.DeriveSlotKey(OwnersSlot, o)))
	}
	assert.Len(t, doc.Alloc[governance].Storage, 4)
	assert.Empty(t, doc.Alloc[voting].Storage)
}

func TestWriteStorage_missingContract(t *testing.T) {
	doc := genesis.DefaultTemplate()
	delete(doc.Alloc, voting)

	err := WriteVotingStorage(doc, voting, quorum.VotingPoW, &genesis.Config{Makers: addrs(1)})
	var cerr *genesis.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "template.alloc", cerr.Field)

	err = WriteGovernanceStorage(doc, common.HexToAddress("0xdead"), nil)
	assert.True(t, errors.As(err, &cerr))
}
