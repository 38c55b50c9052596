package builder

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-quorum-genesis/integration"
	"github.com/rony4d/go-quorum-genesis/quorum"
	"github.com/rony4d/go-quorum-genesis/quorum/contracts"
	"github.com/rony4d/go-quorum-genesis/quorum/contracts/slots"
	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
	"github.com/rony4d/go-quorum-genesis/quorum/ledger"
)

var (
	voterA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	voterB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	makerC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func testConfig() *genesis.Config {
	cfg := &genesis.Config{
		Makers:  []common.Address{makerC},
		Voters:  []common.Address{voterA, voterB},
		ChainID: 1337,
	}
	cfg.ApplyDefaults(integration.ExIMProfile())
	return cfg
}

func newAssembler(t *testing.T, p quorum.Profile) *Assembler {
	a, err := New(p, nil)
	require.NoError(t, err)
	return a
}

func storageOf(doc *genesis.Document, addr common.Address, key common.Hash) string {
	return string(doc.Alloc[addr].Storage[genesis.StorageKey(key)])
}

func TestBuild_votingAndGovernanceStorage(t *testing.T) {
	p := integration.ExIMProfile()
	doc, _, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	bv := p.VotingContract
	assert.Equal(t, "0x00", storageOf(doc, bv, slots.ScalarKey(contracts.VoteThresholdSlot)))
	assert.Equal(t, "0x02", storageOf(doc, bv, slots.ScalarKey(contracts.VoterCountSlot)))
	assert.Equal(t, "0x01", storageOf(doc, bv, slots.ScalarKey(contracts.BlockMakerCountSlot)))
	assert.Equal(t, slots.True, storageOf(doc, bv, slots.DeriveSlotKey(contracts.CanVoteSlot, voterA)))
	assert.Equal(t, slots.True, storageOf(doc, bv, slots.DeriveSlotKey(contracts.CanVoteSlot, voterB)))
	assert.Equal(t, slots.True, storageOf(doc, bv, slots.DeriveSlotKey(contracts.CanCreateBlocksSlot, makerC)))
	assert.Len(t, doc.Alloc[bv].Storage, 6)

	gov := p.GovernanceContract
	// owners default to the voters plus the reserve owner
	assert.Equal(t, "0x03", storageOf(doc, gov, slots.ScalarKey(contracts.NumOwnersSlot)))
	for _, owner := range []common.Address{voterA, voterB, integration.ExIMRemainder} {
		assert.Equal(t, slots.True, storageOf(doc, gov, slots.DeriveSlotKey(contracts.OwnersSlot, owner)))
	}
}

func TestBuild_chainParameters(t *testing.T) {
	p := integration.ExIMProfile()
	cfg := testConfig()
	cfg.GasLimit = 0x47b760

	doc, report, err := newAssembler(t, p).Build(cfg, genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	require.NotNil(t, doc.GasLimit)
	assert.Equal(t, uint64(0x47b760), uint64(*doc.GasLimit))
	id, ok := doc.Config.ChainID()
	require.True(t, ok)
	assert.Equal(t, uint64(1337), id)

	// 50000 H/s * 10 s * 1 maker
	assert.Equal(t, big.NewInt(500000), doc.Difficulty.ToInt())
	assert.Equal(t, big.NewInt(500000), report.Difficulty)
	assert.Equal(t, 2, report.Voters)
	assert.Equal(t, 1, report.Makers)
	assert.Equal(t, 3, report.Owners)
}

func TestBuild_templateGasLimitKept(t *testing.T) {
	template := genesis.DefaultTemplate()
	want := uint64(*template.GasLimit)

	doc, _, err := newAssembler(t, integration.ExIMProfile()).Build(testConfig(), template, nil)
	require.NoError(t, err)
	assert.Equal(t, want, uint64(*doc.GasLimit))
}

func TestBuild_doesNotMutateInputs(t *testing.T) {
	template := genesis.DefaultTemplate()
	before, err := template.Encode()
	require.NoError(t, err)

	prefund := genesis.Alloc{voterA: {Balance: genesis.NewBalance(decimal.New(5, 0))}}
	_, _, err = newAssembler(t, integration.ExIMProfile()).Build(testConfig(), template, prefund)
	require.NoError(t, err)

	after, err := template.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Len(t, prefund, 1)
}

// TestBuild_conservesSupply checks that every conserving policy ends with
// balances summing exactly to the scaled supply.
func TestBuild_conservesSupply(t *testing.T) {
	escrow := quorum.EscrowGroup{
		Name:    "team",
		Amount:  decimal.New(1000, 0),
		Members: []common.Address{common.HexToAddress("0xe1"), common.HexToAddress("0xe2"), common.HexToAddress("0xe3")},
	}
	for _, policy := range []quorum.FundingPolicy{quorum.FundRemainder, quorum.FundEven} {
		t.Run(string(policy), func(t *testing.T) {
			p := integration.ExIMProfile()
			p.Funding.Policy = policy
			p.EscrowGroups = []quorum.EscrowGroup{escrow}
			prefund := genesis.Alloc{
				common.HexToAddress("0xfeed"): {Balance: genesis.NewBalance(decimal.RequireFromString("1234567890123456789012"))},
			}

			doc, report, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), prefund)
			require.NoError(t, err)

			total := ledger.New(doc.Alloc, p.Decimals, nil).Total()
			assert.True(t, total.Equal(p.ScaledSupply()), "total %s", total)
			assert.True(t, report.Allocated.Equal(p.ScaledSupply()))
			assert.Equal(t, "2", report.EscrowDrift.String())
		})
	}
}

func TestBuild_remainderPolicy(t *testing.T) {
	p := integration.ExIMProfile()
	doc, report, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	// nothing else holds tokens, the remainder address gets the whole supply
	assert.Equal(t, p.ScaledSupply().String(), doc.Alloc[p.RemainderAddress].Balance.String())
	assert.True(t, report.Remainder.Equal(p.ScaledSupply()))
	assert.Nil(t, doc.Alloc[voterA])
	assert.Equal(t, "0", doc.Alloc[p.VotingContract].Balance.String())
}

func TestBuild_evenPolicy(t *testing.T) {
	p := integration.ThresholdProfile()
	p.TotalSupply = decimal.New(100, 0)
	p.Decimals = 0
	cfg := testConfig()
	cfg.Threshold = 2

	doc, report, err := newAssembler(t, p).Build(cfg, genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	// 100 over 3 participants: 33 each, 1 unit of dust
	for _, addr := range []common.Address{voterA, voterB, makerC} {
		assert.Equal(t, "33", doc.Alloc[addr].Balance.String())
	}
	assert.Equal(t, "1", report.Remainder.String())
	assert.Equal(t, "0x02", storageOf(doc, p.VotingContract, slots.ScalarKey(contracts.VoteThresholdSlot)))
	// difficulty stays at the template value without dynamic difficulty
	assert.Equal(t, 0, doc.Difficulty.ToInt().Sign())
}

// TestBuild_evenPolicySkips checks the even pass leaves prefunded accounts and
// system contracts alone and splits the rest over the remaining participants.
func TestBuild_evenPolicySkips(t *testing.T) {
	p := integration.ThresholdProfile()
	p.TotalSupply = decimal.New(100, 0)
	p.Decimals = 0

	tests := []struct {
		name      string
		observers []common.Address
		prefund   genesis.Alloc
		want      map[common.Address]string
		remainder string
	}{
		{
			name:    "prefunded participant",
			prefund: genesis.Alloc{voterA: {Balance: genesis.NewBalance(decimal.New(7, 0))}},
			// 93 unallocated over B and C
			want:      map[common.Address]string{voterA: "7", voterB: "46", makerC: "46"},
			remainder: "1",
		},
		{
			name:      "system contract participant",
			observers: []common.Address{p.VotingContract},
			want:      map[common.Address]string{voterA: "33", voterB: "33", makerC: "33", p.VotingContract: "0"},
			remainder: "1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Threshold = 2
			cfg.FundedObservers = tt.observers

			doc, report, err := newAssembler(t, p).Build(cfg, genesis.DefaultTemplate(), tt.prefund)
			require.NoError(t, err)

			for addr, want := range tt.want {
				assert.Equal(t, want, doc.Alloc[addr].Balance.String(), addr.Hex())
			}
			assert.Equal(t, tt.remainder, report.Remainder.String())
			assert.True(t, report.Allocated.Equal(p.ScaledSupply()))
		})
	}
}

// TestBuild_normalizesConfig feeds a config that skipped ApplyDefaults.
func TestBuild_normalizesConfig(t *testing.T) {
	p := integration.ExIMProfile()
	cfg := &genesis.Config{
		Makers:  []common.Address{makerC, makerC},
		Voters:  []common.Address{voterA},
		ChainID: 1337,
	}

	doc, report, err := newAssembler(t, p).Build(cfg, genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	assert.Equal(t, "0x01", storageOf(doc, p.VotingContract, slots.ScalarKey(contracts.BlockMakerCountSlot)))
	assert.Equal(t, 1, report.Makers)
	assert.Equal(t, "0x02", storageOf(doc, p.GovernanceContract, slots.ScalarKey(contracts.NumOwnersSlot)))
	for _, owner := range []common.Address{voterA, integration.ExIMRemainder} {
		assert.Equal(t, slots.True, storageOf(doc, p.GovernanceContract, slots.DeriveSlotKey(contracts.OwnersSlot, owner)))
	}
	// the caller's config is left as it was
	assert.Len(t, cfg.Makers, 2)
	assert.Empty(t, cfg.Owners)
}

func TestBuild_fixedPolicy(t *testing.T) {
	p := integration.DevNetProfile()
	p.EscrowGroups = nil

	doc, report, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	for _, addr := range []common.Address{voterA, voterB, makerC} {
		assert.True(t, doc.Alloc[addr].Balance.Equal(p.Funding.FixedAmount))
	}
	// no reconciliation
	assert.Nil(t, doc.Alloc[p.RemainderAddress])
	assert.True(t, report.Remainder.IsZero())
	assert.True(t, report.Allocated.Equal(p.Funding.FixedAmount.Mul(decimal.New(3, 0))))
}

func TestBuild_escrowShareRoundsUp(t *testing.T) {
	p := integration.ExIMProfile()
	members := []common.Address{common.HexToAddress("0xe1"), common.HexToAddress("0xe2"), common.HexToAddress("0xe3")}
	p.EscrowGroups = []quorum.EscrowGroup{{Name: "team", Amount: decimal.New(1000, 0), Members: members}}

	doc, _, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), nil)
	require.NoError(t, err)
	for _, m := range members {
		assert.Equal(t, "334", doc.Alloc[m].Balance.String())
	}
}

// TestBuild_prefundPrecedence verifies external values win over computed
// ones, except for the pinned system contracts.
func TestBuild_prefundPrecedence(t *testing.T) {
	p := integration.DevNetProfile()
	p.EscrowGroups = nil
	prefund := genesis.Alloc{
		voterA:           {Balance: genesis.NewBalance(decimal.New(7, 0))},
		p.VotingContract: {Balance: genesis.NewBalance(decimal.New(9, 0))},
	}

	doc, _, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), prefund)
	require.NoError(t, err)

	assert.Equal(t, "7", doc.Alloc[voterA].Balance.String())
	assert.True(t, doc.Alloc[voterB].Balance.Equal(p.Funding.FixedAmount))
	assert.Equal(t, "0", doc.Alloc[p.VotingContract].Balance.String())
	// the contract storage survives the merge
	assert.Equal(t, "0x02", storageOf(doc, p.VotingContract, slots.ScalarKey(contracts.VoterCountSlot)))
}

func TestBuild_deterministic(t *testing.T) {
	p := integration.ExIMProfile()
	p.EscrowGroups = []quorum.EscrowGroup{{Name: "team", Amount: decimal.New(10, 0), Members: []common.Address{voterA, makerC}}}
	a := newAssembler(t, p)

	first, r1, err := a.Build(testConfig(), genesis.DefaultTemplate(), nil)
	require.NoError(t, err)
	second, r2, err := a.Build(testConfig(), genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	b1, err := first.Encode()
	require.NoError(t, err)
	b2, err := second.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
	assert.Equal(t, r1.StateRoot, r2.StateRoot)
	assert.Equal(t, r1.GenesisHash, r2.GenesisHash)
	assert.NotEqual(t, common.Hash{}, r1.GenesisHash)
}

func TestBuild_errors(t *testing.T) {
	p := integration.ExIMProfile()

	t.Run("no makers", func(t *testing.T) {
		cfg := testConfig()
		cfg.Makers = nil
		_, _, err := newAssembler(t, p).Build(cfg, genesis.DefaultTemplate(), nil)
		var cerr *genesis.ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "makers", cerr.Field)
	})

	t.Run("missing chain id", func(t *testing.T) {
		cfg := testConfig()
		cfg.ChainID = 0
		_, _, err := newAssembler(t, p).Build(cfg, genesis.DefaultTemplate(), nil)
		var cerr *genesis.ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "chainID", cerr.Field)
	})

	t.Run("supply overflow", func(t *testing.T) {
		prefund := genesis.Alloc{voterA: {Balance: genesis.NewBalance(p.ScaledSupply().Add(decimal.New(1, 0)))}}
		doc, _, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), prefund)
		var oerr *genesis.SupplyOverflowError
		require.True(t, errors.As(err, &oerr))
		assert.Nil(t, doc)
	})

	t.Run("prefunded remainder", func(t *testing.T) {
		prefund := genesis.Alloc{p.RemainderAddress: {Balance: genesis.NewBalance(decimal.New(1, 0))}}
		_, _, err := newAssembler(t, p).Build(testConfig(), genesis.DefaultTemplate(), prefund)
		var cerr *genesis.ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "prefund", cerr.Field)
	})

	t.Run("template without contracts", func(t *testing.T) {
		template := genesis.DefaultTemplate()
		delete(template.Alloc, p.GovernanceContract)
		_, _, err := newAssembler(t, p).Build(testConfig(), template, nil)
		var cerr *genesis.ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "template.alloc", cerr.Field)
	})

	t.Run("invalid profile", func(t *testing.T) {
		bad := integration.ExIMProfile()
		bad.GovernanceContract = bad.VotingContract
		_, err := New(bad, nil)
		assert.Error(t, err)
	})
}

func TestBuild_stateRootTracksBalances(t *testing.T) {
	p := integration.DevNetProfile()
	a := newAssembler(t, p)

	_, base, err := a.Build(testConfig(), genesis.DefaultTemplate(), nil)
	require.NoError(t, err)

	prefund := genesis.Alloc{voterA: {Balance: genesis.NewBalance(decimal.New(1, 0))}}
	_, changed, err := a.Build(testConfig(), genesis.DefaultTemplate(), prefund)
	require.NoError(t, err)

	assert.NotEqual(t, base.StateRoot, changed.StateRoot)
	assert.NotEqual(t, base.GenesisHash, changed.GenesisHash)
}

func TestDifficulty(t *testing.T) {
	p := integration.ExIMProfile()
	assert.Equal(t, big.NewInt(0), Difficulty(p, 0))
	assert.Equal(t, big.NewInt(1500000), Difficulty(p, 3))
}
