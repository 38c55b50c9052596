// Package builder assembles a quorum genesis document from a template, a
// network configuration and an optional external allocation list.
package builder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-quorum-genesis/evmcore"
	"github.com/rony4d/go-quorum-genesis/quorum"
	"github.com/rony4d/go-quorum-genesis/quorum/contracts"
	"github.com/rony4d/go-quorum-genesis/quorum/genesis"
	"github.com/rony4d/go-quorum-genesis/quorum/ledger"
)

// Report summarizes a finished build.
type Report struct {
	Allocated   decimal.Decimal // sum of every balance, base units
	Remainder   decimal.Decimal // what the remainder address received
	EscrowDrift decimal.Decimal // base units handed out above the escrow amounts
	Difficulty  *big.Int
	StateRoot   common.Hash
	GenesisHash common.Hash

	Voters int
	Makers int
	Owners int
}

// Assembler builds genesis documents for one profile. It holds no per-build
// state and may be reused.
type Assembler struct {
	profile quorum.Profile
	log     logrus.FieldLogger
}

// New validates the profile and returns an assembler for it.
func New(p quorum.Profile, log logrus.FieldLogger) (*Assembler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Assembler{
		profile: p.Copy(),
		log:     log.WithField("profile", p.Name),
	}, nil
}

// Profile returns a copy of the profile the assembler builds for.
func (a *Assembler) Profile() quorum.Profile {
	return a.profile.Copy()
}

// Build produces a genesis document. The template and prefund list are not
// modified; prefund may be nil.
//
// Steps:
//  1. Writes voting and governance contract storage
//  2. Sets gas limit, difficulty and chain ID
//  3. Runs the funding passes of the profile's policy, merging the prefund
//     list before the supply is reconciled
//  4. Replays the result into an in-memory state to preview the state root
//     and genesis block hash
//
// On error no document is returned.
func (a *Assembler) Build(cfg *genesis.Config, template *genesis.Document, prefund genesis.Alloc) (*genesis.Document, *Report, error) {
	p := a.profile
	// work on normalized sets whatever the caller built
	normalized := *cfg
	normalized.ApplyDefaults(p)
	cfg = &normalized
	if err := cfg.Validate(p); err != nil {
		return nil, nil, err
	}
	if _, ok := prefund[p.RemainderAddress]; ok {
		return nil, nil, &genesis.ConfigError{
			Field:  "prefund",
			Reason: fmt.Sprintf("remainder address %s cannot be prefunded", p.RemainderAddress.Hex()),
		}
	}

	doc := template.Copy()
	if doc.Alloc == nil {
		doc.Alloc = make(genesis.Alloc)
	}
	if doc.Config == nil {
		doc.Config = make(genesis.ChainConfig)
	}

	if err := contracts.WriteVotingStorage(doc, p.VotingContract, p.Voting, cfg); err != nil {
		return nil, nil, err
	}
	if err := contracts.WriteGovernanceStorage(doc, p.GovernanceContract, cfg.Owners); err != nil {
		return nil, nil, err
	}

	if cfg.GasLimit != 0 {
		doc.GasLimit = genesis.NewQuantity(cfg.GasLimit)
	}
	if p.DynamicDifficulty {
		doc.Difficulty = genesis.NewBig(Difficulty(p, len(cfg.Makers)))
	}
	if cfg.ChainID != 0 {
		doc.Config.SetChainID(cfg.ChainID)
	}

	report := &Report{
		Voters: len(cfg.Voters),
		Makers: len(cfg.Makers),
		Owners: len(cfg.Owners),
	}
	if err := a.fund(doc, cfg, prefund, report); err != nil {
		return nil, nil, err
	}
	if doc.Difficulty != nil {
		report.Difficulty = new(big.Int).Set(doc.Difficulty.ToInt())
	}

	block, err := evmcore.Preview(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("preview genesis state: %w", err)
	}
	report.StateRoot = block.Root
	report.GenesisHash = block.Hash

	a.log.WithFields(logrus.Fields{
		"voters":    report.Voters,
		"makers":    report.Makers,
		"owners":    report.Owners,
		"accounts":  len(doc.Alloc),
		"stateRoot": report.StateRoot.Hex(),
		"hash":      report.GenesisHash.Hex(),
	}).Info("Assembled genesis")
	return doc, report, nil
}

// fund runs the balance passes in their fixed order.
func (a *Assembler) fund(doc *genesis.Document, cfg *genesis.Config, prefund genesis.Alloc, report *Report) error {
	p := a.profile
	l := ledger.New(doc.Alloc, p.Decimals, a.log)

	if p.Funding.Policy == quorum.FundFixed {
		l.FundFixed(cfg.Participants(), p.Funding.FixedAmount)
	}
	report.EscrowDrift = l.FundWeightedEscrows(p.EscrowGroups)
	if len(prefund) > 0 {
		genesis.MergeAlloc(doc.Alloc, prefund)
		a.log.WithField("accounts", len(prefund)).Debug("Merged prefund list")
	}
	l.PinSystemContracts(p.SystemContracts(), p.SystemContractBalance)

	report.Remainder = decimal.Zero
	if p.Funding.Policy.Conserves() {
		supply := p.ScaledSupply()
		if p.Funding.Policy == quorum.FundEven {
			if err := l.DistributeEvenly(evenTargets(cfg, p, prefund), supply, p.RemainderAddress); err != nil {
				return err
			}
		}
		rest, err := l.ReconcileRemainder(supply, p.RemainderAddress)
		if err != nil {
			return err
		}
		report.Remainder = rest
	}
	report.Allocated = l.Total()
	return nil
}

// evenTargets returns the participants the even pass may pay. Prefunded
// addresses keep their external balance and system contracts stay pinned.
func evenTargets(cfg *genesis.Config, p quorum.Profile, prefund genesis.Alloc) []common.Address {
	pinned := make(map[common.Address]struct{}, 2)
	for _, addr := range p.SystemContracts() {
		pinned[addr] = struct{}{}
	}
	var targets []common.Address
	for _, addr := range cfg.Participants() {
		if _, ok := prefund[addr]; ok {
			continue
		}
		if _, ok := pinned[addr]; ok {
			continue
		}
		targets = append(targets, addr)
	}
	return targets
}

// Difficulty estimates the initial difficulty for a number of makers:
// expected hashrate per maker times the block time times the maker count.
func Difficulty(p quorum.Profile, makers int) *big.Int {
	d := new(big.Int).SetUint64(p.ExpectedMakerHashrate)
	d.Mul(d, new(big.Int).SetUint64(p.SecondsPerBlock))
	return d.Mul(d, big.NewInt(int64(makers)))
}
