// Package quorum defines the deployment profile of a quorum network genesis.
//
// A Profile carries every constant the genesis builder depends on: where the
// two system contracts live, how large the token supply is, how unallocated
// supply is handled, and which optional chain parameters are computed. The
// named presets live in the integration package; operators can override any
// field with a TOML profile file.
package quorum

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// MaxDecimals bounds the decimal scaling exponent. 10^77 is the largest power
// of ten that fits a 256-bit EVM word.
const MaxDecimals = 77

// FundingPolicy selects how the ledger treats supply that no explicit funding
// pass allocated.
type FundingPolicy string

const (
	// FundRemainder leaves participants unfunded and gives the whole
	// unallocated supply to the remainder address.
	FundRemainder FundingPolicy = "remainder"

	// FundEven splits the unallocated supply evenly among participants. The
	// indivisible dust goes to the remainder address.
	FundEven FundingPolicy = "even"

	// FundFixed gives every participant Funding.FixedAmount and does not
	// reconcile against the total supply.
	FundFixed FundingPolicy = "fixed"
)

// Conserves reports whether the policy keeps the total supply exact.
func (p FundingPolicy) Conserves() bool {
	return p == FundRemainder || p == FundEven
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *FundingPolicy) UnmarshalText(text []byte) error {
	switch v := FundingPolicy(text); v {
	case FundRemainder, FundEven, FundFixed:
		*p = v
		return nil
	default:
		return fmt.Errorf("unknown funding policy %q (valid: remainder, even, fixed)", text)
	}
}

// VotingMode selects what the block voting contract stores as its threshold.
type VotingMode string

const (
	// VotingPoW stores a zero threshold; blocks are made by proof of work
	// and voters only signal.
	VotingPoW VotingMode = "pow"

	// VotingThreshold stores the configured threshold; the configuration
	// must then carry at least that many voters.
	VotingThreshold VotingMode = "threshold"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *VotingMode) UnmarshalText(text []byte) error {
	switch v := VotingMode(text); v {
	case VotingPoW, VotingThreshold:
		*m = v
		return nil
	default:
		return fmt.Errorf("unknown voting mode %q (valid: pow, threshold)", text)
	}
}

// EscrowGroup is a named set of addresses collectively entitled to Amount
// base units, split evenly with the per-member share rounded up.
type EscrowGroup struct {
	Name    string
	Amount  decimal.Decimal // base units
	Members []common.Address
}

// FundingRules configures the allocation ledger.
type FundingRules struct {
	Policy      FundingPolicy
	FixedAmount decimal.Decimal // base units per participant, FundFixed only
}

// Profile describes one deployment of the genesis builder.
type Profile struct {
	Name string

	// System contracts
	VotingContract     common.Address // block voting contract, holds voters and makers
	GovernanceContract common.Address // governance contract, holds owners

	// SystemContractBalance is what both system contracts end with, whatever
	// any funding pass did to them.
	SystemContractBalance decimal.Decimal

	// RemainderAddress receives the unallocated supply.
	RemainderAddress common.Address

	// ReserveOwners are added to the voters when the configuration does not
	// list governance owners explicitly.
	ReserveOwners []common.Address

	// Supply
	TotalSupply decimal.Decimal // whole tokens
	Decimals    int32           // base units per token = 10^Decimals

	Funding      FundingRules
	EscrowGroups []EscrowGroup `json:",omitempty"`

	// Chain parameters
	Voting                VotingMode
	DynamicDifficulty     bool   // derive difficulty from the maker count
	ExpectedMakerHashrate uint64 // hashes per second of an average maker at launch
	SecondsPerBlock       uint64 // desired block time for the difficulty estimate
	RequireChainID        bool   // the configuration must carry chainID
}

// ScaledSupply returns the total supply in base units.
func (p Profile) ScaledSupply() decimal.Decimal {
	return p.TotalSupply.Shift(p.Decimals)
}

// SystemContracts returns the voting and governance contract addresses.
func (p Profile) SystemContracts() []common.Address {
	return []common.Address{p.VotingContract, p.GovernanceContract}
}

// Validate checks the profile for internal consistency. Every problem is
// reported, combined into one error.
func (p Profile) Validate() error {
	var errs error
	fail := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf("profile %s: "+format, append([]interface{}{p.Name}, args...)...))
	}

	if p.VotingContract == p.GovernanceContract {
		fail("voting and governance contracts share address %s", p.VotingContract.Hex())
	}
	for _, c := range p.SystemContracts() {
		if p.RemainderAddress == c {
			fail("remainder address %s is a system contract", c.Hex())
		}
	}
	if p.Decimals < 0 || p.Decimals > MaxDecimals {
		fail("decimals %d out of range [0, %d]", p.Decimals, MaxDecimals)
	}
	if !isWhole(p.SystemContractBalance) {
		fail("system contract balance %s is not a non-negative integer", p.SystemContractBalance)
	}
	if supply := p.ScaledSupply(); supply.Sign() <= 0 || !isWhole(supply) {
		fail("total supply %s does not scale to a positive integer with %d decimals", p.TotalSupply, p.Decimals)
	}

	switch p.Funding.Policy {
	case FundRemainder, FundEven:
	case FundFixed:
		if p.Funding.FixedAmount.Sign() <= 0 || !isWhole(p.Funding.FixedAmount) {
			fail("fixed funding amount %s is not a positive integer", p.Funding.FixedAmount)
		}
	default:
		fail("unknown funding policy %q", p.Funding.Policy)
	}

	for i, g := range p.EscrowGroups {
		if len(g.Members) == 0 {
			fail("escrow group %d (%s) has no members", i, g.Name)
		}
		for _, m := range g.Members {
			if m == p.RemainderAddress {
				fail("escrow group %d (%s) lists the remainder address %s", i, g.Name, m.Hex())
			}
		}
		if !isWhole(g.Amount) {
			fail("escrow group %d (%s) amount %s is not a non-negative integer", i, g.Name, g.Amount)
		}
	}

	switch p.Voting {
	case VotingPoW, VotingThreshold:
	default:
		fail("unknown voting mode %q", p.Voting)
	}
	if p.DynamicDifficulty && (p.ExpectedMakerHashrate == 0 || p.SecondsPerBlock == 0) {
		fail("dynamic difficulty needs a non-zero hashrate and block time")
	}
	return errs
}

// Copy returns a deep copy of the profile.
func (p Profile) Copy() Profile {
	cp := p
	cp.ReserveOwners = append([]common.Address(nil), p.ReserveOwners...)
	cp.EscrowGroups = make([]EscrowGroup, len(p.EscrowGroups))
	for i, g := range p.EscrowGroups {
		cp.EscrowGroups[i] = g
		cp.EscrowGroups[i].Members = append([]common.Address(nil), g.Members...)
	}
	return cp
}

// String returns a JSON representation of the profile for logging.
func (p Profile) String() string {
	b, _ := json.Marshal(&p)
	return string(b)
}

func isWhole(d decimal.Decimal) bool {
	return d.Sign() >= 0 && d.Equal(d.Truncate(0))
}
