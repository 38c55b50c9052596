package integration

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/naoina/toml"
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-quorum-genesis/quorum"
)

// Package integration provides the named deployment profiles of the genesis
// builder. A profile bundles every constant a deployment fixes up front
// (system contract addresses, supply, funding policy, voting mode) so that
// operators pick one with --profile and only override what differs.
//
// Usage:
//   p := integration.ExIMProfile()      // the production network
//   p := integration.DevNetProfile()    // disposable development chains
//   p := integration.ThresholdProfile() // threshold voting
//
// A profile can be further adjusted from a TOML file with LoadProfileFile.

var (
	// DefaultVotingContract is the address the default template declares the
	// block voting contract at.
	DefaultVotingContract = common.HexToAddress("0x0000000000000000000000000000000000000020")
	// DefaultGovernanceContract is the address the default template declares
	// the governance contract at.
	DefaultGovernanceContract = common.HexToAddress("0x000000000000000000000000000000000000002a")
	// ExIMRemainder receives the unallocated ExIM supply and is the reserve
	// governance owner.
	ExIMRemainder = common.HexToAddress("0x9153A2a04cc57B486AB82bC0bE341DCa367B7934")
)

// tokens scales a whole-token amount to base units.
func tokens(amount int64, decimals int32) decimal.Decimal {
	return decimal.New(amount, decimals)
}

// ExIMProfile returns the production profile: proof-of-work voting with a
// difficulty derived from the maker count, a 150M token supply with 18
// decimals, and the whole unallocated supply on the remainder address.
func ExIMProfile() quorum.Profile {
	return quorum.Profile{
		Name:                  "exim",
		VotingContract:        DefaultVotingContract,
		GovernanceContract:    DefaultGovernanceContract,
		SystemContractBalance: decimal.Zero,
		RemainderAddress:      ExIMRemainder,
		ReserveOwners:         []common.Address{ExIMRemainder},
		TotalSupply:           decimal.New(150000000, 0),
		Decimals:              18,
		Funding: quorum.FundingRules{
			Policy:      quorum.FundRemainder,
			FixedAmount: decimal.Zero,
		},
		Voting:                quorum.VotingPoW,
		DynamicDifficulty:     true,
		ExpectedMakerHashrate: 50000, // 50 KH/s per maker
		SecondsPerBlock:       10,
		RequireChainID:        true,
	}
}

// DevNetProfile returns a profile for throwaway development chains. Every
// participant gets a fixed million tokens, the supply is not conserved and
// the chain ID is optional.
//
// Trade-offs:
//   - Balances do not sum to the supply, tooling relying on that breaks
//   - The escrow group uses well-known addresses, never deploy it for real
func DevNetProfile() quorum.Profile {
	p := ExIMProfile()
	p.Name = "devnet"
	p.Funding = quorum.FundingRules{
		Policy:      quorum.FundFixed,
		FixedAmount: tokens(1000000, p.Decimals),
	}
	p.EscrowGroups = []quorum.EscrowGroup{
		{
			Name:   "faucet",
			Amount: tokens(10000000, p.Decimals),
			Members: []common.Address{
				common.HexToAddress("0x00000000000000000000000000000000000fa0c1"),
				common.HexToAddress("0x00000000000000000000000000000000000fa0c2"),
				common.HexToAddress("0x00000000000000000000000000000000000fa0c3"),
			},
		},
	}
	p.RequireChainID = false
	return p
}

// ThresholdProfile returns the ExIM profile switched to threshold voting.
// The leftover supply is split evenly among participants.
func ThresholdProfile() quorum.Profile {
	p := ExIMProfile()
	p.Name = "threshold"
	p.Funding.Policy = quorum.FundEven
	p.Voting = quorum.VotingThreshold
	p.DynamicDifficulty = false
	return p
}

// ProfileNames lists the names GetProfileByName accepts.
var ProfileNames = []string{"exim", "devnet", "threshold"}

// GetProfileByName looks up a profile by its identifier. Returns an error if
// the name is unrecognized.
//
// Example:
//
//	p, err := integration.GetProfileByName("devnet")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetProfileByName(name string) (quorum.Profile, error) {
	switch name {
	case "exim", "":
		return ExIMProfile(), nil
	case "devnet":
		return DevNetProfile(), nil
	case "threshold":
		return ThresholdProfile(), nil
	default:
		return quorum.Profile{}, fmt.Errorf("unknown profile: %q (valid: exim, devnet, threshold)", name)
	}
}

// ApplyOverrides merges the set fields of over into target. Zero addresses,
// zero amounts and empty strings leave the target value alone; booleans are
// only ever switched by a profile file.
//
// Example:
//
//	p := integration.ExIMProfile()
//	integration.ApplyOverrides(&p, quorum.Profile{TotalSupply: decimal.New(1000, 0)})
func ApplyOverrides(target *quorum.Profile, over quorum.Profile) {
	if over.Name != "" {
		target.Name = over.Name
	}
	if over.RemainderAddress != (common.Address{}) {
		target.RemainderAddress = over.RemainderAddress
	}
	if !over.TotalSupply.IsZero() {
		target.TotalSupply = over.TotalSupply
	}
	if over.Decimals != 0 {
		target.Decimals = over.Decimals
	}
	if over.Funding.Policy != "" {
		target.Funding.Policy = over.Funding.Policy
	}
	if !over.Funding.FixedAmount.IsZero() {
		target.Funding.FixedAmount = over.Funding.FixedAmount
	}
	if over.Voting != "" {
		target.Voting = over.Voting
	}
	if over.ExpectedMakerHashrate != 0 {
		target.ExpectedMakerHashrate = over.ExpectedMakerHashrate
	}
	if over.SecondsPerBlock != 0 {
		target.SecondsPerBlock = over.SecondsPerBlock
	}
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LoadProfileFile decodes a TOML profile file on top of p. Keys the file
// does not mention keep their current value.
func LoadProfileFile(file string, p *quorum.Profile) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = DecodeProfile(bufio.NewReader(f), p)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// DecodeProfile decodes TOML from r on top of p.
func DecodeProfile(r io.Reader, p *quorum.Profile) error {
	return tomlSettings.NewDecoder(r).Decode(p)
}

// DumpProfile renders p as TOML in the format LoadProfileFile reads.
func DumpProfile(p quorum.Profile) ([]byte, error) {
	return tomlSettings.Marshal(&p)
}
