package genesis

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/multierr"

	"github.com/rony4d/go-quorum-genesis/quorum"
)

// configFile is the on-disk shape of the network configuration.
type configFile struct {
	Makers          []string        `json:"makers"`
	Voters          []string        `json:"voters"`
	Owners          []string        `json:"owners"`
	FundedObservers []string        `json:"fundedObservers"`
	Threshold       json.RawMessage `json:"threshold"`
	ChainID         json.RawMessage `json:"chainID"`
	GasLimit        json.RawMessage `json:"gasLimit"`
}

// Config is a validated network configuration. Address lists are sets:
// duplicates are dropped and first-occurrence order is kept.
type Config struct {
	Makers          []common.Address
	Voters          []common.Address
	Owners          []common.Address // governance owners, defaulted from voters and the profile's reserve owners
	FundedObservers []common.Address
	Threshold       uint64
	ChainID         uint64 // 0 when not configured
	GasLimit        uint64 // 0 keeps the template's gas limit
}

// ParseConfig decodes a JSON configuration, applies defaults and validates
// it against the profile. All problems found are returned together.
func ParseConfig(data []byte, p quorum.Profile) (*Config, error) {
	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, configErrorf("file", "invalid JSON: %v", err)
	}

	var errs error
	addresses := func(field string, raw []string) []common.Address {
		list, err := parseAddresses(field, raw)
		errs = multierr.Append(errs, err)
		return list
	}

	cfg := &Config{
		Makers:          addresses("makers", file.Makers),
		Voters:          addresses("voters", file.Voters),
		Owners:          addresses("owners", file.Owners),
		FundedObservers: addresses("fundedObservers", file.FundedObservers),
	}
	quantity := func(field string, raw json.RawMessage) uint64 {
		v, err := parseQuantity(field, raw)
		errs = multierr.Append(errs, err)
		return v
	}
	cfg.Threshold = quantity("threshold", file.Threshold)
	cfg.ChainID = quantity("chainID", file.ChainID)
	cfg.GasLimit = quantity("gasLimit", file.GasLimit)
	if present(file.GasLimit) && cfg.GasLimit == 0 && errs == nil {
		errs = configErrorf("gasLimit", "must be positive")
	}
	if errs != nil {
		return nil, errs
	}

	cfg.ApplyDefaults(p)
	if err := cfg.Validate(p); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults deduplicates every address set and fills in the governance
// owners when none were configured.
func (c *Config) ApplyDefaults(p quorum.Profile) {
	c.Makers = uniqueAddresses(c.Makers)
	c.Voters = uniqueAddresses(c.Voters)
	c.FundedObservers = uniqueAddresses(c.FundedObservers)
	if len(c.Owners) == 0 {
		c.Owners = append(append([]common.Address(nil), c.Voters...), p.ReserveOwners...)
	}
	c.Owners = uniqueAddresses(c.Owners)
}

// Validate checks the configuration against the profile.
func (c *Config) Validate(p quorum.Profile) error {
	var errs error
	if len(c.Makers) == 0 {
		errs = multierr.Append(errs, configErrorf("makers", "at least one block maker address is required"))
	}
	if p.Voting == quorum.VotingThreshold {
		switch {
		case c.Threshold == 0:
			errs = multierr.Append(errs, configErrorf("threshold", "a positive voting threshold is required"))
		case uint64(len(c.Voters)) < c.Threshold:
			errs = multierr.Append(errs, configErrorf("voters", "%d voters cannot meet threshold %d", len(c.Voters), c.Threshold))
		}
	}
	if p.RequireChainID && c.ChainID == 0 {
		errs = multierr.Append(errs, configErrorf("chainID", "not found in config"))
	}
	return errs
}

// Participants returns the deduplicated union of voters, makers and funded
// observers: the addresses the fixed and even funding policies pay.
func (c *Config) Participants() []common.Address {
	all := make([]common.Address, 0, len(c.Voters)+len(c.Makers)+len(c.FundedObservers))
	all = append(all, c.Voters...)
	all = append(all, c.Makers...)
	all = append(all, c.FundedObservers...)
	return uniqueAddresses(all)
}

// parseQuantity decodes an optional numeric field. Absent and null fields
// yield zero.
func parseQuantity(field string, raw json.RawMessage) (uint64, error) {
	if !present(raw) {
		return 0, nil
	}
	var q Quantity
	if err := json.Unmarshal(raw, &q); err != nil {
		return 0, configErrorf(field, "%v", err)
	}
	return uint64(q), nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func parseAddresses(field string, raw []string) ([]common.Address, error) {
	var (
		out  = make([]common.Address, 0, len(raw))
		errs error
	)
	for i, s := range raw {
		if !common.IsHexAddress(s) {
			errs = multierr.Append(errs, &AddressFormatError{Field: field, Index: i, Value: s})
			continue
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, errs
}

func uniqueAddresses(list []common.Address) []common.Address {
	seen := make(map[common.Address]struct{}, len(list))
	out := make([]common.Address, 0, len(list))
	for _, addr := range list {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// String summarizes the configuration for logs.
func (c *Config) String() string {
	return fmt.Sprintf("makers=%d voters=%d owners=%d observers=%d threshold=%d chainID=%d",
		len(c.Makers), len(c.Voters), len(c.Owners), len(c.FundedObservers), c.Threshold, c.ChainID)
}
