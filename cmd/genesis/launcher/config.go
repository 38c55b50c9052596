// This file maps the CLI context onto the launcher config struct.

package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-quorum-genesis/integration"
	"github.com/rony4d/go-quorum-genesis/quorum"
)

// Config aggregates everything one genesis build needs.
type Config struct {
	Input   InputConfig
	Output  OutputConfig
	Profile quorum.Profile
	Logging LoggingConfig

	ProfileFile string // TOML decoded on top of the preset, empty for none
}

type InputConfig struct {
	ConfigFile   string
	TemplateFile string // empty selects the built-in template
	PrefundFile  string // empty when there is no prefund list
}

type OutputConfig struct {
	Path string
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

//	defaultConfig builds the launcher config from DefaultConfig in defaults.go
//	so this file stays in sync with the documented defaults.

func defaultConfig() Config {
	d := DefaultConfig()
	profile, err := integration.GetProfileByName(d.Profile.Name)
	if err != nil {
		panic(err)
	}
	return Config{
		Input: InputConfig{
			ConfigFile:   d.Input.ConfigFile,
			TemplateFile: d.Input.TemplateFile,
			PrefundFile:  d.Input.PrefundFile,
		},
		Output:      OutputConfig{Path: d.Output.Path},
		Profile:     profile,
		ProfileFile: d.Profile.File,
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
			SentryDSN: d.Logging.SentryDSN,
		},
	}
}

// MakeAllConfigs merges defaults, the selected profile, the optional profile
// file and CLI overrides into a single config struct, in that order.

func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if ctx.IsSet("profile") {
		profile, err := integration.GetProfileByName(ctx.String("profile"))
		if err != nil {
			return cfg, err
		}
		cfg.Profile = profile
	}
	if ctx.IsSet("profile.file") {
		cfg.ProfileFile = ctx.String("profile.file")
	}
	if cfg.ProfileFile != "" {
		cfg.ProfileFile = resolvePath(cfg.ProfileFile)
		if err := integration.LoadProfileFile(cfg.ProfileFile, &cfg.Profile); err != nil {
			return cfg, fmt.Errorf("failed to load profile file %s: %w", cfg.ProfileFile, err)
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Profile.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// CLI wiring
// -----------------------------------------------------------------------------

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.IsSet("config") {
		cfg.Input.ConfigFile = ctx.String("config")
	}
	if ctx.IsSet("template") {
		cfg.Input.TemplateFile = ctx.String("template")
	}
	if ctx.IsSet("prefund") {
		cfg.Input.PrefundFile = ctx.String("prefund")
	}
	if ctx.IsSet("output") {
		cfg.Output.Path = ctx.String("output")
	}
	cfg.Input.ConfigFile = resolvePath(cfg.Input.ConfigFile)
	cfg.Input.TemplateFile = resolvePath(cfg.Input.TemplateFile)
	cfg.Input.PrefundFile = resolvePath(cfg.Input.PrefundFile)
	cfg.Output.Path = resolvePath(cfg.Output.Path)

	if ctx.IsSet("log.format") {
		cfg.Logging.Format = ctx.String("log.format")
	}
	if ctx.IsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.color") {
		cfg.Logging.Color = ctx.Bool("log.color")
	}
	if ctx.IsSet("sentry.dsn") {
		cfg.Logging.SentryDSN = ctx.String("sentry.dsn")
	}

	var over quorum.Profile
	if ctx.IsSet("profile.supply") {
		supply, err := decimal.NewFromString(ctx.String("profile.supply"))
		if err != nil {
			return fmt.Errorf("invalid --profile.supply: %w", err)
		}
		over.TotalSupply = supply
	}
	if ctx.IsSet("profile.decimals") {
		over.Decimals = int32(ctx.Int("profile.decimals"))
	}
	if ctx.IsSet("profile.funding") {
		if err := over.Funding.Policy.UnmarshalText([]byte(ctx.String("profile.funding"))); err != nil {
			return fmt.Errorf("invalid --profile.funding: %w", err)
		}
	}
	if ctx.IsSet("profile.voting") {
		if err := over.Voting.UnmarshalText([]byte(ctx.String("profile.voting"))); err != nil {
			return fmt.Errorf("invalid --profile.voting: %w", err)
		}
	}
	if ctx.IsSet("profile.remainder") {
		addr := ctx.String("profile.remainder")
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid --profile.remainder: malformed address %q", addr)
		}
		over.RemainderAddress = common.HexToAddress(addr)
	}
	integration.ApplyOverrides(&cfg.Profile, over)
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func resolvePath(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
