package launcher

// Defaults bundles the baseline configuration values the launcher uses
// before the profile file and flags override them.

type Defaults struct {
	Input   InputDefaults
	Output  OutputDefaults
	Profile ProfileDefaults
	Logging LoggingDefaults
}

// InputDefaults names the files a build reads.
type InputDefaults struct {
	ConfigFile   string //	Network configuration with makers, voters, owners, threshold, chainID and gasLimit. Relative paths resolve against the working directory.
	TemplateFile string //	Genesis skeleton declaring the two system contracts. Empty selects the template compiled into the binary.
	PrefundFile  string //	Optional external allocation list (token sale, treasury). Its balances override computed ones; it may not name the remainder address.
}

// OutputDefaults names the file a build writes.
type OutputDefaults struct {
	Path string //	Destination of the genesis document. It is written to a temporary file next to it and renamed, so readers never see a partial document.
}

// ProfileDefaults selects the deployment profile.
type ProfileDefaults struct {
	Name string //	One of the integration presets (exim, devnet, threshold).
	File string //	Optional TOML file decoded on top of the preset.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=panic, 1=fatal, 2=error, 3=warn, 4=info, 5=debug).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
	SentryDSN string //	Sentry project DSN; when set, error level entries are reported there as well.
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Input: InputDefaults{
			ConfigFile: "quorum-config.json",
		},
		Output: OutputDefaults{
			Path: "quorum-genesis.json",
		},
		Profile: ProfileDefaults{
			Name: "exim",
		},
		Logging: LoggingDefaults{
			Verbosity: 4,
			Format:    "text",
			Color:     false,
		},
	}
}
