package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// GenesisFlags covers the input and output files of a build.
func GenesisFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Network configuration file (makers, voters, threshold, chainID, ...)",
			Value: "quorum-config.json",
		},
		cli.StringFlag{
			Name:  "template",
			Usage: "Genesis template file (defaults to the built-in template)",
		},
		cli.StringFlag{
			Name:  "prefund",
			Usage: "Optional JSON allocation list merged over the computed balances",
		},
		cli.StringFlag{
			Name:  "output",
			Usage: "File the genesis document is written to",
			Value: "quorum-genesis.json",
		},
	}
}

// ProfileFlags select a deployment profile and override parts of it.
func ProfileFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "profile",
			Usage: "Deployment profile (exim|devnet|threshold)",
			Value: "exim",
		},
		cli.StringFlag{
			Name:  "profile.file",
			Usage: "TOML file overriding fields of the selected profile",
		},
		cli.StringFlag{
			Name:  "profile.supply",
			Usage: "Total token supply in whole tokens",
		},
		cli.IntFlag{
			Name:  "profile.decimals",
			Usage: "Token decimals",
		},
		cli.StringFlag{
			Name:  "profile.funding",
			Usage: "Funding policy (remainder|even|fixed)",
		},
		cli.StringFlag{
			Name:  "profile.remainder",
			Usage: "Address receiving the unallocated supply",
		},
		cli.StringFlag{
			Name:  "profile.voting",
			Usage: "Voting mode (pow|threshold)",
		},
	}
}
