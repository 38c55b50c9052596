package launcher

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-quorum-genesis/flags"
	"github.com/rony4d/go-quorum-genesis/integration"
)

var app = newApp()

var dumpProfileCommand = cli.Command{
	Action:    dumpProfile,
	Name:      "dumpprofile",
	Usage:     "Show the resolved deployment profile as TOML",
	ArgsUsage: "[file]",
	Flags:     flags.AllFlags(),
	Description: `The dumpprofile command prints the profile a build would use, after the
profile file and flag overrides are applied. The output is accepted by --profile.file.`,
}

func newApp() *cli.App {
	a := flags.NewApp()
	a.Flags = flags.AllFlags()
	a.Action = generate
	a.Commands = []cli.Command{dumpProfileCommand}
	return a
}

// Launch runs the CLI with the given arguments.
func Launch(args []string) error {
	return app.Run(args)
}

// generate is the default action: build the genesis document and write it.
func generate(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}

	report, err := build(cfg, log)
	if err != nil {
		log.WithError(err).Error("Genesis build failed")
		return err
	}
	log.WithFields(logrus.Fields{
		"output":    cfg.Output.Path,
		"allocated": report.Allocated.Shift(-cfg.Profile.Decimals).String(),
		"remainder": report.Remainder.Shift(-cfg.Profile.Decimals).String(),
		"hash":      report.GenesisHash.Hex(),
	}).Info("Wrote genesis")
	return nil
}

func dumpProfile(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	out, err := integration.DumpProfile(cfg.Profile)
	if err != nil {
		return err
	}
	comment := fmt.Sprintf("# Profile %q, accepted by --profile.file\n\n", cfg.Profile.Name)
	out = append([]byte(comment), out...)

	if ctx.NArg() > 0 {
		return ioutil.WriteFile(ctx.Args().Get(0), out, 0644)
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}
