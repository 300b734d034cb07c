package main

import (
	"flag"
	"os"
)

// globalFlags are recognized on every subcommand. Each command's FlagSet
// registers them the same way so the combination is always valid
// regardless of subcommand-specific flags.
type globalFlags struct {
	jsonOut        bool
	nonInteractive bool
	dryRun         bool
	yes            bool
}

func newFlagSet(name string) (*flag.FlagSet, *globalFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := &globalFlags{}
	fs.BoolVar(&g.jsonOut, "json", false, "emit machine-readable JSON")
	fs.BoolVar(&g.nonInteractive, "non-interactive", false, "never prompt; fail instead of asking")
	fs.BoolVar(&g.dryRun, "dry-run", false, "report what would happen without doing it")
	fs.BoolVar(&g.yes, "yes", false, "assume yes on confirmations")
	fs.BoolVar(&g.yes, "y", false, "shorthand for --yes")
	return fs, g
}

// ciHost reports whether the environment indicates a continuous
// integration host, per the CI env var's mere presence.
func ciHost() bool {
	_, ok := os.LookupEnv("CI")
	return ok
}

// flagParseExitCode is returned by a command when its own flag.FlagSet
// failed to parse; flag.FlagSet already wrote usage text to stderr.
const flagParseExitCode = 1
