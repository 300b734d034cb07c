package main

import (
	"os"

	"github.com/edneedham/cred/internal/project"
)

func runInit(args []string) int {
	fs, g := newFlagSet("init")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}

	cwd, err := os.Getwd()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	if g.dryRun {
		emitOK(g.jsonOut, map[string]any{"would_init": cwd}, func() {
			infof("would initialize a cred project at %s", cwd)
		})
		return 0
	}

	desc, err := project.InitAt(cwd)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	emitOK(g.jsonOut, map[string]any{
		"root": desc.Root,
		"id":   desc.Config.ID,
	}, func() {
		successf("initialized cred project %s at %s", desc.Config.ID, desc.Root)
	})
	return 0
}
