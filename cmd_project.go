package main

import (
	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/project"
)

func runProject(args []string) int {
	if len(args) == 0 {
		emitErr(false, apperr.User(nil, "usage: cred project <status>"))
		return 0
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "status":
		return projectStatus(rest)
	default:
		emitErr(false, apperr.User(nil, "unknown project subcommand %q", sub))
		return 0
	}
}

func projectStatus(args []string) int {
	fs, g := newFlagSet("project status")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}

	desc, err := project.Find()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	detected := detectRepoSlug(desc)

	emitOK(g.jsonOut, map[string]any{
		"root":     desc.Root,
		"id":       desc.Config.ID,
		"git_root": desc.Config.GitRoot,
		"bound":    desc.Config.GitRepo,
		"detected": detected,
	}, func() {
		successf("project %s", desc.Config.ID)
		infof("root: %s", desc.Root)
		if desc.Config.GitRepo != "" {
			infof("bound repo: %s", desc.Config.GitRepo)
		}
		if detected != "" {
			infof("detected repo: %s", detected)
		}
	})
	return 0
}
