package main

import (
	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/audit"
	"github.com/edneedham/cred/internal/envfile"
)

func runExport(args []string) int {
	fs, g := newFlagSet("export")
	force := fs.Bool("force", false, "overwrite the destination if it exists")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred export <path>"))
		return 0
	}
	path := rest[0]

	desc, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	count, err := envfile.Export(v, path, *force, g.dryRun)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if !g.dryRun {
		projectAudit(desc).Log(audit.Event("export", map[string]any{"path": path, "count": count}))
	}

	emitOK(g.jsonOut, map[string]any{"path": path, "count": count}, func() {
		prefix := ""
		if g.dryRun {
			prefix = "would have "
		}
		successf("%sexported %d secrets to %s", prefix, count, path)
	})
	return 0
}
