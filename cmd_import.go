package main

import (
	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/audit"
	"github.com/edneedham/cred/internal/envfile"
)

func runImport(args []string) int {
	fs, g := newFlagSet("import")
	overwrite := fs.Bool("overwrite", false, "replace values for keys already present")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred import <path>"))
		return 0
	}
	path := rest[0]

	pairs, err := envfile.ParseFile(path)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	desc, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	counts := envfile.Import(v, pairs, *overwrite, g.dryRun)
	if !g.dryRun {
		if err := v.Save(); err != nil {
			emitErr(g.jsonOut, err)
			return 0
		}
		projectAudit(desc).Log(audit.Event("import", map[string]any{
			"path":        path,
			"added":       counts.Added,
			"skipped":     counts.Skipped,
			"overwritten": counts.Overwritten,
		}))
	}

	emitOK(g.jsonOut, counts, func() {
		prefix := ""
		if g.dryRun {
			prefix = "would have "
		}
		successf("%simported %d added, %d skipped, %d overwritten", prefix, counts.Added, counts.Skipped, counts.Overwritten)
	})
	return 0
}
