package main

import (
	"context"
	"sort"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/audit"
	"github.com/edneedham/cred/internal/target"
	"github.com/edneedham/cred/internal/targetauth"
)

func runPrune(args []string) int {
	fs, g := newFlagSet("prune")
	repoFlag := fs.String("repo", "", "repository slug, overriding detection/binding")
	all := fs.Bool("all", false, "prune every secret currently in the vault")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) == 0 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred prune <target> [keys...|--all] [--repo owner/name]"))
		return 0
	}
	targetName, keyArgs := rest[0], rest[1:]
	if *all && len(keyArgs) > 0 {
		emitErr(g.jsonOut, apperr.User(nil, "--all cannot be combined with an explicit key list"))
		return 0
	}

	desc, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	keys := keyArgs
	if *all {
		secrets := v.List()
		keys = make([]string, 0, len(secrets))
		for name := range secrets {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		emitErr(g.jsonOut, apperr.User(nil, "no keys to prune; pass keys explicitly or --all"))
		return 0
	}

	t, err := target.Resolve(targetName)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	repo, err := requireRepo(desc, *repoFlag, "prune")
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	dryRun := g.dryRun
	ciNotice := false
	if !dryRun && ciHost() && !g.yes {
		dryRun = true
		ciNotice = true
	}

	if dryRun {
		emitOK(g.jsonOut, map[string]any{"will_delete": keys}, func() {
			if ciNotice {
				warnf("CI host detected without --yes; treating prune as dry-run")
			}
			infof("would delete %d secrets from %s (%s)", len(keys), targetName, repo)
		})
		return 0
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	token, err := targetauth.Resolve(cfg, targetName)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	report, err := t.Delete(ctx, keys, token, target.Options{Repo: &repo})
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	// The remote has already confirmed deletion or absence for every key
	// in Deleted/Skipped; only those are safe to remove locally. A key in
	// Failed keeps its local value untouched.
	for _, name := range report.Deleted {
		v.Remove(name)
	}
	for _, name := range report.Skipped {
		v.Remove(name)
	}
	if err := v.Save(); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	projectAudit(desc).Log(audit.Event("prune", map[string]any{
		"target":  targetName,
		"repo":    repo,
		"deleted": report.Deleted,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}))

	code := 0
	if len(report.Failed) > 0 {
		code = int(apperr.TargetRejected)
	}

	emitOK(g.jsonOut, report, func() {
		successf("pruned %d secrets from %s (%d already absent)", len(report.Deleted), targetName, len(report.Skipped))
		for name, msg := range report.Failed {
			warnf("%s: %s", name, msg)
		}
	})
	return code
}
