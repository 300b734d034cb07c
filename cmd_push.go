package main

import (
	"context"
	"sort"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/audit"
	"github.com/edneedham/cred/internal/target"
	"github.com/edneedham/cred/internal/targetauth"
)

func runPush(args []string) int {
	fs, g := newFlagSet("push")
	repoFlag := fs.String("repo", "", "repository slug, overriding detection/binding")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) == 0 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred push <target> [keys...] [--repo owner/name]"))
		return 0
	}
	targetName, keyArgs := rest[0], rest[1:]

	desc, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	selected := selectSecrets(v, keyArgs)

	t, err := target.Resolve(targetName)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	repo, err := requireRepo(desc, *repoFlag, "push")
	if err != nil {
		emitErr(g.jsonOut, err)
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

	if g.dryRun {
		names := make([]string, 0, len(selected))
		for name := range selected {
			names = append(names, name)
		}
		sort.Strings(names)
		emitOK(g.jsonOut, map[string]any{"will_update": names}, func() {
			infof("would push %d secrets to %s (%s)", len(names), targetName, repo)
		})
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	report, err := t.Push(ctx, selected, token, target.Options{Repo: &repo})
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	projectAudit(desc).Log(audit.Event("push", map[string]any{
		"target":  targetName,
		"repo":    repo,
		"updated": report.Updated,
		"failed":  report.Failed,
	}))

	code := 0
	if len(report.Failed) > 0 {
		code = int(apperr.TargetRejected)
	}

	emitOK(g.jsonOut, report, func() {
		successf("pushed %d secrets to %s", len(report.Updated), targetName)
		for name, msg := range report.Failed {
			warnf("%s: %s", name, msg)
		}
	})
	return code
}

// selectSecrets returns the vault entries named in keys, or the whole
// vault if keys is empty.
func selectSecrets(v vaultLister, keys []string) map[string]string {
	all := v.List()
	if len(keys) == 0 {
		return all
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if val, ok := all[k]; ok {
			out[k] = val
		}
	}
	return out
}

type vaultLister interface {
	List() map[string]string
}
