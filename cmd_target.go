package main

import (
	"context"
	"fmt"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/target"
	"github.com/edneedham/cred/internal/targetauth"
)

func runTarget(args []string) int {
	if len(args) == 0 {
		emitErr(false, apperr.User(nil, "usage: cred target <set|list|revoke>"))
		return 0
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "set":
		return targetSet(rest)
	case "list":
		return targetList(rest)
	case "revoke":
		return targetRevoke(rest)
	default:
		emitErr(false, apperr.User(nil, "unknown target subcommand %q", sub))
		return 0
	}
}

func targetSet(args []string) int {
	fs, g := newFlagSet("target set")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 2 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred target set <name> <token>"))
		return 0
	}
	name, token := rest[0], rest[1]
	if _, err := target.Resolve(name); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	if g.dryRun {
		emitOK(g.jsonOut, map[string]any{"would_set": name}, func() {
			infof("would store a token for target %q", name)
		})
		return 0
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if err := targetauth.Login(cfg, name, token); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if err := cfg.Save(); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	emitOK(g.jsonOut, map[string]any{"target": name}, func() {
		successf("stored a token for target %q", name)
	})
	return 0
}

func targetList(args []string) int {
	fs, g := newFlagSet("target list")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}

	names := target.Names()
	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	type row struct {
		Name       string `json:"name"`
		LoggedIn   bool   `json:"logged_in"`
	}
	rows := make([]row, 0, len(names))
	for _, name := range names {
		_, err := targetauth.Resolve(cfg, name)
		rows = append(rows, row{Name: name, LoggedIn: err == nil})
	}

	emitOK(g.jsonOut, rows, func() {
		for _, r := range rows {
			status := "not logged in"
			if r.LoggedIn {
				status = "logged in"
			}
			infof("%s: %s", r.Name, status)
		}
	})
	return 0
}

func targetRevoke(args []string) int {
	fs, g := newFlagSet("target revoke")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred target revoke <name>"))
		return 0
	}
	name := rest[0]

	if g.dryRun {
		emitOK(g.jsonOut, map[string]any{"would_revoke": name}, func() {
			infof("would revoke the auth token for target %q", name)
		})
		return 0
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	t, err := target.Resolve(name)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	token, err := targetauth.Resolve(cfg, name)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := t.RevokeAuthToken(ctx, token); err != nil {
		emitErr(g.jsonOut, fmt.Errorf("remote revoke failed, local credential left intact: %w", err))
		return 0
	}

	if err := targetauth.Logout(cfg, name); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if err := cfg.Save(); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	emitOK(g.jsonOut, map[string]any{"target": name}, func() {
		successf("revoked target %q", name)
	})
	return 0
}
