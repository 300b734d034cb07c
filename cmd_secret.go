package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/audit"
	"github.com/edneedham/cred/internal/share"
	"github.com/edneedham/cred/internal/target"
	"github.com/edneedham/cred/internal/targetauth"
	"github.com/edneedham/cred/internal/vault"
)

func runSecret(args []string) int {
	if len(args) == 0 {
		emitErr(false, apperr.User(nil, "usage: cred secret <set|get|list|remove|revoke|share>"))
		return 0
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "set":
		return secretSet(rest)
	case "get":
		return secretGet(rest)
	case "list":
		return secretList(rest)
	case "remove":
		return secretRemove(rest)
	case "revoke":
		return secretRevoke(rest)
	case "share":
		return secretShare(rest)
	default:
		emitErr(false, apperr.User(nil, "unknown secret subcommand %q", sub))
		return 0
	}
}

func secretSet(args []string) int {
	fs, g := newFlagSet("secret set")
	stdin := fs.Bool("stdin", false, "read the value from stdin instead of an argument")
	formatFlag := fs.String("format", "", "override the auto-detected format")
	description := fs.String("description", "", "free-text description")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()

	var name, value string
	switch {
	case *stdin && len(rest) == 1:
		name = rest[0]
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			emitErr(g.jsonOut, apperr.User(err, "failed to read stdin"))
			return 0
		}
		value = strings.TrimRight(string(data), "\n")
	case !*stdin && len(rest) == 2:
		name, value = rest[0], rest[1]
	default:
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred secret set <name> <value> | --stdin <name>"))
		return 0
	}
	if err := vault.ValidateKeyName(name); err != nil {
		emitErr(g.jsonOut, apperr.User(err, "invalid secret name"))
		return 0
	}

	desc, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	format := vault.DetectFormat(value)
	if *formatFlag != "" {
		format = vault.Format(*formatFlag)
	}
	var descriptionPtr *string
	if *description != "" {
		descriptionPtr = description
	}

	if g.dryRun {
		emitOK(g.jsonOut, map[string]any{"would_set": name}, func() {
			infof("would set secret %q", name)
		})
		return 0
	}

	v.SetWithMetadata(name, value, format, descriptionPtr)
	if err := v.Save(); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	projectAudit(desc).Log(audit.Event("secret.set", map[string]any{"name": name}))

	emitOK(g.jsonOut, map[string]any{"name": name}, func() {
		successf("set secret %q", name)
	})
	return 0
}

func secretGet(args []string) int {
	fs, g := newFlagSet("secret get")
	reveal := fs.Bool("reveal", false, "print the value instead of a mask")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred secret get <name>"))
		return 0
	}
	name := rest[0]

	_, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	value, ok := v.Get(name)
	if !ok {
		emitErr(g.jsonOut, apperr.User(nil, "no such secret %q", name))
		return 0
	}

	emitOK(g.jsonOut, map[string]any{"name": name, "value": value}, func() {
		if *reveal {
			fmt.Println(value)
			return
		}
		fmt.Println(maskValue(value))
	})
	return 0
}

func maskValue(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}

func secretList(args []string) int {
	fs, g := newFlagSet("secret list")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}

	_, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	entries := v.ListEntries()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	emitOK(g.jsonOut, names, func() {
		for _, name := range names {
			e := entries[name]
			infof("%s (%s)", name, e.Format)
		}
	})
	return 0
}

func secretRemove(args []string) int {
	fs, g := newFlagSet("secret remove")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred secret remove <name>"))
		return 0
	}
	name := rest[0]

	desc, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	if g.dryRun {
		emitOK(g.jsonOut, map[string]any{"would_remove": name}, func() {
			infof("would remove secret %q", name)
		})
		return 0
	}

	if _, ok := v.Remove(name); !ok {
		emitErr(g.jsonOut, apperr.User(nil, "no such secret %q", name))
		return 0
	}
	if err := v.Save(); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	projectAudit(desc).Log(audit.Event("secret.remove", map[string]any{"name": name}))

	emitOK(g.jsonOut, map[string]any{"name": name}, func() {
		successf("removed secret %q", name)
	})
	return 0
}

// secretRevoke destroys a generated credential at its origin (the named
// target) before touching the local vault: remote first, local second,
// matching the prune atomicity rule.
func secretRevoke(args []string) int {
	fs, g := newFlagSet("secret revoke")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 2 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred secret revoke <name> <target>"))
		return 0
	}
	name, targetName := rest[0], rest[1]

	desc, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	value, ok := v.Get(name)
	if !ok {
		emitErr(g.jsonOut, apperr.User(nil, "no such secret %q", name))
		return 0
	}

	t, err := target.Resolve(targetName)
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
		emitOK(g.jsonOut, map[string]any{"would_revoke": name}, func() {
			infof("would revoke %q at %q and remove it locally", name, targetName)
		})
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := t.RevokeSecret(ctx, name, value, token); err != nil {
		emitErr(g.jsonOut, fmt.Errorf("remote revoke failed, local vault left untouched: %w", err))
		return 0
	}

	v.Remove(name)
	if err := v.Save(); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	projectAudit(desc).Log(audit.Event("secret.revoke", map[string]any{"name": name, "target": targetName}))

	emitOK(g.jsonOut, map[string]any{"name": name, "target": targetName}, func() {
		successf("revoked %q at %q and removed it from the vault", name, targetName)
	})
	return 0
}

func secretShare(args []string) int {
	fs, g := newFlagSet("secret share")
	recipient := fs.String("recipient", "", "age1... public key to encrypt against")
	out := fs.String("out", "", "write armored ciphertext here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred secret share <name> --recipient <age1...>"))
		return 0
	}
	name := rest[0]

	_, v, err := openVault()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	defer v.Close()

	value, ok := v.Get(name)
	if !ok {
		emitErr(g.jsonOut, apperr.User(nil, "no such secret %q", name))
		return 0
	}

	armored, err := share.Encrypt(value, *recipient)
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	if *out != "" {
		if err := os.WriteFile(*out, []byte(armored), 0o600); err != nil {
			emitErr(g.jsonOut, apperr.User(err, "failed to write %s", *out))
			return 0
		}
	}

	emitOK(g.jsonOut, map[string]any{"name": name, "armored": armored}, func() {
		if *out != "" {
			successf("wrote encrypted share of %q to %s", name, *out)
			return
		}
		fmt.Println(armored)
	})
	return 0
}
