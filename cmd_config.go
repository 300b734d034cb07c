package main

import (
	"sort"

	"github.com/edneedham/cred/internal/apperr"
)

func runConfig(args []string) int {
	if len(args) == 0 {
		emitErr(false, apperr.User(nil, "usage: cred config <get|set|unset|list>"))
		return 0
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "get":
		return configGet(rest)
	case "set":
		return configSet(rest)
	case "unset":
		return configUnset(rest)
	case "list":
		return configList(rest)
	default:
		emitErr(false, apperr.User(nil, "unknown config subcommand %q", sub))
		return 0
	}
}

func configGet(args []string) int {
	fs, g := newFlagSet("config get")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred config get <key>"))
		return 0
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	value, ok := cfg.Get(rest[0])
	if !ok {
		emitErr(g.jsonOut, apperr.User(nil, "no such config key %q", rest[0]))
		return 0
	}

	emitOK(g.jsonOut, map[string]any{"key": rest[0], "value": value}, func() {
		infof("%v", value)
	})
	return 0
}

func configSet(args []string) int {
	fs, g := newFlagSet("config set")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 2 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred config set <key> <value>"))
		return 0
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if err := cfg.Set(rest[0], rest[1]); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if !g.dryRun {
		if err := cfg.Save(); err != nil {
			emitErr(g.jsonOut, err)
			return 0
		}
	}

	emitOK(g.jsonOut, map[string]any{"key": rest[0], "value": rest[1]}, func() {
		successf("set %s = %s", rest[0], rest[1])
	})
	return 0
}

func configUnset(args []string) int {
	fs, g := newFlagSet("config unset")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}
	rest := fs.Args()
	if len(rest) != 1 {
		emitErr(g.jsonOut, apperr.User(nil, "usage: cred config unset <key>"))
		return 0
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if err := cfg.Unset(rest[0]); err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	if !g.dryRun {
		if err := cfg.Save(); err != nil {
			emitErr(g.jsonOut, err)
			return 0
		}
	}

	emitOK(g.jsonOut, map[string]any{"key": rest[0]}, func() {
		successf("unset %s", rest[0])
	})
	return 0
}

func configList(args []string) int {
	fs, g := newFlagSet("config list")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}
	flat := flattenConfig(cfg.Tree(), "")
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	emitOK(g.jsonOut, flat, func() {
		for _, k := range keys {
			infof("%s = %v", k, flat[k])
		}
	})
	return 0
}

func flattenConfig(tree map[string]any, prefix string) map[string]any {
	out := map[string]any{}
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flattenConfig(nested, key) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}
