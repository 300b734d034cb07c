// Package globalconfig manages the user-level TOML config at
// ~/.config/cred/global.toml: defaults that apply across projects (the
// default target, the keystore backend preference) plus a free-form
// dotted-path get/set/unset surface for anything else a user wants to
// pin down once and forget about.
package globalconfig

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/secureio"
)

const fileName = "global.toml"

// Config is the user-level settings file, loaded as a free-form tree so
// `config set` can address any dotted path without a schema migration.
type Config struct {
	path string
	tree map[string]any
}

// DefaultPath returns ~/.config/cred/global.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", apperr.User(err, "cannot determine config directory")
	}
	return filepath.Join(dir, "cred", fileName), nil
}

// Load reads the config at path, or returns an empty Config if the file
// does not exist yet.
func Load(path string) (*Config, error) {
	cfg := &Config{path: path, tree: map[string]any{}}
	data, err := secureio.ReadFileScoped(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, apperr.User(err, "failed to read %s", path)
	}
	if err := toml.Unmarshal(data, &cfg.tree); err != nil {
		return nil, apperr.User(err, "failed to parse %s", path)
	}
	return cfg, nil
}

// Save writes the config back atomically.
func (c *Config) Save() error {
	data, err := toml.Marshal(c.tree)
	if err != nil {
		return apperr.User(err, "failed to encode config")
	}
	if err := secureio.WriteFileAtomic(c.path, data, 0o600); err != nil {
		return apperr.User(err, "failed to write %s", c.path)
	}
	return nil
}

// Tree returns the raw config tree, for callers that need to walk or
// flatten the whole document (e.g. `config list`).
func (c *Config) Tree() map[string]any {
	return c.tree
}

// Get resolves a dotted path ("github.default_owner") against the tree.
// ok is false if any segment is missing or the path runs through a
// non-map value.
func (c *Config) Get(dottedPath string) (any, bool) {
	segments := splitPath(dottedPath)
	var cur any = c.tree
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores raw (a CLI string argument) at dottedPath, coercing it to the
// narrowest type that fits: bool, then int64, then float64, then string.
// Intermediate path segments are created as nested maps as needed.
func (c *Config) Set(dottedPath, raw string) error {
	segments := splitPath(dottedPath)
	if len(segments) == 0 {
		return apperr.User(nil, "empty config key")
	}
	cur := c.tree
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg]
		if !ok {
			nm := map[string]any{}
			cur[seg] = nm
			cur = nm
			continue
		}
		nm, ok := next.(map[string]any)
		if !ok {
			return apperr.User(nil, "config key %q traverses a non-table value", dottedPath)
		}
		cur = nm
	}
	cur[segments[len(segments)-1]] = coerce(raw)
	return nil
}

// Unset removes dottedPath. It is not an error if the path is absent.
func (c *Config) Unset(dottedPath string) error {
	segments := splitPath(dottedPath)
	if len(segments) == 0 {
		return apperr.User(nil, "empty config key")
	}
	cur := c.tree
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg]
		if !ok {
			return nil
		}
		nm, ok := next.(map[string]any)
		if !ok {
			return nil
		}
		cur = nm
	}
	delete(cur, segments[len(segments)-1])
	return nil
}

func splitPath(dottedPath string) []string {
	dottedPath = strings.TrimSpace(dottedPath)
	if dottedPath == "" {
		return nil
	}
	parts := strings.Split(dottedPath, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func coerce(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
