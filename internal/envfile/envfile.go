// Package envfile implements the plain KEY=VALUE env-file codec: parsing,
// importing parsed pairs into a vault, and exporting a vault's secrets back
// out to a file. Values are carried byte-for-byte; this package never
// strips quotes or decodes escapes, unlike a shell-sourced .env reader.
package envfile

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/secureio"
)

// Pair is one parsed KEY=VALUE line, in file order.
type Pair struct {
	Key   string
	Value string
}

// Parse reads an env file and returns its pairs in file order. Empty lines
// and lines beginning with # are ignored; every other line must contain an
// "=" after trimming, split on the first occurrence.
func Parse(data []byte) ([]Pair, error) {
	var pairs []Pair
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, apperr.User(nil, "invalid line %d: expected KEY=VALUE", lineNo)
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			return nil, apperr.User(nil, "invalid line %d: empty key", lineNo)
		}
		value := line[idx+1:]
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.User(err, "failed to read env file")
	}
	return pairs, nil
}

// ParseFile parses the env file at path.
func ParseFile(path string) ([]Pair, error) {
	data, err := secureio.ReadFileScoped(path)
	if err != nil {
		return nil, apperr.User(err, "failed to read %s", path)
	}
	return Parse(data)
}

// VaultSetter is the minimal vault contract import needs: presence check
// and insertion. Satisfied by *vault.Vault.
type VaultSetter interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// ImportCounts tallies what Import did (or, under dryRun, would do).
type ImportCounts struct {
	Added       int
	Skipped     int
	Overwritten int
}

// Import applies pairs to v. Keys absent from v are added. Keys already
// present are skipped unless overwrite is set, in which case they are
// overwritten. Under dryRun, v is left untouched and only the counters are
// computed.
func Import(v VaultSetter, pairs []Pair, overwrite, dryRun bool) ImportCounts {
	var c ImportCounts
	for _, p := range pairs {
		_, exists := v.Get(p.Key)
		switch {
		case !exists:
			c.Added++
			if !dryRun {
				v.Set(p.Key, p.Value)
			}
		case !overwrite:
			c.Skipped++
		default:
			c.Overwritten++
			if !dryRun {
				v.Set(p.Key, p.Value)
			}
		}
	}
	return c
}

// VaultLister is the minimal vault contract export needs.
type VaultLister interface {
	List() map[string]string
}

// Export writes every secret in v to path as sorted KEY=VALUE lines. If
// path already exists and force is false, this is a user error. Under
// dryRun nothing is written; the would-write line count is returned.
func Export(v VaultLister, path string, force, dryRun bool) (int, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return 0, apperr.User(nil, "file exists; pass --force")
		} else if !os.IsNotExist(err) {
			return 0, apperr.User(err, "failed to stat %s", path)
		}
	}

	secrets := v.List()
	names := make([]string, 0, len(secrets))
	for name := range secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%s\n", name, secrets[name])
	}

	if dryRun {
		return len(names), nil
	}
	if err := secureio.WriteFileAtomic(path, []byte(b.String()), 0o600); err != nil {
		return 0, apperr.User(err, "failed to write %s", path)
	}
	return len(names), nil
}
