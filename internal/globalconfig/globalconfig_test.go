package globalconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetGetUnsetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Set("github.default_owner", "acme"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("push.timeout_seconds", "45"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("push.dry_run", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	owner, ok := cfg.Get("github.default_owner")
	if !ok || owner != "acme" {
		t.Fatalf("Get(github.default_owner) = %v, %v", owner, ok)
	}
	timeout, ok := cfg.Get("push.timeout_seconds")
	if !ok || timeout != int64(45) {
		t.Fatalf("Get(push.timeout_seconds) = %v (%T), %v", timeout, timeout, ok)
	}
	dryRun, ok := cfg.Get("push.dry_run")
	if !ok || dryRun != true {
		t.Fatalf("Get(push.dry_run) = %v, %v", dryRun, ok)
	}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	owner, ok = reloaded.Get("github.default_owner")
	if !ok || owner != "acme" {
		t.Fatalf("after reload, Get(github.default_owner) = %v, %v", owner, ok)
	}

	if err := reloaded.Unset("github.default_owner"); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if _, ok := reloaded.Get("github.default_owner"); ok {
		t.Fatal("expected github.default_owner to be gone after Unset")
	}
	if _, ok := reloaded.Get("push.timeout_seconds"); !ok {
		t.Fatal("Unset should not affect sibling keys")
	}
}

func TestLoadMissingFileYieldsEmptyConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Get("anything"); ok {
		t.Fatal("expected empty config for missing file")
	}
}

func TestGetMissingPathIsAbsentNotError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "global.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Set("a.b.c", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := cfg.Get("a.b.c.d"); ok {
		t.Fatal("expected absent for a path traversing through a scalar")
	}
	if _, ok := cfg.Get("a.x"); ok {
		t.Fatal("expected absent for an unset sibling")
	}
}

func TestDefaultPathUsesUserConfigDir(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if filepath.Base(path) != fileName {
		t.Fatalf("DefaultPath = %q, want basename %q", path, fileName)
	}
	if _, err := os.Stat(filepath.Dir(filepath.Dir(path))); err != nil && !os.IsNotExist(err) {
		t.Fatalf("unexpected error checking config dir: %v", err)
	}
}
