package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitAtThenFind(t *testing.T) {
	t.Setenv("KEYSTORE", "memory")
	root := t.TempDir()

	desc, err := InitAt(root)
	if err != nil {
		t.Fatalf("InitAt: %v", err)
	}
	if desc.Config.ID == "" {
		t.Fatal("expected a minted project id")
	}
	if _, err := os.Stat(desc.ConfigPath); err != nil {
		t.Fatalf("expected project.toml to exist: %v", err)
	}
	if _, err := os.Stat(desc.VaultPath); err != nil {
		t.Fatalf("expected vault.enc to exist: %v", err)
	}

	gitignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		t.Fatalf("expected .gitignore to be created: %v", err)
	}
	if string(gitignore) != ".cred/\n" {
		t.Fatalf("unexpected .gitignore contents: %q", gitignore)
	}

	found, err := FindFrom(filepath.Join(root, "sub", "dir"))
	if err == nil {
		t.Fatalf("expected Find to fail from a nonexistent nested dir, got %+v", found)
	}

	sub := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	found, err = FindFrom(sub)
	if err != nil {
		t.Fatalf("FindFrom from nested dir: %v", err)
	}
	if found.Config.ID != desc.Config.ID {
		t.Fatalf("expected same project id, got %q want %q", found.Config.ID, desc.Config.ID)
	}
}

func TestInitAtRejectsExisting(t *testing.T) {
	t.Setenv("KEYSTORE", "memory")
	root := t.TempDir()
	if _, err := InitAt(root); err != nil {
		t.Fatalf("first InitAt: %v", err)
	}
	if _, err := InitAt(root); err == nil {
		t.Fatal("expected second InitAt against the same root to fail")
	}
}

func TestAppendGitignoreIsIdempotent(t *testing.T) {
	root := t.TempDir()
	if err := appendGitignore(root); err != nil {
		t.Fatalf("appendGitignore: %v", err)
	}
	if err := appendGitignore(root); err != nil {
		t.Fatalf("appendGitignore (second call): %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != ".cred/\n" {
		t.Fatalf("expected a single .cred/ line, got %q", data)
	}
}

func TestAppendGitignorePreservesExistingContent(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("node_modules/"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := appendGitignore(root); err != nil {
		t.Fatalf("appendGitignore: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "node_modules/\n.cred/\n" {
		t.Fatalf("unexpected .gitignore contents: %q", data)
	}
}
