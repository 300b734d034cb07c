package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSecretSetGetRoundTripMasksByDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("skip subprocess CLI test in short mode")
	}
	dir := t.TempDir()
	env := credTestEnv(t)
	initCredProject(t, dir, env)

	if _, stderr, err := runCredCommand(t, dir, env, "secret", "set", "API_TOKEN", "sk-abcdefgh"); err != nil {
		t.Fatalf("secret set failed: %v\nstderr=%s", err, stderr)
	}

	stdout, stderr, err := runCredCommand(t, dir, env, "secret", "get", "API_TOKEN")
	if err != nil {
		t.Fatalf("secret get failed: %v\nstderr=%s", err, stderr)
	}
	if stdout == "sk-abcdefgh" {
		t.Fatalf("expected masked value, got raw value")
	}
	if !strings.HasPrefix(stdout, "sk") || !strings.HasSuffix(stdout, "gh") {
		t.Fatalf("unexpected mask shape: %q", stdout)
	}

	revealed, stderr, err := runCredCommand(t, dir, env, "secret", "get", "API_TOKEN", "--reveal")
	if err != nil {
		t.Fatalf("secret get --reveal failed: %v\nstderr=%s", err, stderr)
	}
	if revealed != "sk-abcdefgh" {
		t.Fatalf("revealed value = %q, want sk-abcdefgh", revealed)
	}
}

func TestSecretSetRejectsInvalidName(t *testing.T) {
	if testing.Short() {
		t.Skip("skip subprocess CLI test in short mode")
	}
	dir := t.TempDir()
	env := credTestEnv(t)
	initCredProject(t, dir, env)

	stdout, _, err := runCredCommand(t, dir, env, "secret", "set", "bad name", "value")
	if err == nil {
		t.Fatalf("expected invalid secret name to fail, stdout=%s", stdout)
	}
}

func TestSecretListJSONIncludesSetNames(t *testing.T) {
	if testing.Short() {
		t.Skip("skip subprocess CLI test in short mode")
	}
	dir := t.TempDir()
	env := credTestEnv(t)
	initCredProject(t, dir, env)

	if _, _, err := runCredCommand(t, dir, env, "secret", "set", "FIRST", "v1"); err != nil {
		t.Fatalf("secret set FIRST: %v", err)
	}
	if _, _, err := runCredCommand(t, dir, env, "secret", "set", "SECOND", "v2"); err != nil {
		t.Fatalf("secret set SECOND: %v", err)
	}

	stdout, stderr, err := runCredCommand(t, dir, env, "secret", "list", "--json")
	if err != nil {
		t.Fatalf("secret list failed: %v\nstderr=%s", err, stderr)
	}
	var payload struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("parse secret list output: %v\nstdout=%s", err, stdout)
	}
	if len(payload.Data) != 2 || payload.Data[0] != "FIRST" || payload.Data[1] != "SECOND" {
		t.Fatalf("unexpected secret list: %v", payload.Data)
	}
}

func TestSecretRemoveDeletesEntry(t *testing.T) {
	if testing.Short() {
		t.Skip("skip subprocess CLI test in short mode")
	}
	dir := t.TempDir()
	env := credTestEnv(t)
	initCredProject(t, dir, env)

	if _, _, err := runCredCommand(t, dir, env, "secret", "set", "TO_REMOVE", "v"); err != nil {
		t.Fatalf("secret set: %v", err)
	}
	if _, _, err := runCredCommand(t, dir, env, "secret", "remove", "TO_REMOVE"); err != nil {
		t.Fatalf("secret remove: %v", err)
	}
	if _, _, err := runCredCommand(t, dir, env, "secret", "get", "TO_REMOVE"); err == nil {
		t.Fatalf("expected secret get to fail after removal")
	}
}

func TestSecretGetMissingFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skip subprocess CLI test in short mode")
	}
	dir := t.TempDir()
	env := credTestEnv(t)
	initCredProject(t, dir, env)

	if _, _, err := runCredCommand(t, dir, env, "secret", "get", "NOPE"); err == nil {
		t.Fatalf("expected secret get of a missing key to fail")
	}
}

func TestSecretRevokeLeavesVaultUntouchedOnUnsupportedTarget(t *testing.T) {
	if testing.Short() {
		t.Skip("skip subprocess CLI test in short mode")
	}
	dir := t.TempDir()
	env := credTestEnv(t)
	initCredProject(t, dir, env)

	if _, _, err := runCredCommand(t, dir, env, "secret", "set", "REVOKE_ME", "v"); err != nil {
		t.Fatalf("secret set: %v", err)
	}
	if _, _, err := runCredCommand(t, dir, env, "target", "set", "github", "tok-123"); err != nil {
		t.Fatalf("target set: %v", err)
	}

	// github has no per-secret revoke endpoint; the remote call fails
	// before the vault is touched.
	if _, _, err := runCredCommand(t, dir, env, "secret", "revoke", "REVOKE_ME", "github"); err == nil {
		t.Fatalf("expected secret revoke against github to fail")
	}

	stdout, stderr, err := runCredCommand(t, dir, env, "secret", "get", "REVOKE_ME", "--reveal")
	if err != nil {
		t.Fatalf("secret survived revoke attempt but get failed: %v\nstderr=%s", err, stderr)
	}
	if stdout != "v" {
		t.Fatalf("secret value changed after failed revoke: %q", stdout)
	}
}
