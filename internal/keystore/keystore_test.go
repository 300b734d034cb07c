package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"path/filepath"
	"testing"
)

func TestMemoryBackendSetGetRemove(t *testing.T) {
	m := &memoryBackend{data: map[string]string{}}
	if _, ok, err := m.Get("cred:target:github:default"); err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
	if err := m.Set("cred:target:github:default", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	tok, ok, err := m.Get("cred:target:github:default")
	if err != nil || !ok || tok != "tok" {
		t.Fatalf("Get = %q, %v, %v", tok, ok, err)
	}
	if err := m.Remove("cred:target:github:default"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := m.Get("cred:target:github:default"); ok {
		t.Fatal("expected removed entry to be absent")
	}
}

func testFileKey(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestFileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.enc")
	b, err := newFileBackend(path, testFileKey(t))
	if err != nil {
		t.Fatalf("newFileBackend: %v", err)
	}
	if err := b.Set("ref1", "token1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	tok, ok, err := b.Get("ref1")
	if err != nil || !ok || tok != "token1" {
		t.Fatalf("Get = %q, %v, %v", tok, ok, err)
	}

	// A second backend instance on the same file with no key fails to open.
	b2, err := newFileBackend(path, "")
	_ = b2
	if err == nil {
		t.Fatal("expected error for missing KEYSTORE_FILE_KEY")
	}
}

func TestFileBackendRejectsShortKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.enc")
	_, err := newFileBackend(path, base64.StdEncoding.EncodeToString([]byte("short")))
	if err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestFileBackendMissingKeyIsAbsentNotError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.enc")
	b, err := newFileBackend(path, testFileKey(t))
	if err != nil {
		t.Fatalf("newFileBackend: %v", err)
	}
	_, ok, err := b.Get("nope")
	if err != nil || ok {
		t.Fatalf("expected absent-no-error, got ok=%v err=%v", ok, err)
	}
}

func TestFileBackendFromPassphraseFailsClosedNonInteractive(t *testing.T) {
	t.Setenv("CRED_NON_INTERACTIVE", "1")
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.enc")
	if _, err := newFileBackendFromPassphrase(path); err == nil {
		t.Fatal("expected passphrase prompt to be refused under CRED_NON_INTERACTIVE")
	}
}

func TestFileBackendFromPassphraseRejectsFileWithoutSalt(t *testing.T) {
	t.Setenv("CRED_NON_INTERACTIVE", "1")
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.enc")
	// A file keystore written by the explicit-key path carries no salt.
	b, err := newFileBackend(path, testFileKey(t))
	if err != nil {
		t.Fatalf("newFileBackend: %v", err)
	}
	if err := b.writeAll(map[string]string{}); err != nil {
		t.Fatalf("writeAll: %v", err)
	}
	if _, err := newFileBackendFromPassphrase(path); err == nil {
		t.Fatal("expected error for keystore file missing its salt")
	}
}
