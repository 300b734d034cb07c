package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/term"

	"github.com/edneedham/cred/internal/secureio"
)

// Argon2id parameters for deriving the file keystore's AEAD key from an
// interactively entered passphrase. Matches the OWASP-recommended
// baseline this pack already uses elsewhere for password-derived keys.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltSize     = 16
)

// fileBackend seals the whole reference→token map under a single AEAD key,
// either read from KEYSTORE_FILE_KEY or derived from a passphrase (see
// newFileBackendFromPassphrase). Every write re-encrypts the entire map with
// a fresh random nonce; there is no per-entry encryption.
type fileBackend struct {
	mu   sync.Mutex
	path string
	key  []byte
	// salt is non-nil only for a passphrase-derived backend, so every
	// write re-persists it alongside the re-encrypted map.
	salt []byte
}

type fileEnvelope struct {
	Salt       string `json:"salt,omitempty"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func resolveFilePath(path string) (string, error) {
	if path == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(cfgDir, "cred", "keystore.enc")
	}
	expanded, err := secureio.ExpandHome(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

func newFileBackend(path, keyB64 string) (*fileBackend, error) {
	resolved, err := resolveFilePath(path)
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("KEYSTORE_FILE_KEY must decode to 32 bytes")
	}
	return &fileBackend{path: resolved, key: key}, nil
}

// newFileBackendFromPassphrase derives the AEAD key from an interactively
// entered passphrase via Argon2id, rather than a raw KEYSTORE_FILE_KEY.
// The salt is read from the existing keystore file if one exists, or
// freshly generated and persisted on first use, so the same passphrase
// re-derives the same key on every later invocation. Refuses to prompt
// when stdin is not a terminal or CRED_NON_INTERACTIVE is set (the
// CLI sets this when --non-interactive is passed) — there is no way to
// fail open here, only to fail with a clear message.
func newFileBackendFromPassphrase(path string) (*fileBackend, error) {
	resolved, err := resolveFilePath(path)
	if err != nil {
		return nil, err
	}

	salt, existing, err := loadOrCreateSalt(resolved)
	if err != nil {
		return nil, err
	}

	if os.Getenv("CRED_NON_INTERACTIVE") != "" || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("file keystore needs a passphrase; set KEYSTORE_FILE_KEY or run interactively")
	}
	fmt.Fprint(os.Stderr, "keystore passphrase: ")
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	key := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	backend := &fileBackend{path: resolved, key: key, salt: salt}
	if !existing {
		if err := backend.writeAll(map[string]string{}); err != nil {
			return nil, fmt.Errorf("failed to initialize file keystore: %w", err)
		}
	}
	return backend, nil
}

// loadOrCreateSalt returns the salt recorded in path's envelope, or a
// fresh random one if the file doesn't exist yet. existing reports
// whether the file was already there (so the caller knows whether it
// still needs to persist the salt on an empty keystore).
func loadOrCreateSalt(path string) (salt []byte, existing bool, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var env fileEnvelope
		if jsonErr := json.Unmarshal(data, &env); jsonErr == nil && env.Salt != "" {
			decoded, decodeErr := base64.StdEncoding.DecodeString(env.Salt)
			if decodeErr == nil {
				return decoded, true, nil
			}
		}
		return nil, false, fmt.Errorf("keystore file %s is missing its salt", path)
	}
	if !os.IsNotExist(err) {
		return nil, false, err
	}
	salt = make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, false, err
	}
	return salt, false, nil
}

func (f *fileBackend) readAll() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse keystore file: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("keystore decryption failed: data corrupted or wrong key")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("keystore decryption failed: data corrupted or wrong key")
	}
	aead, err := chacha20poly1305.New(f.key)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore decryption failed: data corrupted or wrong key")
	}
	out := map[string]string{}
	if err := json.Unmarshal(plain, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fileBackend) writeAll(m map[string]string) error {
	plain, err := json.Marshal(m)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.New(f.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	ciphertext := aead.Seal(nil, nonce, plain, nil)
	env := fileEnvelope{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}
	if f.salt != nil {
		env.Salt = base64.StdEncoding.EncodeToString(f.salt)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return secureio.WriteFileAtomic(f.path, data, 0o600)
}

func (f *fileBackend) Set(ref, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.readAll()
	if err != nil {
		return &ErrUnavailable{Backend: "file", Err: err}
	}
	m[ref] = token
	if err := f.writeAll(m); err != nil {
		return &ErrUnavailable{Backend: "file", Err: err}
	}
	return nil
}

func (f *fileBackend) Get(ref string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.readAll()
	if err != nil {
		return "", false, &ErrUnavailable{Backend: "file", Err: err}
	}
	token, ok := m[ref]
	return token, ok, nil
}

func (f *fileBackend) Remove(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.readAll()
	if err != nil {
		return &ErrUnavailable{Backend: "file", Err: err}
	}
	delete(m, ref)
	if err := f.writeAll(m); err != nil {
		return &ErrUnavailable{Backend: "file", Err: err}
	}
	return nil
}
