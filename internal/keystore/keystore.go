// Package keystore implements the pluggable opaque-token store: a platform
// credential store backend (the default), an encrypted file backend, and
// an in-memory backend for tests and CI. Backend selection is derived from
// the KEYSTORE environment variable once per process and treated as
// immutable afterward.
package keystore

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Backend is the pluggable token store contract. Get reports ok=false
// (not an error) when ref is simply absent.
type Backend interface {
	Set(ref, token string) error
	Get(ref string) (token string, ok bool, err error)
	Remove(ref string) error
}

// ErrUnavailable wraps any backend-level failure to reach the underlying
// store (OS credential manager absent, file keystore undecodable, etc).
type ErrUnavailable struct {
	Backend string
	Err     error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("keystore (%s) unavailable: %v", e.Backend, e.Err)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

var (
	once       sync.Once
	active     Backend
	activeErr  error
)

// Resolve returns the process-wide keystore backend, selected once from
// the KEYSTORE environment variable ("keyring" default, "file", "memory")
// and cached for the remainder of the process lifetime.
func Resolve() (Backend, error) {
	once.Do(func() {
		kind := strings.ToLower(strings.TrimSpace(os.Getenv("KEYSTORE")))
		if kind == "" {
			kind = "keyring"
		}
		switch kind {
		case "keyring":
			active = &keyringBackend{}
		case "file":
			var b Backend
			var err error
			if keyB64 := os.Getenv("KEYSTORE_FILE_KEY"); keyB64 != "" {
				b, err = newFileBackend(os.Getenv("KEYSTORE_FILE"), keyB64)
			} else {
				b, err = newFileBackendFromPassphrase(os.Getenv("KEYSTORE_FILE"))
			}
			if err != nil {
				activeErr = err
				return
			}
			active = b
		case "memory":
			active = Memory()
		default:
			activeErr = fmt.Errorf("unsupported KEYSTORE backend %q (expected keyring, file, or memory)", kind)
		}
	})
	return active, activeErr
}

// memoryBackend is a process-local map, lost on exit. A single singleton
// is shared across every caller within the process so tests observe the
// same state a real keystore would present.
type memoryBackend struct {
	mu   sync.Mutex
	data map[string]string
}

var (
	memOnce sync.Once
	memInst *memoryBackend
)

// Memory returns the process-local memory backend singleton.
func Memory() Backend {
	memOnce.Do(func() {
		memInst = &memoryBackend{data: map[string]string{}}
	})
	return memInst
}

func (m *memoryBackend) Set(ref, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[ref] = token
	return nil
}

func (m *memoryBackend) Get(ref string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.data[ref]
	return token, ok, nil
}

func (m *memoryBackend) Remove(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ref)
	return nil
}

// Service is the fixed service identifier used for every platform
// credential store lookup.
const Service = "cred-vault"
