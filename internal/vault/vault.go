// Package vault implements the authenticated encrypted secret store: the
// on-disk envelope, schema migration from v1 to v2, format auto-detection,
// and the in-memory mutation surface. Every save is atomic (temp file plus
// rename) and every save uses a fresh random nonce.
package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/edneedham/cred/internal/secureio"
)

// Vault is a mapping from secret name to Entry, bound to a file path and a
// master key. Names are case-sensitive; insertion order is irrelevant.
type Vault struct {
	path    string
	key     *Key
	secrets map[string]Entry
}

// Load reads and decrypts the vault at path under key. A missing file is
// not an error: it yields an empty vault bound to path and key, ready to
// be populated and saved.
func Load(path string, key *Key) (*Vault, error) {
	v := &Vault{path: path, key: key, secrets: map[string]Entry{}}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, err
	}

	raw, err := secureio.ReadFileScoped(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}
	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, err
	}
	plaintext, version, err := openPayload(key, env)
	if err != nil {
		return nil, err
	}

	switch version {
	case 1:
		var flat map[string]string
		if err := json.Unmarshal(plaintext, &flat); err != nil {
			return nil, fmt.Errorf("failed to parse decrypted secrets JSON: %w", err)
		}
		now := time.Now().UTC()
		for name, value := range flat {
			v.secrets[name] = Entry{
				Value:     []byte(value),
				Format:    DetectFormat(value),
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
	case 2:
		var payload payloadV2
		if err := json.Unmarshal(plaintext, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse decrypted secrets JSON: %w", err)
		}
		for name, w := range payload.Secrets {
			v.secrets[name] = w.toEntry()
		}
	default:
		return nil, fmt.Errorf("unsupported vault version %d", version)
	}

	return v, nil
}

// Save always writes the v2 envelope: a fresh random nonce encrypts the
// version-tagged payload, and the write goes to a temp sibling file that
// is then renamed over the target, so a crash mid-write never corrupts
// the prior contents.
func (v *Vault) Save() error {
	wire := make(map[string]entryWire, len(v.secrets))
	for name, e := range v.secrets {
		wire[name] = e.toWire(name)
	}
	plaintext, err := json.Marshal(payloadV2{Version: 2, Secrets: wire})
	if err != nil {
		return err
	}
	env, err := sealPayload(v.key, plaintext)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}
	data, err := marshalEnvelope(env)
	if err != nil {
		return err
	}
	return secureio.WriteFileAtomic(v.path, data, 0o600)
}

// Set inserts or updates name, refreshing updated_at, re-running format
// detection, and clearing any stored hash. created_at is set only on
// first write.
func (v *Vault) Set(name, value string) {
	v.SetWithMetadata(name, value, DetectFormat(value), nil)
}

// SetWithMetadata behaves like Set but honors the caller-supplied format
// and description instead of auto-detecting.
func (v *Vault) SetWithMetadata(name, value string, format Format, description *string) {
	now := time.Now().UTC()
	existing, ok := v.secrets[name]
	created := now
	if ok {
		created = existing.CreatedAt
	}
	v.secrets[name] = Entry{
		Value:       []byte(value),
		Format:      format,
		Hash:        nil,
		CreatedAt:   created,
		UpdatedAt:   now,
		Description: stringPtrToBytes(description),
	}
}

func (v *Vault) Get(name string) (string, bool) {
	e, ok := v.secrets[name]
	if !ok {
		return "", false
	}
	return string(e.Value), true
}

func (v *Vault) GetEntry(name string) (Entry, bool) {
	e, ok := v.secrets[name]
	return e, ok
}

// List returns a snapshot mapping name to value. Ordering is
// insertion-irrelevant; callers that need determinism sort the keys.
func (v *Vault) List() map[string]string {
	out := make(map[string]string, len(v.secrets))
	for name, e := range v.secrets {
		out[name] = string(e.Value)
	}
	return out
}

func (v *Vault) ListEntries() map[string]Entry {
	out := make(map[string]Entry, len(v.secrets))
	for name, e := range v.secrets {
		out[name] = e
	}
	return out
}

// Remove deletes name and returns its prior value, if any. Removing an
// absent name is not an error.
func (v *Vault) Remove(name string) (string, bool) {
	e, ok := v.secrets[name]
	if ok {
		delete(v.secrets, name)
	}
	return string(e.Value), ok
}

func (v *Vault) RemoveEntry(name string) (Entry, bool) {
	e, ok := v.secrets[name]
	if ok {
		delete(v.secrets, name)
	}
	return e, ok
}

// SetDescription updates name's description and refreshes updated_at. It
// returns false if name is absent.
func (v *Vault) SetDescription(name string, description *string) bool {
	e, ok := v.secrets[name]
	if !ok {
		return false
	}
	e.Description = stringPtrToBytes(description)
	e.UpdatedAt = time.Now().UTC()
	v.secrets[name] = e
	return true
}

// SetHash updates name's hash without touching updated_at. It returns
// false if name is absent.
func (v *Vault) SetHash(name string, hash *string) bool {
	e, ok := v.secrets[name]
	if !ok {
		return false
	}
	e.Hash = stringPtrToBytes(hash)
	v.secrets[name] = e
	return true
}

// Close zeroizes every value, and the master key, before the vault is
// discarded. Safe to call more than once.
func (v *Vault) Close() {
	if v == nil {
		return
	}
	for name, e := range v.secrets {
		zero(e.Value)
		zero(e.Hash)
		zero(e.Description)
		delete(v.secrets, name)
	}
	v.key.Close()
}
