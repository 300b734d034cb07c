// Package masterkey resolves the 32-byte vault key for the current
// project: a CI override first, then the platform keystore record filed
// under the project's UUID.
package masterkey

import (
	"encoding/base64"
	"os"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/keystore"
	"github.com/edneedham/cred/internal/vault"
)

// Resolve returns the master key for the project identified by
// projectUUID. MASTER_KEY_B64 always takes priority and exists only for
// CI/tests.
func Resolve(projectUUID string) (*vault.Key, error) {
	if raw := os.Getenv("MASTER_KEY_B64"); raw != "" {
		return decode(raw)
	}

	backend, err := keystore.Resolve()
	if err != nil {
		return nil, apperr.NotAuth(err, "keystore unavailable")
	}
	secret, ok, err := backend.Get(ref(projectUUID))
	if err != nil {
		return nil, apperr.NotAuth(err, "keystore unavailable")
	}
	if !ok {
		return nil, apperr.NotAuth(nil, "no master key on record for this project; run `cred init` or restore the keystore entry")
	}
	return decode(secret)
}

// Store records a freshly minted master key under the project's UUID.
// Called once, at init.
func Store(projectUUID string, key *vault.Key) error {
	backend, err := keystore.Resolve()
	if err != nil {
		return apperr.NotAuth(err, "keystore unavailable")
	}
	encoded := base64.StdEncoding.EncodeToString(key.Bytes())
	if err := backend.Set(ref(projectUUID), encoded); err != nil {
		return apperr.NotAuth(err, "failed to store master key")
	}
	return nil
}

// ref is the keystore account for a project's master key: the project
// UUID itself, under the keystore's fixed service name.
func ref(projectUUID string) string {
	return projectUUID
}

func decode(raw string) (*vault.Key, error) {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, apperr.Vault(err, "master key is not valid base64")
	}
	key, err := vault.NewKey(b)
	if err != nil {
		return nil, apperr.Vault(err, "master key has wrong length")
	}
	return key, nil
}
