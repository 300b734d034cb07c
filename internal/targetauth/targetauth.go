// Package targetauth binds a target's keystore-held token to the global
// config's target table: setting a token writes both the keystore record
// and the config's auth_ref together, and revoking removes both, so the
// two never drift apart except into the one recoverable state the spec
// calls out explicitly (a dangling auth_ref with no keystore record).
package targetauth

import (
	"fmt"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/globalconfig"
	"github.com/edneedham/cred/internal/keystore"
)

// Login stores token under the target's keystore reference and records
// that reference in cfg, but does not save cfg — the caller decides when
// to persist.
func Login(cfg *globalconfig.Config, name, token string) error {
	backend, err := keystore.Resolve()
	if err != nil {
		return apperr.NotAuth(err, "keystore unavailable")
	}
	ref := Ref(name)
	if err := backend.Set(ref, token); err != nil {
		return apperr.NotAuth(err, "failed to store token for target %q", name)
	}
	if err := cfg.Set(fmt.Sprintf("targets.%s.auth_ref", name), ref); err != nil {
		return err
	}
	return nil
}

// Resolve returns the token for name, or a not-authenticated error
// distinguishing "never logged in" from "auth_ref recorded but the
// keystore entry is gone" (the one recoverable inconsistency the data
// model allows).
func Resolve(cfg *globalconfig.Config, name string) (string, error) {
	refAny, ok := cfg.Get(fmt.Sprintf("targets.%s.auth_ref", name))
	if !ok {
		return "", apperr.NotAuth(nil, "not logged in to target %q; run `cred target set %s <token>`", name, name)
	}
	ref, ok := refAny.(string)
	if !ok || ref == "" {
		return "", apperr.NotAuth(nil, "target %q has a malformed auth reference", name)
	}
	backend, err := keystore.Resolve()
	if err != nil {
		return "", apperr.NotAuth(err, "keystore unavailable")
	}
	token, ok, err := backend.Get(ref)
	if err != nil {
		return "", apperr.NotAuth(err, "keystore unavailable")
	}
	if !ok {
		return "", apperr.NotAuth(nil, "target %q has a dangling auth reference with no keystore record; run `cred target set %s <token>` again", name, name)
	}
	return token, nil
}

// Logout removes both the keystore record and the config's auth_ref for
// name. It does not save cfg.
func Logout(cfg *globalconfig.Config, name string) error {
	backend, err := keystore.Resolve()
	if err != nil {
		return apperr.NotAuth(err, "keystore unavailable")
	}
	if err := backend.Remove(Ref(name)); err != nil {
		return apperr.NotAuth(err, "failed to remove token for target %q", name)
	}
	return cfg.Unset(fmt.Sprintf("targets.%s.auth_ref", name))
}

// Ref returns the keystore reference string for a target's token, per
// the "cred:target:<target>:default" convention.
func Ref(name string) string {
	return fmt.Sprintf("cred:target:%s:default", name)
}
