// Package share implements the one-shot "give a teammate one secret"
// export: a single vault value sealed with age against an ad-hoc X25519
// recipient, printed or written as ASCII-armored ciphertext. This is
// deliberately not a standing sync channel — no recipient list is
// persisted, and nothing here reads back what it wrote.
package share

import (
	"bytes"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/edneedham/cred/internal/apperr"
)

// Encrypt seals plaintext for a single recipient (an "age1..." X25519
// public key string) and returns the ASCII-armored ciphertext.
func Encrypt(plaintext string, recipientStr string) (string, error) {
	recipientStr = strings.TrimSpace(recipientStr)
	if recipientStr == "" {
		return "", apperr.User(nil, "a --recipient is required")
	}
	recipient, err := age.ParseX25519Recipient(recipientStr)
	if err != nil {
		return "", apperr.User(err, "invalid recipient %q", recipientStr)
	}

	var buf bytes.Buffer
	armorWriter := armor.NewWriter(&buf)
	w, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return "", apperr.Vault(err, "failed to start age encryption")
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		_ = w.Close()
		return "", apperr.Vault(err, "failed to encrypt value")
	}
	if err := w.Close(); err != nil {
		return "", apperr.Vault(err, "failed to finalize encryption")
	}
	if err := armorWriter.Close(); err != nil {
		return "", apperr.Vault(err, "failed to finalize armor")
	}
	return buf.String(), nil
}
