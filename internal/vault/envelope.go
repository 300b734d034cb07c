package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// envelopeFile is the on-disk record: version, nonce, ciphertext, all
// base64 except version. The plaintext underneath is version-tagged
// separately (see payloadV1/payloadV2).
type envelopeFile struct {
	Version    int    `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

type payloadV2 struct {
	Version int                  `json:"version"`
	Secrets map[string]entryWire `json:"secrets"`
}

const nonceSize = chacha20poly1305.NonceSize // 12

func errKeyLength(n int) error {
	return fmt.Errorf("master key must be 32 bytes, got %d", n)
}

// decryptErr is the single, deliberately ambiguous message used for any
// AEAD failure. It must never distinguish "wrong key" from "corrupted
// data" — doing so would give an attacker an oracle.
func decryptErr() error {
	return fmt.Errorf("decryption failed: data corrupted or wrong key")
}

// sealPayload encrypts plaintext under key with a freshly generated random
// 12-byte nonce and returns the envelope ready to serialize. Nonces are
// never reused: each call draws fresh randomness from crypto/rand.
func sealPayload(key *Key, plaintext []byte) (envelopeFile, error) {
	aead, err := chacha20poly1305.New(key.Bytes())
	if err != nil {
		return envelopeFile{}, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return envelopeFile{}, err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	return envelopeFile{
		Version:    2,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// openPayload decrypts an envelope and returns the raw plaintext bytes and
// the envelope's declared version, without interpreting the payload shape
// (that is the caller's job, since v1 and v2 differ).
func openPayload(key *Key, env envelopeFile) (plaintext []byte, version int, err error) {
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, 0, decryptErr()
	}
	if len(nonce) != nonceSize {
		return nil, 0, decryptErr()
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, 0, decryptErr()
	}
	aead, err := chacha20poly1305.New(key.Bytes())
	if err != nil {
		return nil, 0, err
	}
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, 0, decryptErr()
	}
	return plain, env.Version, nil
}

func marshalEnvelope(env envelopeFile) ([]byte, error) {
	return json.MarshalIndent(env, "", "  ")
}

func unmarshalEnvelope(data []byte) (envelopeFile, error) {
	var env envelopeFile
	if err := json.Unmarshal(data, &env); err != nil {
		return envelopeFile{}, fmt.Errorf("failed to parse vault structure: %w", err)
	}
	return env, nil
}
