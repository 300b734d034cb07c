package vault

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Format is a structural hint about a secret's shape. It is never a
// validator: detection only looks at the string's shape, never its
// semantic meaning.
type Format string

const (
	FormatRaw       Format = "raw"
	FormatMultiline Format = "multiline"
	FormatPEM       Format = "pem"
	FormatBase64    Format = "base64"
	FormatJSON      Format = "json"
)

// Entry is one vault record. Hash and Description are carried as []byte,
// not string, for the same reason Value is: Close zeroizes them in place,
// and a Go string's backing array can't be overwritten after the fact.
type Entry struct {
	Value       []byte
	Format      Format
	Hash        []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Description []byte
}

// entryWire is the JSON shape an Entry takes inside the v2 plaintext
// payload; Value is carried as a plain string there (the AEAD envelope is
// what protects it at rest, not a second layer inside the payload).
type entryWire struct {
	Value       string    `json:"value"`
	Format      Format    `json:"format"`
	Hash        *string   `json:"hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Description *string   `json:"description,omitempty"`
}

func (e Entry) toWire(name string) entryWire {
	return entryWire{
		Value:       string(e.Value),
		Format:      e.Format,
		Hash:        bytesToStringPtr(e.Hash),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Description: bytesToStringPtr(e.Description),
	}
}

func (w entryWire) toEntry() Entry {
	return Entry{
		Value:       []byte(w.Value),
		Format:      w.Format,
		Hash:        stringPtrToBytes(w.Hash),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		Description: stringPtrToBytes(w.Description),
	}
}

// bytesToStringPtr and stringPtrToBytes bridge the entry map's zeroizable
// []byte storage and the nullable *string the v2 wire payload and the
// public SetHash/SetDescription/SetWithMetadata API use.
func bytesToStringPtr(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}

func stringPtrToBytes(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}

// DetectFormat is a pure, structural classifier. Decision order (first
// match wins): PEM, JSON, base64, multiline, raw. It never attempts
// semantic guesses about key shape or length.
func DetectFormat(value string) Format {
	trimmed := strings.TrimSpace(value)

	if strings.HasPrefix(trimmed, "-----BEGIN ") {
		return FormatPEM
	}

	if looksLikeJSON(trimmed) {
		return FormatJSON
	}

	if looksLikeBase64(value) {
		return FormatBase64
	}

	if strings.Contains(value, "\n") {
		return FormatMultiline
	}

	return FormatRaw
}

func looksLikeJSON(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	isObj := strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")
	isArr := strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")
	if !isObj && !isArr {
		return false
	}
	return json.Valid([]byte(trimmed))
}

func looksLikeBase64(value string) bool {
	if strings.Contains(value, "\n") {
		return false
	}
	if len(value) < 24 || len(value)%4 != 0 {
		return false
	}
	trailing := 0
	for i := len(value) - 1; i >= 0 && value[i] == '='; i-- {
		trailing++
	}
	if trailing > 2 {
		return false
	}
	body := value[:len(value)-trailing]
	if strings.ContainsRune(body, '=') {
		return false
	}
	for _, r := range body {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '+' || r == '/':
		default:
			return false
		}
	}
	_, err := base64.StdEncoding.DecodeString(value)
	return err == nil
}
