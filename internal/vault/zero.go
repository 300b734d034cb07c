package vault

import (
	"crypto/rand"
	"io"
)

// zero overwrites every byte of b in place. Go strings are immutable, so
// anything that must be zeroized on teardown (master key, secret values,
// hashes, descriptions) is carried internally as a byte slice
// rather than a string; this is the one place that discipline pays off.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Key is a 32-byte master key held in a buffer that the owner is
// responsible for zeroing via Close when the key is no longer needed.
// Callers must never copy the underlying bytes into ambient storage (a
// string, a log line, a second slice that outlives Close).
type Key struct {
	b [32]byte
}

func NewKey(raw []byte) (*Key, error) {
	if len(raw) != 32 {
		return nil, errKeyLength(len(raw))
	}
	k := &Key{}
	copy(k.b[:], raw)
	return k, nil
}

// NewRandomKey generates a fresh 32-byte master key from the system CSPRNG.
func NewRandomKey() (*Key, error) {
	k := &Key{}
	if _, err := io.ReadFull(rand.Reader, k.b[:]); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Key) Bytes() []byte { return k.b[:] }

// Close zeroizes the key buffer. Safe to call more than once.
func (k *Key) Close() {
	if k == nil {
		return
	}
	zero(k.b[:])
}
