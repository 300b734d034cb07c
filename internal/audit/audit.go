// Package audit implements an append-only JSONL event sink recording every
// mutating operation a project performs: pushes, deletes, revokes, imports.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/edneedham/cred/internal/secureio"
)

// Sink records structured events. A nil *JSONL is safe to call Log on; it
// is a no-op, which lets callers skip a nil check when auditing is
// disabled.
type Sink interface {
	Log(event map[string]any)
}

// JSONL appends one JSON object per line to a file, creating it and its
// parent directory on first write.
type JSONL struct {
	path string
	mu   sync.Mutex
}

// New returns a sink writing to path (with "~" expanded). Failures to
// write are swallowed: a broken audit trail must never block the
// operation it is recording.
func New(path string) *JSONL {
	expanded, err := secureio.ExpandHome(path)
	if err != nil || expanded == "" {
		expanded = path
	}
	return &JSONL{path: filepath.Clean(expanded)}
}

func (l *JSONL) Log(event map[string]any) {
	if l == nil || l.path == "" {
		return
	}
	if event == nil {
		event = map[string]any{}
	}
	if _, ok := event["ts"]; !ok {
		event["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(data)
}

// Event builds the common shape: an action name plus free-form fields.
func Event(action string, fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	out["action"] = action
	for k, v := range fields {
		out[k] = v
	}
	return out
}
