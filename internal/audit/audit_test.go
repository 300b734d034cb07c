package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogAppendsJSONLWithTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "audit.jsonl")
	sink := New(path)

	sink.Log(Event("push", map[string]any{"repo": "acme/widgets", "count": 3}))
	sink.Log(Event("prune", map[string]any{"repo": "acme/widgets"}))

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["action"] != "push" || lines[0]["repo"] != "acme/widgets" {
		t.Fatalf("line 0 = %+v", lines[0])
	}
	if _, ok := lines[0]["ts"]; !ok {
		t.Fatal("expected a ts field to be stamped automatically")
	}
}

func TestNilSinkLogIsANoop(t *testing.T) {
	var sink *JSONL
	sink.Log(Event("noop", nil))
}
