package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edneedham/cred/internal/apperr"
)

func TestParse(t *testing.T) {
	input := "# comment\n\nFOO=bar\n  SPACED = value with spaces \nQUOTED=\"literal quotes stay\"\nEMPTY=\nMULTI_EQUALS=a=b=c\n"
	pairs, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Pair{
		{Key: "FOO", Value: "bar"},
		{Key: "SPACED", Value: " value with spaces"},
		{Key: "QUOTED", Value: `"literal quotes stay"`},
		{Key: "EMPTY", Value: ""},
		{Key: "MULTI_EQUALS", Value: "a=b=c"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d: %+v", len(pairs), len(want), pairs)
	}
	for i, p := range pairs {
		if p != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestParseRejectsLineWithoutEquals(t *testing.T) {
	_, err := Parse([]byte("FOO=bar\nNOEQUALS\n"))
	if apperr.CodeOf(err) != apperr.UserError {
		t.Fatalf("expected UserError, got %v", apperr.CodeOf(err))
	}
}

func TestParseRejectsEmptyKey(t *testing.T) {
	_, err := Parse([]byte("=value\n"))
	if apperr.CodeOf(err) != apperr.UserError {
		t.Fatalf("expected UserError, got %v", apperr.CodeOf(err))
	}
}

type fakeVault struct {
	data map[string]string
}

func newFakeVault(seed map[string]string) *fakeVault {
	if seed == nil {
		seed = map[string]string{}
	}
	return &fakeVault{data: seed}
}

func (f *fakeVault) Get(key string) (string, bool) {
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeVault) Set(key, value string) {
	f.data[key] = value
}

func (f *fakeVault) List() map[string]string {
	out := make(map[string]string, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out
}

func TestImportAddsSkipsOverwrites(t *testing.T) {
	v := newFakeVault(map[string]string{"EXISTING": "old"})
	pairs := []Pair{
		{Key: "NEW", Value: "new-value"},
		{Key: "EXISTING", Value: "attempted-overwrite"},
	}

	counts := Import(v, pairs, false, false)
	if counts.Added != 1 || counts.Skipped != 1 || counts.Overwritten != 0 {
		t.Fatalf("counts = %+v", counts)
	}
	if got, _ := v.Get("EXISTING"); got != "old" {
		t.Fatalf("EXISTING should remain unchanged, got %q", got)
	}
	if got, _ := v.Get("NEW"); got != "new-value" {
		t.Fatalf("NEW = %q, want new-value", got)
	}
}

func TestImportOverwriteFlag(t *testing.T) {
	v := newFakeVault(map[string]string{"EXISTING": "old"})
	pairs := []Pair{{Key: "EXISTING", Value: "fresh"}}

	counts := Import(v, pairs, true, false)
	if counts.Overwritten != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if got, _ := v.Get("EXISTING"); got != "fresh" {
		t.Fatalf("EXISTING = %q, want fresh", got)
	}
}

func TestImportDryRunTouchesNothing(t *testing.T) {
	v := newFakeVault(map[string]string{"EXISTING": "old"})
	pairs := []Pair{
		{Key: "NEW", Value: "x"},
		{Key: "EXISTING", Value: "y"},
	}
	counts := Import(v, pairs, true, true)
	if counts.Added != 1 || counts.Overwritten != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if _, ok := v.Get("NEW"); ok {
		t.Fatal("dryRun should not have inserted NEW")
	}
	if got, _ := v.Get("EXISTING"); got != "old" {
		t.Fatalf("dryRun should not have changed EXISTING, got %q", got)
	}
}

func TestExportSortedAndAtomic(t *testing.T) {
	v := newFakeVault(map[string]string{"B": "2", "A": "1", "C": "3"})
	dir := t.TempDir()
	path := filepath.Join(dir, "out.env")

	n, err := Export(v, path, false, false)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "A=1\nB=2\nC=3\n" {
		t.Fatalf("unexpected export contents: %q", data)
	}
}

func TestExportRefusesExistingWithoutForce(t *testing.T) {
	v := newFakeVault(map[string]string{"A": "1"})
	dir := t.TempDir()
	path := filepath.Join(dir, "out.env")
	if err := os.WriteFile(path, []byte("pre-existing"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Export(v, path, false, false)
	if apperr.CodeOf(err) != apperr.UserError {
		t.Fatalf("expected UserError, got %v", apperr.CodeOf(err))
	}
}

func TestExportDryRunDoesNotWrite(t *testing.T) {
	v := newFakeVault(map[string]string{"A": "1", "B": "2"})
	dir := t.TempDir()
	path := filepath.Join(dir, "out.env")

	n, err := Export(v, path, false, true)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("dryRun should not have created the file")
	}
}

func TestExportForceOverwritesExisting(t *testing.T) {
	v := newFakeVault(map[string]string{"A": "1"})
	dir := t.TempDir()
	path := filepath.Join(dir, "out.env")
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Export(v, path, true, false); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "A=1\n" {
		t.Fatalf("unexpected contents: %q", data)
	}
}
