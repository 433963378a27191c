package export

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"vpxmerge/internal/autofix"
	"vpxmerge/internal/tablefile"
)

func latin1Script(text string) *tablefile.Script {
	return &tablefile.Script{Data: tablefile.EncodeLatin1(text), Encoding: tablefile.EncodingLatin1}
}

func TestWriteScriptCRLFAndLatin1(t *testing.T) {
	dir := t.TempDir()
	script := latin1Script("\r\nOption Explicit\r\r\nDim café\nEnd\n\n")

	result, err := WriteScript(dir, "Medieval Madness", script, Options{})
	if err != nil {
		t.Fatalf("WriteScript returned error: %v", err)
	}
	if want := filepath.Join(dir, "Medieval Madness.vbs"); result.Path != want {
		t.Fatalf("path = %q, want %q", result.Path, want)
	}
	got, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("Option Explicit\r\nDim caf\xe9\r\nEnd")
	if string(got) != string(want) {
		t.Fatalf("content = %q, want %q", got, want)
	}
	if result.Bytes != int64(len(want)) {
		t.Fatalf("bytes = %d, want %d", result.Bytes, len(want))
	}
	if result.Fix.Changed() {
		t.Fatal("autofix should not run when disabled")
	}
}

func TestScriptPathKeepsTableBase(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "Whoa: Nellie.vbs")
	if runtime.GOOS == "windows" {
		want = filepath.Join(dir, "Whoa- Nellie.vbs")
	}
	if got := ScriptPath(dir, "Whoa: Nellie"); got != want {
		t.Fatalf("ScriptPath = %q, want %q", got, want)
	}
	if got := ScriptPath(dir, "AC/DC"); got != filepath.Join(dir, "AC-DC.vbs") {
		t.Fatalf("ScriptPath(AC/DC) = %q", got)
	}
}

func TestWriteScriptFileUsesExactPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Mr. & Mrs. Pac-Man.vbs")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := WriteScriptFile(path, latin1Script("Controller.ShowTitle = 0"), Options{Autofix: true, Overwrite: true})
	if err != nil {
		t.Fatalf("WriteScriptFile returned error: %v", err)
	}
	if result.Path != path || result.Backup != path+".bak" {
		t.Fatalf("result = %+v", result)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "'Controller.ShowTitle = 0" {
		t.Fatalf("content = %q", got)
	}
}

func TestWriteScriptAppliesAutofix(t *testing.T) {
	dir := t.TempDir()
	script := latin1Script("Controller.ShowTitle = 0\nLoadVPM")

	result, err := WriteScript(dir, "afm", script, Options{Autofix: true})
	if err != nil {
		t.Fatalf("WriteScript returned error: %v", err)
	}
	if len(result.Fix.Changes) != 1 || result.Fix.Changes[0].Rule != autofix.RuleDisplayControl {
		t.Fatalf("unexpected changes: %+v", result.Fix.Changes)
	}
	got, _ := os.ReadFile(result.Path)
	if string(got) != "'Controller.ShowTitle = 0\r\nLoadVPM" {
		t.Fatalf("content = %q", got)
	}
}

func TestWriteScriptRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := ScriptPath(dir, "tz")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := WriteScript(dir, "tz", latin1Script("new"), Options{})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	result, err := WriteScript(dir, "tz", latin1Script("new"), Options{Overwrite: true})
	if err != nil {
		t.Fatalf("overwrite returned error: %v", err)
	}
	if result.Backup != path+".bak" {
		t.Fatalf("backup = %q", result.Backup)
	}
	old, _ := os.ReadFile(result.Backup)
	if string(old) != "old" {
		t.Fatalf("backup content = %q", old)
	}
	current, _ := os.ReadFile(path)
	if string(current) != "new" {
		t.Fatalf("content = %q", current)
	}
}

func TestWriteScriptRejectsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := WriteScript(dir, "x", nil, Options{}); err == nil {
		t.Fatal("expected error for nil script")
	}
	if _, err := WriteScript(dir, "  ", latin1Script("x"), Options{}); err == nil {
		t.Fatal("expected error for empty base")
	}
}

func TestEncode(t *testing.T) {
	if got := string(Encode("a\nb\r\nc\rd€")); got != "a\r\nb\r\nc\r\nd?" {
		t.Fatalf("Encode = %q", got)
	}
}

func TestWriteScriptCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Twilight Zone")
	result, err := WriteScript(dir, "Twilight Zone", latin1Script("x"), Options{})
	if err != nil {
		t.Fatalf("WriteScript returned error: %v", err)
	}
	if _, err := os.Stat(result.Path); err != nil {
		t.Fatalf("expected script at %s: %v", result.Path, err)
	}
}
