package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Touch creates a one-byte file at the joined path and returns it.
func Touch(t testing.TB, parts ...string) string {
	t.Helper()

	path := filepath.Join(parts...)
	WriteFile(t, path, []byte{0x42})
	return path
}

// Mkdir creates the joined directory and returns it.
func Mkdir(t testing.TB, parts ...string) string {
	t.Helper()

	dir := filepath.Join(parts...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	return dir
}

// WriteScriptTable writes a plain-text table named <name>.vbs holding script
// and returns its path.
func WriteScriptTable(t testing.TB, dir, name, script string) string {
	t.Helper()

	path := filepath.Join(dir, name+".vbs")
	WriteFile(t, path, []byte(script))
	return path
}

// WriteBrokenTable writes a .vpx file that is not a compound document and
// returns its path.
func WriteBrokenTable(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name+".vpx")
	WriteFile(t, path, []byte("not a compound document"))
	return path
}
