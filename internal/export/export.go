// Package export writes extracted table scripts as standalone .vbs files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vpxmerge/internal/autofix"
	"vpxmerge/internal/fileutil"
	"vpxmerge/internal/tablefile"
	"vpxmerge/internal/textutil"
)

// ErrExists is returned when the target exists and overwriting is disabled.
var ErrExists = errors.New("script already exists")

// Options controls WriteScript.
type Options struct {
	// Autofix runs the standalone rewrite rules before writing.
	Autofix bool
	// ConstPath is passed to the rewrite rules.
	ConstPath string
	// Overwrite replaces an existing file after backing it up.
	Overwrite bool
}

// Result describes a written script.
type Result struct {
	Path   string
	Bytes  int64
	Backup string
	Fix    autofix.Result
}

// ScriptPath returns the path WriteScript uses for base inside dir. The base
// name is kept unless the host OS cannot store it.
func ScriptPath(dir, base string) string {
	return filepath.Join(dir, textutil.HostFileName(base)+".vbs")
}

// WriteScript writes script to <dir>/<base>.vbs with CRLF line endings in
// ISO-8859-1, creating dir when needed.
func WriteScript(dir, base string, script *tablefile.Script, opts Options) (Result, error) {
	if strings.TrimSpace(textutil.HostFileName(base)) == "" {
		return Result{}, errors.New("export: empty base name")
	}
	return WriteScriptFile(ScriptPath(dir, base), script, opts)
}

// WriteScriptFile writes script to path exactly as given. An existing file
// is refused unless opts.Overwrite is set, in which case it is kept as
// path.bak first.
func WriteScriptFile(path string, script *tablefile.Script, opts Options) (Result, error) {
	if script == nil || script.Len() == 0 {
		return Result{}, errors.New("export: empty script")
	}
	result := Result{Path: path}

	if _, err := os.Stat(path); err == nil {
		if !opts.Overwrite {
			return result, fmt.Errorf("%w: %s", ErrExists, path)
		}
		backup, err := fileutil.BackupFile(path)
		if err != nil {
			return result, err
		}
		result.Backup = backup
	} else if !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("stat %s: %w", path, err)
	}

	text := script.Clean()
	if opts.Autofix {
		result.Fix = autofix.New(opts.ConstPath).Apply(text)
		text = result.Fix.Text
	}
	data := Encode(text)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return result, fmt.Errorf("create export directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return result, fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}
	result.Bytes = int64(len(data))
	return result, nil
}

// Encode normalizes line endings to CRLF and encodes text as ISO-8859-1.
func Encode(text string) []byte {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\n", "\r\n")
	return tablefile.EncodeLatin1(text)
}
