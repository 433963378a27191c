package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vpxmerge/internal/audit"
	"vpxmerge/internal/config"
	"vpxmerge/internal/textutil"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// resolveTables expands args into table file paths. Directories are listed
// for configured extensions; no args means the configured tables directory.
func resolveTables(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		if strings.TrimSpace(cfg.Paths.TablesDir) == "" {
			return nil, errors.New("no tables given and paths.tables_dir is not set")
		}
		return audit.Discover(cfg.Paths.TablesDir, cfg.Audit.Extensions)
	}
	var paths []string
	for _, arg := range args {
		path, err := config.ExpandPath(strings.TrimSpace(arg))
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("inspect %q: %w", arg, err)
		}
		if info.IsDir() {
			found, err := audit.Discover(path, cfg.Audit.Extensions)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, errors.New("no table files found")
	}
	return paths, nil
}

// tableExportDir mirrors the per-table folder layout: <export>/<base>.
func tableExportDir(root, path string) string {
	return filepath.Join(root, textutil.HostFileName(tableBase(path)))
}

func tableBase(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

var titleCaser = cases.Title(language.English)

// displayTitle title-cases names typed entirely in lower case.
func displayTitle(name string) string {
	if name != strings.ToLower(name) {
		return name
	}
	return titleCaser.String(name)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
