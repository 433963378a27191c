package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Discover lists the table files directly inside dir whose extension is in
// extensions, sorted by name. Extensions are compared case-insensitively.
func Discover(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !slices.ContainsFunc(extensions, func(want string) bool { return strings.EqualFold(want, ext) }) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}
