package tablefile

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadFile loads a container from disk and detects its kind.
func ReadFile(path string) ([]byte, Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, KindCompound, fmt.Errorf("read table file: %w", err)
	}
	return data, DetectKind(filepath.Base(path), data[:min(len(data), len(compoundMagic))]), nil
}
