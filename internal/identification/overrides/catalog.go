// Package overrides loads user-authored pins from table files or ROM names to
// metadata feed entries, for tables the fuzzy resolver cannot place.
package overrides

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"vpxmerge/internal/logging"
	"vpxmerge/internal/textutil"
)

// Catalog loads overrides from a JSON file and reloads it when the file's
// modification time changes. A nil Catalog matches nothing.
type Catalog struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	loaded  time.Time
	entries []Override
}

// Override pins tables to a feed entry. Tables holds file base names, which
// are compared after normalization; ROMs are compared case-insensitively.
// Name, when set, replaces the file-derived name for patch and media lookups.
type Override struct {
	Tables []string `json:"tables"`
	ROMs   []string `json:"roms"`
	VPSID  string   `json:"vps_id"`
	Name   string   `json:"name"`
}

// NewCatalog returns nil when path is empty.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &Catalog{path: trimmed, logger: logging.NewComponentLogger(logger, "overrides")}
}

// Path returns the backing file.
func (c *Catalog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Lookup returns the first override naming base, then the first naming rom.
// A missing file is not an error.
func (c *Catalog) Lookup(base, rom string) (Override, bool, error) {
	if c == nil {
		return Override{}, false, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return Override{}, false, err
	}
	table := textutil.Normalize(base)
	rom = strings.ToLower(strings.TrimSpace(rom))

	c.mu.RLock()
	defer c.mu.RUnlock()
	if table != "" {
		for _, entry := range c.entries {
			if contains(entry.Tables, table) {
				return entry, true, nil
			}
		}
	}
	if rom != "" {
		for _, entry := range c.entries {
			if contains(entry.ROMs, rom) {
				return entry, true, nil
			}
		}
	}
	return Override{}, false, nil
}

// Len reports the number of loaded overrides.
func (c *Catalog) Len() (int, error) {
	if c == nil {
		return 0, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat overrides: %w", err)
	}

	c.mu.RLock()
	alreadyLoaded := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if alreadyLoaded {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read overrides: %w", err)
	}
	entries, err := parseOverrides(data)
	if err != nil {
		return fmt.Errorf("parse overrides %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Debug("loaded match overrides",
		logging.String("overrides_path", c.path),
		logging.Int("count", len(entries)),
	)
	return nil
}

// parseOverrides accepts a bare array or an object with an overrides field.
func parseOverrides(data []byte) ([]Override, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Override
	if data[0] == '{' {
		var wrapper struct {
			Overrides []Override `json:"overrides"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		entries = wrapper.Overrides
	} else if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	normalized := make([]Override, 0, len(entries))
	for _, entry := range entries {
		entry.normalize()
		if len(entry.Tables) == 0 && len(entry.ROMs) == 0 {
			continue
		}
		normalized = append(normalized, entry)
	}
	return normalized, nil
}

func (o *Override) normalize() {
	o.VPSID = strings.TrimSpace(o.VPSID)
	o.Name = strings.TrimSpace(o.Name)
	o.Tables = normalizeList(o.Tables, textutil.Normalize)
	o.ROMs = normalizeList(o.ROMs, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
}

func normalizeList(values []string, norm func(string) string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if key := norm(value); key != "" {
			cleaned = append(cleaned, key)
		}
	}
	return cleaned
}

func contains(values []string, key string) bool {
	for _, value := range values {
		if value == key {
			return true
		}
	}
	return false
}
