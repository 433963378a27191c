package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the cabinet directory layout.
type Paths struct {
	TablesDir    string `toml:"tables_dir"`
	VPinMAMEDir  string `toml:"vpinmame_dir"`
	PuPVideosDir string `toml:"pupvideos_dir"`
	MusicDir     string `toml:"music_dir"`
	ExportDir    string `toml:"export_dir"`
	LogDir       string `toml:"log_dir"`
}

// Matching contains the name resolver tuning.
type Matching struct {
	Threshold          float64 `toml:"threshold"`
	MinReferenceKeyLen int     `toml:"min_reference_key_len"`
	OverridesPath      string  `toml:"overrides_path"`
}

// Metadata contains configuration for the Virtual Pinball Spreadsheet feed.
type Metadata struct {
	Enabled        bool   `toml:"enabled"`
	FeedURL        string `toml:"feed_url"`
	MaxAgeHours    int    `toml:"max_age_hours"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Patches contains configuration for the standalone script patch repository.
type Patches struct {
	Enabled          bool   `toml:"enabled"`
	Repository       string `toml:"repository"`
	Ref              string `toml:"ref"`
	APIURL           string `toml:"api_url"`
	Token            string `toml:"token"`
	ListingCacheSize int    `toml:"listing_cache_size"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Cache contains configuration for the persistent feed cache.
type Cache struct {
	Dir string `toml:"dir"`
}

// Audit contains configuration for table scanning.
type Audit struct {
	Workers           int      `toml:"workers"`
	Extensions        []string `toml:"extensions"`
	ScriptMarkers     []string `toml:"script_markers"`
	SampleWindow      int      `toml:"sample_window"`
	MinPrintableRatio float64  `toml:"min_printable_ratio"`
	AutofixPreview    bool     `toml:"autofix_preview"`
}

// Export contains configuration for script export.
type Export struct {
	Autofix   bool   `toml:"autofix"`
	Overwrite bool   `toml:"overwrite"`
	ConstPath string `toml:"const_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vpxmerge.
//
// Configuration sections by subsystem:
//   - Paths: table, VPinMAME, PuP, music, export and log directories
//   - Matching: name resolver threshold and minimum key length
//   - Metadata: Virtual Pinball Spreadsheet feed
//   - Patches: standalone script patch repository on GitHub
//   - Cache: persistent feed cache location
//   - Audit: scan workers, table extensions and script locator tuning
//   - Export: script export behaviour
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Matching Matching `toml:"matching"`
	Metadata Metadata `toml:"metadata"`
	Patches  Patches  `toml:"patches"`
	Cache    Cache    `toml:"cache"`
	Audit    Audit    `toml:"audit"`
	Export   Export   `toml:"export"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vpxmerge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vpxmerge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache directory and, when configured, the
// export and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Cache.Dir, c.Paths.ExportDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FeedMaxAge returns the metadata cache freshness window.
func (c *Config) FeedMaxAge() time.Duration {
	return time.Duration(c.Metadata.MaxAgeHours) * time.Hour
}

// RepositoryOwnerName splits patches.repository into owner and name.
func (c *Config) RepositoryOwnerName() (string, string) {
	owner, name, _ := strings.Cut(c.Patches.Repository, "/")
	return owner, name
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vpxmerge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/vpxmerge"
	}
	return filepath.Join(home, ".cache", "vpxmerge")
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
