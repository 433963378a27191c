package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMetadata()
	c.normalizePatches()
	c.normalizeAudit()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

// applyEnvOverrides reads VPXMERGE_* variables, which win over file values.
func (c *Config) applyEnvOverrides() {
	stringVars := map[string]*string{
		"VPXMERGE_TABLES_DIR":    &c.Paths.TablesDir,
		"VPXMERGE_VPINMAME_DIR":  &c.Paths.VPinMAMEDir,
		"VPXMERGE_PUPVIDEOS_DIR": &c.Paths.PuPVideosDir,
		"VPXMERGE_MUSIC_DIR":     &c.Paths.MusicDir,
		"VPXMERGE_EXPORT_DIR":    &c.Paths.ExportDir,
		"VPXMERGE_CACHE_DIR":     &c.Cache.Dir,
		"VPXMERGE_FEED_URL":      &c.Metadata.FeedURL,
		"VPXMERGE_PATCH_REPO":    &c.Patches.Repository,
		"VPXMERGE_LOG_LEVEL":     &c.Logging.Level,
		"VPXMERGE_LOG_FORMAT":    &c.Logging.Format,
	}
	for name, target := range stringVars {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	if value, ok := os.LookupEnv("VPXMERGE_WORKERS"); ok {
		if workers, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			c.Audit.Workers = workers
		}
	}
	if value, ok := os.LookupEnv("VPXMERGE_MATCH_THRESHOLD"); ok {
		if threshold, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			c.Matching.Threshold = threshold
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.TablesDir, err = expandPath(strings.TrimSpace(c.Paths.TablesDir)); err != nil {
		return fmt.Errorf("paths.tables_dir: %w", err)
	}
	if c.Paths.VPinMAMEDir, err = expandPath(strings.TrimSpace(c.Paths.VPinMAMEDir)); err != nil {
		return fmt.Errorf("paths.vpinmame_dir: %w", err)
	}
	if c.Paths.PuPVideosDir, err = expandPath(strings.TrimSpace(c.Paths.PuPVideosDir)); err != nil {
		return fmt.Errorf("paths.pupvideos_dir: %w", err)
	}
	if c.Paths.MusicDir, err = expandPath(strings.TrimSpace(c.Paths.MusicDir)); err != nil {
		return fmt.Errorf("paths.music_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(strings.TrimSpace(c.Paths.ExportDir)); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Matching.OverridesPath, err = expandPath(strings.TrimSpace(c.Matching.OverridesPath)); err != nil {
		return fmt.Errorf("matching.overrides_path: %w", err)
	}
	if strings.TrimSpace(c.Cache.Dir) == "" {
		c.Cache.Dir = defaultCacheDir()
	}
	if c.Cache.Dir, err = expandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetadata() {
	c.Metadata.FeedURL = strings.TrimSpace(c.Metadata.FeedURL)
	if c.Metadata.FeedURL == "" {
		c.Metadata.FeedURL = defaultFeedURL
	}
	if c.Metadata.MaxAgeHours < 0 {
		c.Metadata.MaxAgeHours = 0
	}
	if c.Metadata.RequestTimeout <= 0 {
		c.Metadata.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizePatches() {
	if c.Patches.Token == "" {
		if value, ok := os.LookupEnv("GITHUB_TOKEN"); ok {
			c.Patches.Token = value
		}
	}
	c.Patches.Token = strings.TrimSpace(c.Patches.Token)
	c.Patches.Repository = strings.Trim(strings.TrimSpace(c.Patches.Repository), "/")
	if c.Patches.Repository == "" {
		c.Patches.Repository = defaultPatchRepository
	}
	c.Patches.Ref = strings.TrimSpace(c.Patches.Ref)
	if c.Patches.Ref == "" {
		c.Patches.Ref = defaultPatchRef
	}
	c.Patches.APIURL = strings.TrimSpace(c.Patches.APIURL)
	if c.Patches.APIURL == "" {
		c.Patches.APIURL = defaultGitHubAPIURL
	}
	if !strings.HasSuffix(c.Patches.APIURL, "/") {
		c.Patches.APIURL += "/"
	}
	if c.Patches.ListingCacheSize <= 0 {
		c.Patches.ListingCacheSize = defaultListingCacheSize
	}
	if c.Patches.RequestTimeout <= 0 {
		c.Patches.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeAudit() {
	if c.Audit.Workers == 0 {
		c.Audit.Workers = defaultAuditWorkers
	}
	exts := make([]string, 0, len(c.Audit.Extensions))
	seen := make(map[string]struct{}, len(c.Audit.Extensions))
	for _, ext := range c.Audit.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultExtensions...)
	}
	c.Audit.Extensions = exts

	markers := c.Audit.ScriptMarkers[:0]
	for _, marker := range c.Audit.ScriptMarkers {
		if marker = strings.TrimSpace(marker); marker != "" {
			markers = append(markers, marker)
		}
	}
	if len(markers) == 0 {
		markers = append(markers, defaultScriptMarkers...)
	}
	c.Audit.ScriptMarkers = markers
	if c.Audit.SampleWindow <= 0 {
		c.Audit.SampleWindow = defaultSampleWindow
	}
	if c.Audit.MinPrintableRatio == 0 {
		c.Audit.MinPrintableRatio = defaultMinPrintableRatio
	}
}

func (c *Config) normalizeExport() {
	if c.Export.ConstPath == "" {
		c.Export.ConstPath = defaultConstPath
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
