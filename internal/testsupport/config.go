package testsupport

import (
	"path/filepath"
	"testing"

	"vpxmerge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose cabinet directories live under a unique
// temp directory. Remote collaborators are disabled unless an option turns
// them on.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		TablesDir:    filepath.Join(base, "tables"),
		VPinMAMEDir:  filepath.Join(base, "VPinMAME"),
		PuPVideosDir: filepath.Join(base, "PUPVideos"),
		MusicDir:     filepath.Join(base, "Music"),
		ExportDir:    filepath.Join(base, "export"),
		LogDir:       filepath.Join(base, "logs"),
	}
	cfgVal.Cache.Dir = filepath.Join(base, "cache")
	cfgVal.Metadata.Enabled = false
	cfgVal.Patches.Enabled = false
	cfgVal.Audit.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFeedURL enables the metadata feed against url.
func WithFeedURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metadata.Enabled = true
		b.cfg.Metadata.FeedURL = url
	}
}

// WithPatchAPI enables patch lookups against a GitHub API stand-in at url.
func WithPatchAPI(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Patches.Enabled = true
		b.cfg.Patches.APIURL = url
	}
}

// WithAutofixPreview toggles the audit autofix preview.
func WithAutofixPreview(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audit.AutofixPreview = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.TablesDir)
}
