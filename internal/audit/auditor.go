package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vpxmerge/internal/assets"
	"vpxmerge/internal/autofix"
	"vpxmerge/internal/config"
	"vpxmerge/internal/identification"
	"vpxmerge/internal/identification/overrides"
	"vpxmerge/internal/logging"
	"vpxmerge/internal/patches"
	"vpxmerge/internal/scriptfacts"
	"vpxmerge/internal/tablefile"
	"vpxmerge/internal/vpsdb"
)

const defaultWorkers = 4

// CatalogSource loads the metadata feed. *vpsdb.Client satisfies it.
type CatalogSource interface {
	Load(ctx context.Context, force bool) (*vpsdb.Catalog, vpsdb.RefreshResult, error)
}

// PatchFinder looks up standalone script patches. *patches.Client satisfies
// it.
type PatchFinder interface {
	Find(ctx context.Context, tableName string) (patches.Patch, bool, error)
}

var (
	_ CatalogSource = (*vpsdb.Client)(nil)
	_ PatchFinder   = (*patches.Client)(nil)
)

// Auditor runs table audits. It is safe for concurrent use.
type Auditor struct {
	locator  *assets.Locator
	resolver identification.Resolver
	extract  tablefile.Options
	fixer    autofix.Fixer
	preview  bool
	workers  int
	feed     CatalogSource
	finder   PatchFinder
	pins     *overrides.Catalog
	logger   *slog.Logger

	catalogOnce sync.Once
	catalog     *vpsdb.Catalog
	catalogErr  error

	patchesLimited atomic.Bool
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithCatalogSource enables metadata feed resolution.
func WithCatalogSource(source CatalogSource) Option {
	return func(a *Auditor) {
		a.feed = source
	}
}

// WithPatchFinder enables patch lookups.
func WithPatchFinder(finder PatchFinder) Option {
	return func(a *Auditor) {
		a.finder = finder
	}
}

// WithWorkers overrides the batch worker count.
func WithWorkers(workers int) Option {
	return func(a *Auditor) {
		if workers > 0 {
			a.workers = workers
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New builds an Auditor from configuration. Collaborators are attached with
// options; without them the metadata and patch phases are skipped.
func New(cfg *config.Config, opts ...Option) (*Auditor, error) {
	if cfg == nil {
		return nil, errors.New("audit: config required")
	}
	resolver := identification.Resolver{
		Threshold:          cfg.Matching.Threshold,
		MinReferenceKeyLen: cfg.Matching.MinReferenceKeyLen,
	}
	locator, err := assets.New(assets.Dirs{
		Tables:    cfg.Paths.TablesDir,
		VPinMAME:  cfg.Paths.VPinMAMEDir,
		PuPVideos: cfg.Paths.PuPVideosDir,
		Music:     cfg.Paths.MusicDir,
	}, resolver)
	if err != nil {
		return nil, err
	}
	a := &Auditor{
		locator:  locator,
		resolver: resolver,
		extract:  ExtractOptions(cfg),
		fixer:    autofix.New(cfg.Export.ConstPath),
		preview:  cfg.Audit.AutofixPreview,
		workers:  cfg.Audit.Workers,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers <= 0 {
		a.workers = defaultWorkers
	}
	a.pins = overrides.NewCatalog(cfg.Matching.OverridesPath, a.logger)
	a.logger = logging.NewComponentLogger(a.logger, "audit")
	return a, nil
}

// ExtractOptions maps the [audit] section onto locator options.
func ExtractOptions(cfg *config.Config) tablefile.Options {
	opts := tablefile.DefaultOptions()
	if cfg == nil {
		return opts
	}
	if len(cfg.Audit.ScriptMarkers) > 0 {
		opts.Markers = append([]string(nil), cfg.Audit.ScriptMarkers...)
	}
	if cfg.Audit.SampleWindow > 0 {
		opts.SampleWindow = cfg.Audit.SampleWindow
	}
	if cfg.Audit.MinPrintableRatio > 0 {
		opts.MinPrintableRatio = cfg.Audit.MinPrintableRatio
	}
	return opts
}

// ReadScript extracts the script from the table file at path.
func ReadScript(path string, opts tablefile.Options) (*tablefile.Script, error) {
	data, kind, err := tablefile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tablefile.Locate(data, kind, opts)
}

// Extract reads the script from path with the auditor's locator options.
func (a *Auditor) Extract(path string) (*tablefile.Script, error) {
	return ReadScript(path, a.extract)
}

// Catalog loads the metadata feed once per Auditor. It returns nil without
// error when no source is configured.
func (a *Auditor) Catalog(ctx context.Context) (*vpsdb.Catalog, error) {
	if a.feed == nil {
		return nil, nil
	}
	a.catalogOnce.Do(func() {
		catalog, result, err := a.feed.Load(ctx, false)
		if err != nil {
			a.catalogErr = err
			logging.WarnWithContext(a.logger, "metadata feed unavailable", "feed_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run vpxmerge feed refresh or check metadata.feed_url"),
				logging.String(logging.FieldImpact, "tables are reported without feed ids or previews"),
			)
			return
		}
		a.catalog = catalog
		a.logger.Debug("metadata feed loaded",
			logging.String("status", string(result.Status)),
			logging.Int("games", result.Games),
			logging.Int("feed_bytes", result.Bytes),
		)
	})
	return a.catalog, a.catalogErr
}

// Table audits one table file. Extraction failures are recorded on the
// report and the file-level lookups still run.
func (a *Auditor) Table(ctx context.Context, path string) Report {
	start := time.Now()
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := identification.TitleFromPath(path)
	report := Report{
		Path:     path,
		Base:     base,
		Name:     name,
		Identity: identification.ParseIdentity(name),
	}
	ctx = logging.WithTable(ctx, name)
	logger := logging.WithContext(ctx, a.logger)

	script, err := a.Extract(path)
	if err != nil {
		report.fail(err)
		logging.WarnWithContext(logger, "script extraction failed", "extraction_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "open the table in the editor and save it again"),
			logging.String(logging.FieldImpact, "script based asset lookups skipped"),
		)
	}

	var text string
	if script != nil {
		text = script.Clean()
		report.Script = &ScriptInfo{
			Bytes:    script.Len(),
			Lines:    len(script.Lines()),
			Encoding: script.Encoding,
			Stream:   script.Stream,
		}
		report.Facts = scriptfacts.Extract(text)
		report.Identity.ROM = report.Facts.ROM
	}

	candidates := a.Identify(ctx, &report)

	report.Assets = a.locator.Locate(assets.Request{
		Base:       base,
		Facts:      report.Facts,
		Candidates: candidates,
		HasScript:  script != nil,
	})

	a.findPatch(ctx, &report)

	if a.preview && script != nil {
		report.Fixes = a.fixer.Apply(text).Changes
	}

	report.Elapsed = time.Since(start)
	logger.Debug("table audited",
		logging.String("rom", report.Facts.ROM),
		logging.Int("script_bytes", report.scriptBytes()),
		logging.Int("changes", len(report.Fixes)),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report
}

// Identify applies the override pins and resolves report against the
// metadata feed: a pinned id first, then the ROM index, then the name
// resolver. report.Base, Name and Facts must be set. It returns the lookup
// candidates, pinned name first.
func (a *Auditor) Identify(ctx context.Context, report *Report) []string {
	candidates := identification.Candidates(report.Name)
	pin := a.override(report)
	if pin.Name != "" {
		report.Name = pin.Name
		candidates = append(identification.Candidates(pin.Name), candidates...)
	}
	a.resolveMetadata(ctx, report, candidates, pin.VPSID)
	return candidates
}

// override returns the user pin for the report's table, if any.
func (a *Auditor) override(report *Report) overrides.Override {
	pin, ok, err := a.pins.Lookup(report.Base, report.Facts.ROM)
	if err != nil {
		report.addWarning("overrides: %v", err)
		return overrides.Override{}
	}
	if !ok {
		return overrides.Override{}
	}
	return pin
}

// resolveMetadata tries a pinned id, then the ROM index, then the name
// resolver.
func (a *Auditor) resolveMetadata(ctx context.Context, report *Report, candidates []string, pinned string) {
	catalog, err := a.Catalog(ctx)
	if err != nil {
		report.addWarning("metadata feed: %v", err)
		return
	}
	if catalog == nil {
		return
	}
	if pinned != "" {
		if game, ok := catalog.Game(pinned); ok {
			report.Metadata = &MetadataMatch{
				ID:      game.ID,
				Name:    game.DisplayName(),
				Preview: game.Preview(),
				Match: identification.MatchResult{
					ReferenceID:  game.ID,
					Score:        1,
					MatchedKey:   pinned,
					CandidateKey: report.Base,
					Stage:        identification.StageOverride,
				},
			}
			return
		}
		report.addWarning("override id %q is not in the metadata feed", pinned)
	}
	if rom := report.Facts.ROM; rom != "" {
		if id, ok := catalog.ROMCodes().Lookup(rom); ok {
			if game, ok := catalog.Game(id); ok {
				report.Metadata = &MetadataMatch{
					ID:      game.ID,
					Name:    game.DisplayName(),
					Preview: game.Preview(),
					ByROM:   true,
					Match: identification.MatchResult{
						ReferenceID:  id,
						Score:        1,
						MatchedKey:   rom,
						CandidateKey: rom,
						Stage:        identification.StageExact,
					},
				}
				return
			}
		}
	}
	match, ok := a.resolver.Resolve(candidates, catalog.Names())
	if !ok {
		return
	}
	game, ok := catalog.Game(match.ReferenceID)
	if !ok {
		return
	}
	report.Metadata = &MetadataMatch{
		ID:      game.ID,
		Name:    game.DisplayName(),
		Preview: game.Preview(),
		Match:   match,
	}
}

func (a *Auditor) findPatch(ctx context.Context, report *Report) {
	if a.finder == nil {
		return
	}
	if a.patchesLimited.Load() {
		report.addWarning("patch lookup skipped: %v", patches.ErrRateLimited)
		return
	}
	patch, ok, err := a.finder.Find(ctx, report.Name)
	if err != nil {
		report.addWarning("patch lookup: %v", err)
		if errors.Is(err, patches.ErrRateLimited) && a.patchesLimited.CompareAndSwap(false, true) {
			logging.WarnWithContext(logging.WithContext(ctx, a.logger), "patch lookups disabled for this run", "patch_rate_limited",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "set GITHUB_TOKEN or patches.token"),
				logging.String(logging.FieldImpact, "remaining tables are reported without patches"),
			)
		}
		return
	}
	if ok {
		report.Patch = &patch
	}
}

func (r Report) scriptBytes() int {
	if r.Script == nil {
		return 0
	}
	return r.Script.Bytes
}

// String renders a one-line description for errors and logs.
func (m *MetadataMatch) String() string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s [%s]", m.Name, m.ID)
}
