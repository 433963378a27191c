package audit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"vpxmerge/internal/assets"
	"vpxmerge/internal/autofix"
	"vpxmerge/internal/config"
	"vpxmerge/internal/identification"
	"vpxmerge/internal/patches"
	"vpxmerge/internal/tablefile"
	"vpxmerge/internal/testsupport"
	"vpxmerge/internal/vpsdb"
)

const madnessScript = `Option Explicit
Const cGameName = "mm_109c"
Dim WshShell
Set WshShell = CreateObject("WScript.Shell")
Sub Table1_Init
End Sub
`

const marsScript = `Option Explicit
Sub Table1_Init
	PlaySound "start"
End Sub
`

type fakeCatalog struct {
	loads atomic.Int32
	err   error
}

func (f *fakeCatalog) Load(context.Context, bool) (*vpsdb.Catalog, vpsdb.RefreshResult, error) {
	f.loads.Add(1)
	if f.err != nil {
		return nil, vpsdb.RefreshResult{}, f.err
	}
	games := []vpsdb.Game{
		{
			ID:           "mm",
			Name:         "Medieval Madness",
			Manufacturer: "Williams",
			Year:         1997,
			TableFiles:   []vpsdb.File{{ID: "t1", Version: "2.0.1", ImgURL: "https://img/mm.png"}},
			RomFiles:     []vpsdb.File{{ID: "r1", Version: "mm_109c"}},
		},
		{ID: "afm", Name: "Attack from Mars", Manufacturer: "Bally", Year: 1995, ImgURL: "https://img/afm.png"},
	}
	return vpsdb.NewCatalog(games), vpsdb.RefreshResult{Status: vpsdb.StatusCached, Games: len(games)}, nil
}

type fakeFinder struct {
	calls   atomic.Int32
	err     error
	folders map[string]string
}

func (f *fakeFinder) Find(_ context.Context, tableName string) (patches.Patch, bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return patches.Patch{}, false, f.err
	}
	folder, ok := f.folders[tableName]
	if !ok {
		return patches.Patch{}, false, nil
	}
	return patches.Patch{Folder: folder, Name: folder + ".vbs", Path: folder + "/" + folder + ".vbs"}, true, nil
}

type cabinet struct {
	cfg     *config.Config
	madness string
	mars    string
	broken  string
}

func newCabinet(t *testing.T, opts ...testsupport.ConfigOption) cabinet {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	tables := testsupport.Mkdir(t, cfg.Paths.TablesDir)
	c := cabinet{
		cfg:     cfg,
		madness: testsupport.WriteScriptTable(t, tables, "Medieval Madness (Williams 1997)", madnessScript),
		mars:    testsupport.WriteScriptTable(t, tables, "Attack from Mars", marsScript),
		broken:  testsupport.WriteBrokenTable(t, tables, "Xenon Unreadable"),
	}
	testsupport.Touch(t, cfg.Paths.VPinMAMEDir, "roms", "mm_109c.zip")
	testsupport.Touch(t, tables, "Medieval Madness (Williams 1997).directb2s")
	return c
}

func newAuditor(t *testing.T, cfg *config.Config, opts ...Option) *Auditor {
	t.Helper()
	auditor, err := New(cfg, opts...)
	require.NoError(t, err)
	return auditor
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestTableFullReport(t *testing.T) {
	c := newCabinet(t)
	finder := &fakeFinder{folders: map[string]string{"Medieval Madness (Williams 1997)": "Medieval Madness"}}
	auditor := newAuditor(t, c.cfg, WithCatalogSource(&fakeCatalog{}), WithPatchFinder(finder))

	report := auditor.Table(context.Background(), c.madness)

	require.NoError(t, report.Err)
	require.Empty(t, report.Error)
	require.Equal(t, "Medieval Madness (Williams 1997)", report.Base)
	require.Equal(t, "Medieval Madness", report.Identity.Title)
	require.Equal(t, "Williams", report.Identity.Manufacturer)
	require.Equal(t, 1997, report.Identity.Year)
	require.Equal(t, "mm_109c", report.Identity.ROM)

	require.True(t, report.HasScript())
	require.Equal(t, tablefile.EncodingLatin1, report.Script.Encoding)
	require.Equal(t, 6, report.Script.Lines)
	require.Equal(t, "mm_109c", report.Facts.ROM)

	require.NotNil(t, report.Metadata)
	require.Equal(t, "mm", report.Metadata.ID)
	require.True(t, report.Metadata.ByROM)
	require.Equal(t, "https://img/mm.png", report.Metadata.Preview)
	require.Equal(t, "Medieval Madness (Williams 1997) [mm]", report.Metadata.String())

	rom, ok := report.Finding(assets.KindROM)
	require.True(t, ok)
	require.True(t, rom.Found)
	backglass, ok := report.Finding(assets.KindBackglass)
	require.True(t, ok)
	require.True(t, backglass.Found)

	require.NotNil(t, report.Patch)
	require.Equal(t, "Medieval Madness", report.Patch.Folder)

	require.Len(t, report.Fixes, 1)
	require.Equal(t, autofix.RuleShellObject, report.Fixes[0].Rule)
	require.Empty(t, report.Warnings)
}

func TestTableResolvesByName(t *testing.T) {
	c := newCabinet(t)
	auditor := newAuditor(t, c.cfg, WithCatalogSource(&fakeCatalog{}))

	report := auditor.Table(context.Background(), c.mars)

	require.NoError(t, report.Err)
	require.NotNil(t, report.Metadata)
	require.Equal(t, "afm", report.Metadata.ID)
	require.False(t, report.Metadata.ByROM)
	require.Equal(t, identification.StageExact, report.Metadata.Match.Stage)
	require.Equal(t, "https://img/afm.png", report.Metadata.Preview)

	rom, ok := report.Finding(assets.KindROM)
	require.True(t, ok)
	require.False(t, rom.Found)
	require.Equal(t, "script declares no ROM", rom.Note)
	require.Nil(t, report.Patch)
	require.Empty(t, report.Fixes)
}

func TestTableOverridePinsFeedEntryAndName(t *testing.T) {
	c := newCabinet(t)
	c.cfg.Matching.OverridesPath = filepath.Join(testsupport.BaseDir(c.cfg), "overrides.json")
	testsupport.WriteFile(t, c.cfg.Matching.OverridesPath, []byte(`[
		{"tables": ["Medieval Madness (Williams 1997)"], "vps_id": "afm", "name": "Attack from Mars"},
		{"tables": ["Attack from Mars"], "vps_id": "missing"}
	]`))
	finder := &fakeFinder{folders: map[string]string{"Attack from Mars": "AttackFromMars"}}
	auditor := newAuditor(t, c.cfg, WithCatalogSource(&fakeCatalog{}), WithPatchFinder(finder))

	pinned := auditor.Table(context.Background(), c.madness)
	require.NotNil(t, pinned.Metadata)
	require.Equal(t, "afm", pinned.Metadata.ID)
	require.False(t, pinned.Metadata.ByROM)
	require.Equal(t, identification.StageOverride, pinned.Metadata.Match.Stage)
	require.Equal(t, "Attack from Mars", pinned.Name)
	require.NotNil(t, pinned.Patch)
	require.Equal(t, "AttackFromMars", pinned.Patch.Folder)

	unknown := auditor.Table(context.Background(), c.mars)
	require.Contains(t, unknown.Warnings, `override id "missing" is not in the metadata feed`)
	require.NotNil(t, unknown.Metadata)
	require.Equal(t, "afm", unknown.Metadata.ID)
	require.Equal(t, identification.StageExact, unknown.Metadata.Match.Stage)
}

func TestTableExtractionFailureKeepsFileLevelLookups(t *testing.T) {
	c := newCabinet(t)
	auditor := newAuditor(t, c.cfg)

	report := auditor.Table(context.Background(), c.broken)

	require.Error(t, report.Err)
	require.ErrorIs(t, report.Err, tablefile.ErrContainer)
	require.NotEmpty(t, report.Error)
	require.False(t, report.HasScript())
	require.Len(t, report.Assets, 1)
	require.Equal(t, assets.KindBackglass, report.Assets[0].Kind)
	require.Empty(t, report.Fixes)
}

func TestTableWithoutPreviewSkipsAutofix(t *testing.T) {
	c := newCabinet(t, testsupport.WithAutofixPreview(false))
	auditor := newAuditor(t, c.cfg)

	report := auditor.Table(context.Background(), c.madness)
	require.NoError(t, report.Err)
	require.Empty(t, report.Fixes)
}

func TestCatalogFailureIsAWarningAndLoadsOnce(t *testing.T) {
	c := newCabinet(t)
	source := &fakeCatalog{err: errors.New("feed offline")}
	auditor := newAuditor(t, c.cfg, WithCatalogSource(source))

	first := auditor.Table(context.Background(), c.madness)
	second := auditor.Table(context.Background(), c.mars)

	require.Nil(t, first.Metadata)
	require.Contains(t, first.Warnings, "metadata feed: feed offline")
	require.Contains(t, second.Warnings, "metadata feed: feed offline")
	require.Equal(t, int32(1), source.loads.Load())
}

func TestBatchPreservesOrderAndSummarizes(t *testing.T) {
	c := newCabinet(t)
	auditor := newAuditor(t, c.cfg, WithCatalogSource(&fakeCatalog{}), WithWorkers(3))
	paths := []string{c.broken, c.madness, c.mars}

	run := auditor.Batch(context.Background(), paths)

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	require.Len(t, run.Reports, 3)
	for i, path := range paths {
		require.Equal(t, path, run.Reports[i].Path)
	}

	summary := run.Summary
	require.Equal(t, 3, summary.Tables)
	require.Equal(t, 2, summary.Extracted)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, []string{c.broken}, summary.Errors)
	require.Equal(t, 2, summary.Resolved)
	require.Equal(t, 1, summary.NeedsFix)
	require.Equal(t, 1, summary.Found[assets.KindROM])
	require.Equal(t, 1, summary.Missing[assets.KindROM])
	require.Equal(t, 1, summary.Found[assets.KindBackglass])
	require.Equal(t, 2, summary.Missing[assets.KindBackglass])
}

func TestBatchStopsPatchLookupsAfterRateLimit(t *testing.T) {
	c := newCabinet(t)
	finder := &fakeFinder{err: fmt.Errorf("%w (resets soon)", patches.ErrRateLimited)}
	auditor := newAuditor(t, c.cfg, WithPatchFinder(finder), WithWorkers(1))

	run := auditor.Batch(context.Background(), []string{c.madness, c.mars})

	require.Equal(t, int32(1), finder.calls.Load())
	for _, report := range run.Reports {
		require.Len(t, report.Warnings, 1)
		require.Nil(t, report.Patch)
	}
}

func TestBatchCancelledBeforeStart(t *testing.T) {
	c := newCabinet(t)
	auditor := newAuditor(t, c.cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := auditor.Batch(ctx, []string{c.madness, c.mars})

	require.Equal(t, 2, run.Summary.Failed)
	for _, report := range run.Reports {
		require.ErrorIs(t, report.Err, context.Canceled)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "b.VPX")
	testsupport.Touch(t, dir, "a.vpt")
	testsupport.Touch(t, dir, "notes.txt")
	testsupport.Touch(t, dir, ".hidden.vpx")
	testsupport.Mkdir(t, dir, "folder.vpx")

	paths, err := Discover(dir, []string{".vpx", ".vpt"})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.vpt"), filepath.Join(dir, "b.VPX")}, paths)

	_, err = Discover(filepath.Join(dir, "missing"), []string{".vpx"})
	require.Error(t, err)
}

func TestExtractOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Audit.ScriptMarkers = []string{"Option Explicit"}
	cfg.Audit.SampleWindow = 64
	cfg.Audit.MinPrintableRatio = 0.8

	opts := ExtractOptions(&cfg)
	require.Equal(t, []string{"Option Explicit"}, opts.Markers)
	require.Equal(t, 64, opts.SampleWindow)
	require.InDelta(t, 0.8, opts.MinPrintableRatio, 1e-9)
	require.Equal(t, tablefile.DefaultOptions().Terminator, opts.Terminator)

	require.Equal(t, tablefile.DefaultOptions(), ExtractOptions(nil))
}
