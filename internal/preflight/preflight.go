package preflight

import (
	"context"
	"time"

	"vpxmerge/internal/config"
	"vpxmerge/internal/patches"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := CheckDirectories(cfg)

	if cfg.Metadata.Enabled {
		results = append(results, CheckFeed(ctx, cfg.Metadata.FeedURL), CheckFeedCache(ctx, cfg))
	}

	if cfg.Patches.Enabled {
		client, err := patches.New(cfg.Patches.Repository,
			patches.WithAPIURL(cfg.Patches.APIURL),
			patches.WithToken(cfg.Patches.Token),
			patches.WithRef(cfg.Patches.Ref),
			patches.WithTimeout(checkTimeout),
		)
		if err != nil {
			results = append(results, Result{Name: patchRepositoryCheck, Detail: err.Error()})
		} else {
			results = append(results, CheckPatchRepository(ctx, client))
		}
	}

	return results
}

// CheckDirectories checks the source directories for read access and the
// export and cache directories for write access. Unset optional sources are
// skipped.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckReadableDirectory("Tables directory", cfg.Paths.TablesDir)}
	optional := []struct {
		name string
		path string
	}{
		{"VPinMAME directory", cfg.Paths.VPinMAMEDir},
		{"PuP videos directory", cfg.Paths.PuPVideosDir},
		{"Music directory", cfg.Paths.MusicDir},
	}
	for _, dir := range optional {
		if dir.path != "" {
			results = append(results, CheckReadableDirectory(dir.name, dir.path))
		}
	}
	if cfg.Paths.ExportDir != "" {
		results = append(results, CheckWritableDirectory("Export directory", cfg.Paths.ExportDir))
	}
	results = append(results, CheckWritableDirectory("Cache directory", cfg.Cache.Dir))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

const checkTimeout = 10 * time.Second
