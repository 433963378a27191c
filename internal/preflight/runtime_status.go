package preflight

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"vpxmerge/internal/config"
	"vpxmerge/internal/feedcache"
)

// CheckFeedCache reports the persistent feed cache contents and flags a
// cached feed older than the configured max age.
func CheckFeedCache(ctx context.Context, cfg *config.Config) Result {
	const name = "Feed cache"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Metadata.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	cache, err := feedcache.Open(cfg.Cache.Dir)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer cache.Close()

	stats, err := cache.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return describeCache(name, stats, cfg.FeedMaxAge(), time.Now())
}

func describeCache(name string, stats feedcache.Stats, maxAge time.Duration, now time.Time) Result {
	if stats.Entries == 0 || stats.LastChecked.IsZero() {
		return Result{Name: name, Passed: true, Detail: "Empty (downloaded on first scan)"}
	}
	detail := fmt.Sprintf("%d %s, %s (%s on disk), checked %s",
		stats.Entries,
		pluralize(stats.Entries, "entry", "entries"),
		humanize.Bytes(uint64(max(stats.RawBytes, 0))),
		humanize.Bytes(uint64(max(stats.CompressedBytes, 0))),
		humanize.RelTime(stats.LastChecked, now, "ago", "from now"),
	)
	if maxAge > 0 && now.Sub(stats.LastChecked) > maxAge {
		return Result{Name: name, Passed: true, Detail: detail + "; stale, refreshed on next scan"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
