package testsupport

import (
	"testing"

	"vpxmerge/internal/config"
	"vpxmerge/internal/feedcache"
)

// MustOpenCache opens the feed cache under cfg.Cache.Dir and registers
// cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *feedcache.Cache {
	t.Helper()

	cache, err := feedcache.Open(cfg.Cache.Dir)
	if err != nil {
		t.Fatalf("feedcache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.Close()
	})
	return cache
}
