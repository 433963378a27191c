package feedcache_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"vpxmerge/internal/feedcache"
)

func openCache(t *testing.T) *feedcache.Cache {
	t.Helper()
	cache, err := feedcache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestPutGetRoundTrip(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()

	body := bytes.Repeat([]byte(`{"name":"Medieval Madness"}`), 200)
	if err := cache.Put(ctx, feedcache.Entry{Key: "vpsdb", ETag: `"abc"`, Body: body}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, ok, err := cache.Get(ctx, "vpsdb")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cached entry")
	}
	if entry.ETag != `"abc"` {
		t.Fatalf("unexpected etag %q", entry.ETag)
	}
	if !bytes.Equal(entry.Body, body) {
		t.Fatal("body did not round-trip")
	}
	if entry.FetchedAt.IsZero() || entry.CheckedAt.IsZero() {
		t.Fatalf("expected timestamps, got %#v", entry)
	}
}

func TestGetMissing(t *testing.T) {
	cache := openCache(t)
	_, ok, err := cache.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestPutRequiresKey(t *testing.T) {
	cache := openCache(t)
	if err := cache.Put(context.Background(), feedcache.Entry{Body: []byte("x")}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestPutReplacesAndTouchUpdatesCheckedAt(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour).UTC()

	if err := cache.Put(ctx, feedcache.Entry{Key: "k", ETag: "v1", Body: []byte("one"), FetchedAt: old}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Put(ctx, feedcache.Entry{Key: "k", ETag: "v2", Body: []byte("two"), FetchedAt: old}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Touch(ctx, "k"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	entry, _, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.ETag != "v2" || string(entry.Body) != "two" {
		t.Fatalf("expected replaced entry, got %q/%q", entry.ETag, entry.Body)
	}
	if !entry.CheckedAt.After(entry.FetchedAt) {
		t.Fatalf("expected checked_at after fetched_at, got %v <= %v", entry.CheckedAt, entry.FetchedAt)
	}
	if entry.Age(time.Now()) > time.Minute {
		t.Fatalf("expected fresh entry after touch, age %v", entry.Age(time.Now()))
	}
}

func TestStatsAndClear(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if err := cache.Put(ctx, feedcache.Entry{Key: key, Body: bytes.Repeat([]byte("z"), 1000)}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 2 || stats.RawBytes != 2000 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	if stats.CompressedBytes <= 0 || stats.CompressedBytes >= stats.RawBytes {
		t.Fatalf("expected compressed size below raw size, got %d", stats.CompressedBytes)
	}

	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	stats, err = cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 0 || !stats.LastChecked.IsZero() {
		t.Fatalf("expected empty stats, got %#v", stats)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cache, err := feedcache.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := cache.Put(ctx, feedcache.Entry{Key: "k", Body: []byte("kept")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	_ = cache.Close()

	reopened, err := feedcache.Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	entry, ok, err := reopened.Get(ctx, "k")
	if err != nil || !ok || string(entry.Body) != "kept" {
		t.Fatalf("expected persisted entry, got %v %v %q", ok, err, entry.Body)
	}
}

func TestLockRelease(t *testing.T) {
	cache := openCache(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	unlock, err := cache.Lock(ctx)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	unlock, err = cache.Lock(ctx)
	if err != nil {
		t.Fatalf("relock failed: %v", err)
	}
	_ = unlock()
}

func TestOpenRequiresDirectory(t *testing.T) {
	if _, err := feedcache.Open("  "); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
