package feedcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

const (
	databaseName = "feeds.db"
	lockName     = "feeds.lock"
)

// Entry is a cached response body with its validators.
type Entry struct {
	Key       string
	ETag      string
	Body      []byte
	FetchedAt time.Time
	CheckedAt time.Time
}

// Age reports how long ago the entry was last confirmed fresh.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CheckedAt)
}

// Stats summarizes cache contents.
type Stats struct {
	Path            string
	Entries         int
	RawBytes        int64
	CompressedBytes int64
	LastChecked     time.Time
}

// Cache stores feed responses in a SQLite database.
type Cache struct {
	db   *sql.DB
	path string
	lock *flock.Flock
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open creates dir if needed and opens (or initializes) the cache database
// inside it.
func Open(dir string) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, databaseName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	cache := &Cache{
		db:   db,
		path: dbPath,
		lock: flock.New(filepath.Join(dir, lockName)),
		enc:  enc,
		dec:  dec,
	}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = cache.Close()
		return nil, err
	}
	return cache, nil
}

// Close releases the database and codec resources.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if c.dec != nil {
		c.dec.Close()
	}
	if c.enc != nil {
		_ = c.enc.Close()
	}
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the cached entry for key. A missing entry is not an error.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool, error) {
	ctx = ensureContext(ctx)
	var (
		etag       sql.NullString
		body       []byte
		fetchedRaw string
		checkedRaw string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT etag, body, fetched_at, checked_at FROM feed_entries WHERE key = ?`, key,
	).Scan(&etag, &body, &fetchedRaw, &checkedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get feed entry: %w", err)
	}

	raw, err := c.dec.DecodeAll(body, nil)
	if err != nil {
		return Entry{}, false, fmt.Errorf("decompress feed entry %s: %w", key, err)
	}
	return Entry{
		Key:       key,
		ETag:      etag.String,
		Body:      raw,
		FetchedAt: parseTime(fetchedRaw),
		CheckedAt: parseTime(checkedRaw),
	}, true, nil
}

// Put stores entry, replacing any previous body for the same key. Zero
// timestamps default to now.
func (c *Cache) Put(ctx context.Context, entry Entry) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(entry.Key) == "" {
		return errors.New("feed entry key required")
	}
	now := time.Now().UTC()
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = now
	}
	if entry.CheckedAt.IsZero() {
		entry.CheckedAt = entry.FetchedAt
	}
	compressed := c.enc.EncodeAll(entry.Body, nil)

	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO feed_entries (key, etag, body, raw_size, fetched_at, checked_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(key) DO UPDATE SET
                 etag = excluded.etag, body = excluded.body, raw_size = excluded.raw_size,
                 fetched_at = excluded.fetched_at, checked_at = excluded.checked_at`,
			entry.Key,
			nullableString(entry.ETag),
			compressed,
			len(entry.Body),
			formatTime(entry.FetchedAt),
			formatTime(entry.CheckedAt),
		)
		if err != nil {
			return fmt.Errorf("put feed entry: %w", err)
		}
		return nil
	})
}

// Touch records that the entry for key was revalidated (HTTP 304) without
// rewriting its body.
func (c *Cache) Touch(ctx context.Context, key string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx,
			`UPDATE feed_entries SET checked_at = ? WHERE key = ?`,
			formatTime(time.Now().UTC()), key,
		)
		if err != nil {
			return fmt.Errorf("touch feed entry: %w", err)
		}
		return nil
	})
}

// Clear removes every entry and returns the number deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := c.db.ExecContext(ctx, `DELETE FROM feed_entries`)
		if err != nil {
			return fmt.Errorf("clear feed entries: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

// Stats reports entry counts and sizes.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Path: c.path}
	var (
		raw         sql.NullInt64
		compressed  sql.NullInt64
		lastChecked sql.NullString
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1), SUM(raw_size), SUM(LENGTH(body)), MAX(checked_at) FROM feed_entries`,
	).Scan(&stats.Entries, &raw, &compressed, &lastChecked)
	if err != nil {
		return Stats{}, fmt.Errorf("feed cache stats: %w", err)
	}
	stats.RawBytes = raw.Int64
	stats.CompressedBytes = compressed.Int64
	if lastChecked.Valid {
		stats.LastChecked = parseTime(lastChecked.String)
	}
	return stats, nil
}

// Lock acquires the cross-process refresh lock, polling until ctx ends. The
// returned function releases it.
func (c *Cache) Lock(ctx context.Context) (func() error, error) {
	ctx = ensureContext(ctx)
	ok, err := c.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire feed lock: %w", err)
	}
	if !ok {
		return nil, errors.New("feed lock held by another process")
	}
	return c.lock.Unlock, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
