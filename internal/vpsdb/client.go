package vpsdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vpxmerge/internal/feedcache"
	"vpxmerge/internal/logging"
)

// DefaultFeedURL is the published location of the database export.
const DefaultFeedURL = "https://virtualpinballspreadsheet.github.io/vps-db/db/vpsdb.json"

const cacheKey = "vpsdb"

// maxFeedBytes bounds the downloaded document.
const maxFeedBytes = 256 << 20

// Store persists the last feed body between runs. *feedcache.Cache satisfies
// it.
type Store interface {
	Get(ctx context.Context, key string) (feedcache.Entry, bool, error)
	Put(ctx context.Context, entry feedcache.Entry) error
	Touch(ctx context.Context, key string) error
	Lock(ctx context.Context) (func() error, error)
}

var _ Store = (*feedcache.Cache)(nil)

// RefreshStatus describes where the last catalog came from.
type RefreshStatus string

const (
	StatusDownloaded  RefreshStatus = "downloaded"
	StatusNotModified RefreshStatus = "not_modified"
	StatusCached      RefreshStatus = "cached"
	StatusStale       RefreshStatus = "stale"
)

// RefreshResult summarizes a Load call.
type RefreshResult struct {
	Status RefreshStatus
	Games  int
	Bytes  int
	ETag   string
}

// Client fetches the feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	store      Store
	maxAge     time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithStore enables persistent caching.
func WithStore(store Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithMaxAge sets how long a cached body is used without revalidation.
func WithMaxAge(maxAge time.Duration) Option {
	return func(c *Client) {
		if maxAge >= 0 {
			c.maxAge = maxAge
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a feed client.
func New(feedURL string, opts ...Option) (*Client, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, errors.New("vpsdb feed url required")
	}
	client := &Client{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxAge:     24 * time.Hour,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "vpsdb")
	return client, nil
}

// Load returns the catalog, downloading or revalidating the feed when the
// cached copy is older than the max age or force is set. When the network
// fails and a cached copy exists, the stale copy is returned.
func (c *Client) Load(ctx context.Context, force bool) (*Catalog, RefreshResult, error) {
	body, result, err := c.fetch(ctx, force)
	if err != nil {
		return nil, result, err
	}
	var games []Game
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, result, fmt.Errorf("decode vpsdb feed: %w", err)
	}
	result.Games = len(games)
	result.Bytes = len(body)
	return NewCatalog(games), result, nil
}

func (c *Client) fetch(ctx context.Context, force bool) ([]byte, RefreshResult, error) {
	var (
		cached    feedcache.Entry
		hasCached bool
	)
	if c.store != nil {
		unlock, err := c.store.Lock(ctx)
		if err != nil {
			return nil, RefreshResult{}, err
		}
		defer func() { _ = unlock() }()

		cached, hasCached, err = c.store.Get(ctx, cacheKey)
		if err != nil {
			logging.WarnWithContext(c.logger, "feed cache read failed", "vpsdb_cache_read_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'vpxmerge feed clear' if the cache is corrupt"),
				logging.String(logging.FieldImpact, "feed will be downloaded again"))
			hasCached = false
		}
		if hasCached && !force && cached.Age(time.Now()) < c.maxAge {
			return cached.Body, RefreshResult{Status: StatusCached, ETag: cached.ETag}, nil
		}
	}

	etag := ""
	if hasCached {
		etag = cached.ETag
	}
	body, newETag, notModified, err := c.download(ctx, etag)
	if err != nil {
		if hasCached {
			logging.WarnWithContext(c.logger, "feed download failed; using cached copy", "vpsdb_download_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check network access to the feed url"),
				logging.String(logging.FieldImpact, "metadata may be out of date"))
			return cached.Body, RefreshResult{Status: StatusStale, ETag: cached.ETag}, nil
		}
		return nil, RefreshResult{}, err
	}

	if notModified && hasCached {
		if c.store != nil {
			if err := c.store.Touch(ctx, cacheKey); err != nil {
				return nil, RefreshResult{}, err
			}
		}
		c.logger.Debug("feed not modified", logging.String("etag", cached.ETag))
		return cached.Body, RefreshResult{Status: StatusNotModified, ETag: cached.ETag}, nil
	}

	if c.store != nil {
		if err := c.store.Put(ctx, feedcache.Entry{Key: cacheKey, ETag: newETag, Body: body}); err != nil {
			return nil, RefreshResult{}, err
		}
	}
	c.logger.Debug("feed downloaded", logging.Int("bytes", len(body)), logging.String("etag", newETag))
	return body, RefreshResult{Status: StatusDownloaded, ETag: newETag}, nil
}

func (c *Client) download(ctx context.Context, etag string) ([]byte, string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, "", false, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return nil, etag, true, nil
	case http.StatusOK:
	default:
		return nil, "", false, fmt.Errorf("vpsdb feed returned %d (latency=%v)", resp.StatusCode, latency)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, "", false, fmt.Errorf("read vpsdb feed: %w", err)
	}
	return body, resp.Header.Get("ETag"), false, nil
}
