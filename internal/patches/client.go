package patches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"

	"vpxmerge/internal/logging"
)

// DefaultRepository hosts the community standalone script patches.
const DefaultRepository = "jsm174/vpx-standalone-scripts"

const (
	defaultRef       = "master"
	defaultCacheSize = 256
	defaultTimeout   = 30 * time.Second
)

// ErrRateLimited is returned when the GitHub API refuses further requests.
var ErrRateLimited = errors.New("github api rate limit exceeded")

// Entry is one item of a repository directory listing.
type Entry struct {
	Name        string
	Path        string
	Type        string
	DownloadURL string
	Size        int
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Type == "dir" }

// Client talks to the patch repository.
type Client struct {
	gh            *github.Client
	httpClient    *http.Client
	owner         string
	repo          string
	ref           string
	apiURL        string
	token         string
	timeout       time.Duration
	cacheSize     int
	maxScript     int64
	listings      *lru.Cache[string, []Entry]
	logger        *slog.Logger
	authenticated bool
}

// Option configures a Client.
type Option func(*Client)

// WithRef selects the branch or tag to read.
func WithRef(ref string) Option {
	return func(c *Client) {
		if ref = strings.TrimSpace(ref); ref != "" {
			c.ref = ref
		}
	}
}

// WithToken authenticates API and download requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithAPIURL points the client at a different API root.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimSpace(apiURL)
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithListingCacheSize sets how many directory listings are kept in memory.
func WithListingCacheSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.cacheSize = size
		}
	}
}

// WithMaxScriptSize bounds a downloaded script in bytes.
func WithMaxScriptSize(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxScript = limit
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

// New creates a client for repository in owner/name form.
func New(repository string, opts ...Option) (*Client, error) {
	owner, repo, ok := strings.Cut(strings.Trim(strings.TrimSpace(repository), "/"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("patch repository must be owner/name, got %q", repository)
	}
	c := &Client{
		owner:     owner,
		repo:      repo,
		ref:       defaultRef,
		timeout:   defaultTimeout,
		cacheSize: defaultCacheSize,
		maxScript: maxPatchBytes,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "patches")

	if c.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		c.httpClient = oauth2.NewClient(context.Background(), ts)
		c.authenticated = true
	} else {
		c.httpClient = &http.Client{}
	}
	c.httpClient.Timeout = c.timeout

	c.gh = github.NewClient(c.httpClient)
	if c.apiURL != "" {
		base, err := url.Parse(c.apiURL)
		if err != nil {
			return nil, fmt.Errorf("parse api url: %w", err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		c.gh.BaseURL = base
	}

	listings, err := lru.New[string, []Entry](c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create listing cache: %w", err)
	}
	c.listings = listings
	return c, nil
}

// Repository returns "owner/name".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// Folders returns the top-level directories of the repository.
func (c *Client) Folders(ctx context.Context) ([]Entry, error) {
	entries, err := c.list(ctx, "")
	if err != nil {
		return nil, err
	}
	folders := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry)
		}
	}
	return folders, nil
}

// list returns the listing of dir, consulting the in-memory cache first.
func (c *Client) list(ctx context.Context, dir string) ([]Entry, error) {
	if cached, ok := c.listings.Get(dir); ok {
		return cached, nil
	}
	_, contents, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, dir, &github.RepositoryContentGetOptions{Ref: c.ref})
	if err != nil {
		return nil, c.wrapError(err, "list "+c.displayPath(dir))
	}
	entries := make([]Entry, 0, len(contents))
	for _, content := range contents {
		if content == nil {
			continue
		}
		entries = append(entries, Entry{
			Name:        content.GetName(),
			Path:        content.GetPath(),
			Type:        content.GetType(),
			DownloadURL: content.GetDownloadURL(),
			Size:        content.GetSize(),
		})
	}
	c.listings.Add(dir, entries)
	c.logger.Debug("listed patch directory",
		logging.String("dir", dir),
		logging.Int("entries", len(entries)),
	)
	return entries, nil
}

func (c *Client) wrapError(err error, action string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		hint := "set GITHUB_TOKEN to raise the limit"
		if c.authenticated {
			hint = "wait for the limit to reset"
		}
		return fmt.Errorf("%w (resets %s; %s): %v", ErrRateLimited, rateErr.Rate.Reset.Time.Format(time.RFC3339), hint, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func (c *Client) displayPath(dir string) string {
	if dir == "" {
		return c.Repository()
	}
	return c.Repository() + "/" + dir
}

// Status describes repository reachability and the remaining API quota.
type Status struct {
	Repository    string
	DefaultBranch string
	Authenticated bool
	Remaining     int
	Limit         int
	Reset         time.Time
}

// Status fetches the repository metadata, which also reports the current
// rate limit.
func (c *Client) Status(ctx context.Context) (Status, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return Status{}, c.wrapError(err, "get "+c.Repository())
	}
	status := Status{
		Repository:    repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		Authenticated: c.authenticated,
	}
	if status.Repository == "" {
		status.Repository = c.Repository()
	}
	if resp != nil {
		status.Remaining = resp.Rate.Remaining
		status.Limit = resp.Rate.Limit
		status.Reset = resp.Rate.Reset.Time
	}
	return status, nil
}
