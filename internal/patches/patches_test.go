package patches

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type repoServer struct {
	*httptest.Server
	rootListings atomic.Int32
	lastAuth     atomic.Value
}

func newRepoServer(t *testing.T) *repoServer {
	t.Helper()
	rs := &repoServer{}
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/repos/owner/scripts/contents/", func(w http.ResponseWriter, r *http.Request) {
		rs.lastAuth.Store(r.Header.Get("Authorization"))
		if r.URL.Query().Get("ref") != "main" {
			http.Error(w, "unexpected ref", http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/repos/owner/scripts/contents/":
			rs.rootListings.Add(1)
			writeJSON(w, []map[string]any{
				{"name": "Attack from Mars (Bally 1995)", "path": "Attack from Mars (Bally 1995)", "type": "dir"},
				{"name": "Medieval Madness (Williams 1997)", "path": "Medieval Madness (Williams 1997)", "type": "dir"},
				{"name": "README.md", "path": "README.md", "type": "file"},
			})
		case "/repos/owner/scripts/contents/Medieval Madness (Williams 1997)":
			dir := "Medieval Madness (Williams 1997)/"
			writeJSON(w, []map[string]any{
				{"name": "Medieval Madness.vbs.original", "path": dir + "Medieval Madness.vbs.original", "type": "file"},
				{"name": "patch:Medieval Madness.vbs", "path": dir + "patch:Medieval Madness.vbs", "type": "file"},
				{"name": "Medieval Madness.vbs", "path": dir + "Medieval Madness.vbs", "type": "file", "size": 12,
					"download_url": rs.URL + "/raw/mm.vbs"},
			})
		case "/repos/owner/scripts/contents/Attack from Mars (Bally 1995)":
			writeJSON(w, []map[string]any{
				{"name": "readme.txt", "path": "Attack from Mars (Bally 1995)/readme.txt", "type": "file"},
			})
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/repos/owner/scripts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		writeJSON(w, map[string]any{"full_name": "owner/scripts", "default_branch": "main"})
	})
	mux.HandleFunc("/raw/mm.vbs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("patched\r\nEOF"))
	})
	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func newTestClient(t *testing.T, rs *repoServer, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithAPIURL(rs.URL), WithRef("main")}, opts...)
	client, err := New("owner/scripts", opts...)
	require.NoError(t, err)
	return client
}

func TestNewValidatesRepository(t *testing.T) {
	for _, repo := range []string{"", "owner", "owner/", "/name", "a/b/c"} {
		_, err := New(repo)
		require.Error(t, err, repo)
	}
	client, err := New(" jsm174/vpx-standalone-scripts/ ")
	require.NoError(t, err)
	require.Equal(t, DefaultRepository, client.Repository())
}

func TestFoldersFiltersDirectories(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs)

	folders, err := client.Folders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 2)
	require.Equal(t, "Attack from Mars (Bally 1995)", folders[0].Name)
}

func TestFindSelectsFolderAndScript(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs)

	patch, ok, err := client.Find(context.Background(), "JP's Medieval Madness Remastered")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Medieval Madness (Williams 1997)", patch.Folder)
	require.Equal(t, "Medieval Madness.vbs", patch.Name)
	require.Equal(t, 12, patch.Size)
	require.GreaterOrEqual(t, patch.Match.Score, FolderThreshold)

	_, _, err = client.Find(context.Background(), "Medieval Madness")
	require.NoError(t, err)
	require.EqualValues(t, 1, rs.rootListings.Load(), "root listing should be cached")
}

func TestFindReportsMissingFolderAndScript(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs)

	_, ok, err := client.Find(context.Background(), "Twilight Zone")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = client.Find(context.Background(), "Attack from Mars")
	require.NoError(t, err)
	require.False(t, ok, "folder without a .vbs has no patch")
}

func TestDownloadWritesAtomically(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs)

	patch, ok, err := client.Find(context.Background(), "Medieval Madness")
	require.NoError(t, err)
	require.True(t, ok)

	dst := filepath.Join(t.TempDir(), "out", "Medieval Madness.vbs")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	written, backup, err := client.DownloadWithBackup(context.Background(), patch, dst)
	require.NoError(t, err)
	require.EqualValues(t, len("patched\r\nEOF"), written)
	require.Equal(t, dst+".bak", backup)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "patched\r\nEOF", string(got))
	old, err := os.ReadFile(backup)
	require.NoError(t, err)
	require.Equal(t, "old", string(old))
}

func TestDownloadFailsAboveSizeLimit(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs, WithMaxScriptSize(4))

	patch, ok, err := client.Find(context.Background(), "Medieval Madness")
	require.NoError(t, err)
	require.True(t, ok)

	dst := filepath.Join(t.TempDir(), "Medieval Madness.vbs")
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	_, err = client.Download(context.Background(), patch, dst)
	require.ErrorIs(t, err, ErrScriptTooLarge)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "old", string(got), "oversized download must not replace the script")
}

func TestCappedReaderStopsStreamingBodies(t *testing.T) {
	r := &cappedReader{r: strings.NewReader("0123456789"), remaining: 4}
	_, err := io.ReadAll(r)
	require.ErrorIs(t, err, ErrScriptTooLarge)

	r = &cappedReader{r: strings.NewReader("0123"), remaining: 4}
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "0123", string(data))
}

func TestDownloadRejectsMissingURL(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs)
	_, err := client.Download(context.Background(), Patch{Name: "x.vbs"}, filepath.Join(t.TempDir(), "x.vbs"))
	require.ErrorContains(t, err, "no download url")
}

func TestTokenIsSent(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs, WithToken("secret"))

	_, err := client.Folders(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", rs.lastAuth.Load())
}

func TestRateLimitIsWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	defer server.Close()

	client, err := New("owner/scripts", WithAPIURL(server.URL))
	require.NoError(t, err)
	_, err = client.Folders(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	require.ErrorContains(t, err, "GITHUB_TOKEN")
}

func TestSelectScript(t *testing.T) {
	entries := []Entry{
		{Name: "sub", Type: "dir"},
		{Name: "Table.VBS.original", Type: "file"},
		{Name: "patch:Table.vbs", Type: "file"},
		{Name: "Table.original.vbs", Type: "file"},
		{Name: "Table.VBS", Type: "file"},
		{Name: "Other.vbs", Type: "file"},
	}
	script, ok := SelectScript(entries)
	require.True(t, ok)
	require.Equal(t, "Table.VBS", script.Name)

	_, ok = SelectScript(entries[:4])
	require.False(t, ok)
}

func TestSelectFolderUsesTokenOverlap(t *testing.T) {
	folders := []Entry{
		{Name: "Theatre of Magic (Bally 1995)", Type: "dir"},
		{Name: "Tales of the Arabian Nights (Williams 1996)", Type: "dir"},
	}
	folder, match, ok := SelectFolder("Arabian Nights Tales", folders)
	require.True(t, ok)
	require.Equal(t, "Tales of the Arabian Nights (Williams 1996)", folder.Name)
	require.Equal(t, "token_overlap", string(match.Stage))

	_, _, ok = SelectFolder("Black Magic Woman", folders)
	require.False(t, ok, "a single shared token is below threshold")
}

func TestStatusReportsQuota(t *testing.T) {
	rs := newRepoServer(t)
	client := newTestClient(t, rs)

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, "owner/scripts", status.Repository)
	require.Equal(t, "main", status.DefaultBranch)
	require.False(t, status.Authenticated)
	require.Equal(t, 42, status.Remaining)
	require.Equal(t, 60, status.Limit)
	require.Equal(t, int64(1700000000), status.Reset.Unix())
}
