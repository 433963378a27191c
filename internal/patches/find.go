package patches

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"vpxmerge/internal/fileutil"
	"vpxmerge/internal/identification"
	"vpxmerge/internal/logging"
)

// FolderThreshold is the minimum token overlap for a folder to match.
const FolderThreshold = 0.5

// maxPatchBytes bounds a downloaded script.
const maxPatchBytes = 32 << 20

// ErrScriptTooLarge is returned when a download exceeds the size limit.
var ErrScriptTooLarge = errors.New("patch script exceeds size limit")

// Patch is a script selected for a table.
type Patch struct {
	Folder      string                     `json:"folder"`
	Name        string                     `json:"name"`
	Path        string                     `json:"path"`
	DownloadURL string                     `json:"download_url,omitempty"`
	Size        int                        `json:"size"`
	Match       identification.MatchResult `json:"match"`
}

// Find selects the folder matching tableName and the script inside it. The
// boolean is false when no folder matches or the folder has no usable script.
func (c *Client) Find(ctx context.Context, tableName string) (Patch, bool, error) {
	folders, err := c.Folders(ctx)
	if err != nil {
		return Patch{}, false, err
	}
	folder, match, ok := SelectFolder(tableName, folders)
	if !ok {
		c.logger.Debug("no patch folder matched", logging.String(logging.FieldTable, tableName))
		return Patch{}, false, nil
	}
	entries, err := c.list(ctx, folder.Path)
	if err != nil {
		return Patch{}, false, err
	}
	script, ok := SelectScript(entries)
	if !ok {
		c.logger.Debug("patch folder has no script",
			logging.String(logging.FieldTable, tableName),
			logging.String("folder", folder.Name),
		)
		return Patch{}, false, nil
	}
	return Patch{
		Folder:      folder.Name,
		Name:        script.Name,
		Path:        script.Path,
		DownloadURL: script.DownloadURL,
		Size:        script.Size,
		Match:       match,
	}, true, nil
}

// SelectFolder resolves tableName against the folder names using token
// overlap only.
func SelectFolder(tableName string, folders []Entry) (Entry, identification.MatchResult, bool) {
	var builder identification.IndexBuilder
	byName := make(map[string]Entry, len(folders))
	for _, folder := range folders {
		if !folder.IsDir() || folder.Name == "" {
			continue
		}
		if _, dup := byName[folder.Name]; dup {
			continue
		}
		byName[folder.Name] = folder
		builder.AddName(folder.Name, folder.Name)
		if title := identification.ParseIdentity(folder.Name).Title; title != folder.Name {
			builder.AddName(folder.Name, title)
		}
	}
	resolver := identification.NewResolver(FolderThreshold)
	match, ok := resolver.ResolveTokenOverlap(identification.Candidates(tableName), builder.Build())
	if !ok {
		return Entry{}, identification.MatchResult{}, false
	}
	return byName[match.ReferenceID], match, true
}

// SelectScript returns the first .vbs file that is neither an
// "<name>.original.vbs" copy nor a "patch:" descriptor. Backups named
// "<name>.vbs.original" never carry the .vbs suffix.
func SelectScript(entries []Entry) (Entry, bool) {
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}
		name := entry.Name
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".vbs") {
			continue
		}
		if strings.HasSuffix(strings.TrimSuffix(lower, ".vbs"), ".original") || strings.HasPrefix(lower, "patch:") {
			continue
		}
		return entry, true
	}
	return Entry{}, false
}

// Download fetches the patch script and writes it atomically to dst,
// returning the number of bytes written.
func (c *Client) Download(ctx context.Context, patch Patch, dst string) (int64, error) {
	if strings.TrimSpace(patch.DownloadURL) == "" {
		return 0, fmt.Errorf("patch %s has no download url", patch.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, patch.DownloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", patch.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: unexpected status %d", patch.Name, resp.StatusCode)
	}
	if resp.ContentLength > c.maxScript {
		return 0, fmt.Errorf("download %s: %w (%d bytes)", patch.Name, ErrScriptTooLarge, resp.ContentLength)
	}
	body := &cappedReader{r: resp.Body, remaining: c.maxScript}
	written, err := fileutil.WriteAtomic(dst, body, 0o644)
	if err != nil {
		if errors.Is(err, ErrScriptTooLarge) {
			return 0, fmt.Errorf("download %s: %w (limit %d bytes)", patch.Name, ErrScriptTooLarge, c.maxScript)
		}
		return 0, fmt.Errorf("write %s: %w", dst, err)
	}
	c.logger.Debug("patch downloaded",
		logging.String("patch", patch.Name),
		logging.String("dst_path", dst),
		logging.Int64("script_bytes", written),
	)
	return written, nil
}

// DownloadWithBackup preserves an existing dst as dst.bak before writing.
func (c *Client) DownloadWithBackup(ctx context.Context, patch Patch, dst string) (int64, string, error) {
	backup, err := fileutil.BackupFile(dst)
	if err != nil {
		return 0, "", err
	}
	written, err := c.Download(ctx, patch, dst)
	return written, backup, err
}

// cappedReader fails once more than remaining bytes have been read, so an
// oversized body never replaces the destination.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, ErrScriptTooLarge
	}
	return n, err
}
