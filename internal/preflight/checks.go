package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"vpxmerge/internal/patches"
)

const (
	feedCheck            = "Metadata feed"
	patchRepositoryCheck = "Patch repository"
)

// CheckReadableDirectory verifies that the directory exists and can be
// listed.
func CheckReadableDirectory(name, path string) Result {
	if res, ok := checkIsDirectory(name, path); !ok {
		return res
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckWritableDirectory verifies that the directory is writable. A missing
// directory passes when its nearest existing parent is writable, since it is
// created on first use.
func CheckWritableDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		parent := existingParent(path)
		if parent == "" {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: parent %s not writable: %v)", path, parent, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	if res, ok := checkIsDirectory(name, path); !ok {
		return res
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func checkIsDirectory(name, path string) (Result, bool) {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}, false
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}, false
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}, false
	}
	return Result{}, true
}

func existingParent(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	for {
		if info, err := os.Stat(dir); err == nil {
			if info.IsDir() {
				return dir
			}
			return ""
		}
		next := filepath.Dir(dir)
		if next == dir {
			return ""
		}
		dir = next
	}
}

// CheckFeed verifies that the metadata feed answers a HEAD request.
func CheckFeed(ctx context.Context, feedURL string) Result {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return Result{Name: feedCheck, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, feedURL, nil)
	if err != nil {
		return Result{Name: feedCheck, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := (&http.Client{Timeout: checkTimeout}).Do(req)
	if err != nil {
		return Result{Name: feedCheck, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return Result{Name: feedCheck, Passed: true, Detail: "Reachable"}
	case resp.StatusCode == http.StatusMethodNotAllowed:
		return Result{Name: feedCheck, Passed: true, Detail: "Reachable (HEAD not allowed)"}
	default:
		return Result{Name: feedCheck, Detail: fmt.Sprintf("unexpected status (%d)", resp.StatusCode)}
	}
}

// RepositoryStatuser reports patch repository status. *patches.Client
// satisfies it.
type RepositoryStatuser interface {
	Status(ctx context.Context) (patches.Status, error)
}

// CheckPatchRepository verifies that the patch repository is reachable and
// reports the remaining API quota.
func CheckPatchRepository(ctx context.Context, client RepositoryStatuser) Result {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status, err := client.Status(checkCtx)
	if err != nil {
		if errors.Is(err, patches.ErrRateLimited) {
			return Result{Name: patchRepositoryCheck, Detail: "rate limited (set GITHUB_TOKEN)"}
		}
		return Result{Name: patchRepositoryCheck, Detail: summarizeNetError(err)}
	}
	auth := "anonymous"
	if status.Authenticated {
		auth = "token"
	}
	detail := fmt.Sprintf("%s reachable (%s, %d/%d requests left)", status.Repository, auth, status.Remaining, status.Limit)
	if status.Limit > 0 && status.Remaining == 0 {
		return Result{Name: patchRepositoryCheck, Detail: detail + ", resets " + status.Reset.Format(time.Kitchen)}
	}
	return Result{Name: patchRepositoryCheck, Passed: true, Detail: detail}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
