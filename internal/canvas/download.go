// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package canvas

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/deadline-tracker/internal/httputil"
)

// DefaultDownloadDir is where course files are cached between runs.
const DefaultDownloadDir = "downloaded_materials"

// LocalPath returns where a course file is cached:
// downloadDir/<course name with "/" replaced>/<filename>.
func LocalPath(downloadDir, courseName, filename string) string {
	if downloadDir == "" {
		downloadDir = DefaultDownloadDir
	}
	course := strings.ReplaceAll(courseName, "/", "_")
	return filepath.Join(downloadDir, course, filepath.Base(filename))
}

// Download fetches fileURL into dest. It writes to a temporary file first
// so a failed transfer never leaves a partial file that a later run would
// treat as cached.
func (c *Client) Download(ctx context.Context, fileURL, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dest, err)
	}

	req, err := c.newRequest(ctx, fileURL)
	if err != nil {
		return err
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.retries)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", filepath.Base(dest), err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return fmt.Errorf("downloading %s: %w", filepath.Base(dest), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(dest), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filepath.Base(dest), err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("moving %s into place: %w", filepath.Base(dest), err)
	}
	return nil
}
