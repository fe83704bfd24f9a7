package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Downloader triggers retrieval of a single finished archive file. The
// fulfiller fires these without waiting; implementations report errors for
// logging only.
type Downloader interface {
	Trigger(ctx context.Context, fileURL string) error
}

// FileDownloader fetches archive files into a local directory.
type FileDownloader struct {
	dir        string
	httpClient *http.Client
}

var _ Downloader = (*FileDownloader)(nil)

// NewFileDownloader creates a downloader that writes into dir.
func NewFileDownloader(dir string) (*FileDownloader, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("download directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}
	return &FileDownloader{
		dir:        dir,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

// Trigger downloads one file URL into the configured directory. The file name
// is taken from the URL path; collisions overwrite, matching the behavior of
// repeated downloads of the same archive.
func (d *FileDownloader) Trigger(ctx context.Context, fileURL string) error {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return fmt.Errorf("parse file url: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("file url %q has no usable name", fileURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %q: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %q returned %d", fileURL, resp.StatusCode)
	}

	target := filepath.Join(d.dir, name)
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %q: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %q: %w", target, err)
	}
	return nil
}
