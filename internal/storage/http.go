// ABOUTME: Read-only FileStore over HTTP with an on-disk download cache
// ABOUTME: Fetches Robot files from web servers and reuses earlier downloads
package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrReadOnly is returned when writing to a read-only store
var ErrReadOnly = errors.New("storage: store is read-only")

// HTTP reads files below a base URL
type HTTP struct {
	base     string
	cacheDir string
	client   *http.Client
}

// NewHTTP creates a store for base. Downloads are kept in cacheDir when
// it is not empty.
func NewHTTP(base, cacheDir string) (*HTTP, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create download cache: %w", err)
		}
	}
	return &HTTP{
		base:     strings.TrimSuffix(base, "/"),
		cacheDir: cacheDir,
		client:   &http.Client{},
	}, nil
}

// DefaultDownloadDir is the download cache used for http inputs
func DefaultDownloadDir() string {
	return filepath.Join(os.TempDir(), "robot-go-downloads")
}

func (h *HTTP) url(p string) string {
	return h.base + "/" + strings.TrimPrefix(p, "/")
}

// cachePath names a download by the hash of its URL
func (h *HTTP) cachePath(u string) string {
	hash := sha256.Sum256([]byte(u))
	return filepath.Join(h.cacheDir, fmt.Sprintf("%x%s", hash[:8], extension(u)))
}

// Read downloads the file, or opens the cached copy
func (h *HTTP) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	u := h.url(p)

	if h.cacheDir != "" {
		if f, err := os.Open(h.cachePath(u)); err == nil {
			log.Printf("Download cache hit: %s", u)
			return f, nil
		}
	}

	log.Printf("Downloading %s", u)
	resp, err := h.get(ctx, http.MethodGet, u)
	if err != nil {
		return nil, err
	}
	if h.cacheDir == "" {
		return resp.Body, nil
	}
	defer resp.Body.Close()

	cachePath := h.cachePath(u)
	f, err := os.Create(cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(cachePath)
		return nil, fmt.Errorf("failed to download %s: %w", u, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (h *HTTP) get(ctx context.Context, method, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", u, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", u, os.ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("download of %s failed: HTTP %d", u, resp.StatusCode)
	}
	return resp, nil
}

// Write is not supported
func (h *HTTP) Write(context.Context, string) (io.WriteCloser, error) {
	return nil, ErrReadOnly
}

// Delete removes the cached copy only
func (h *HTTP) Delete(_ context.Context, p string) error {
	if h.cacheDir == "" {
		return nil
	}
	err := os.Remove(h.cachePath(h.url(p)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Exists issues a HEAD request
func (h *HTTP) Exists(ctx context.Context, p string) (bool, error) {
	resp, err := h.get(ctx, http.MethodHead, h.url(p))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return true, nil
}

// extension returns the file extension of a URL path
func extension(u string) string {
	u, _, _ = strings.Cut(u, "?")
	return path.Ext(u)
}
