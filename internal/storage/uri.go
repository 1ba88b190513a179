// ABOUTME: Location parsing for command line inputs and outputs
// ABOUTME: Splits s3://bucket/key and local paths into a store and a path
package storage

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Location is a parsed input or output reference
type Location struct {
	Store FileStore
	Path  string
}

// ParseLocation opens the store for a local path, an s3:// URI or an
// http(s) URL. Local paths are rooted at their directory.
func ParseLocation(ref string, s3cfg S3Config) (*Location, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("storage: invalid URL %q: %w", ref, err)
		}
		name := path.Base(u.Path)
		if name == "/" || name == "." {
			return nil, fmt.Errorf("storage: URL %q names no file", ref)
		}
		u.Path = path.Dir(u.Path)
		q := ""
		if u.RawQuery != "" {
			q = "?" + u.RawQuery
		}
		u.RawQuery = ""
		store, err := NewHTTP(u.String(), DefaultDownloadDir())
		if err != nil {
			return nil, err
		}
		return &Location{Store: store, Path: name + q}, nil
	}

	if strings.HasPrefix(ref, "s3://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("storage: invalid URI %q: %w", ref, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("storage: URI %q needs a bucket and key", ref)
		}
		cfg := s3cfg
		cfg.Bucket = u.Host
		cfg.Prefix = path.Dir(key)
		if cfg.Prefix == "." {
			cfg.Prefix = ""
		}
		store, err := NewS3FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return &Location{Store: store, Path: path.Base(key)}, nil
	}

	dir, name := filepath.Split(ref)
	if dir == "" {
		dir = "."
	}
	if name == "" {
		return nil, fmt.Errorf("storage: %q is a directory", ref)
	}
	store, err := NewLocal(dir)
	if err != nil {
		return nil, err
	}
	return &Location{Store: store, Path: name}, nil
}
