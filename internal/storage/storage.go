// ABOUTME: FileStore abstraction for Robot inputs and exports
// ABOUTME: Resolves resource ids to files and reads or writes whole objects
package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FileStore is a minimal interface for file-oriented storage.
// Paths are forward-slash separated and relative to the store root.
type FileStore interface {
	// Read opens the named file. A missing file wraps os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write truncates or creates the named file. Close completes the write.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file; a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// ReadFile reads a whole file from the store
func ReadFile(ctx context.Context, fs FileStore, path string) ([]byte, error) {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile streams fn's output into the named file
func WriteFile(ctx context.Context, fs FileStore, path string, fn func(io.Writer) error) error {
	w, err := fs.Write(ctx, path)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

// ResourceSource maps numeric resource ids to Robot files in a store
type ResourceSource struct {
	store FileStore
	dir   string
}

// NewResourceSource creates a source reading <dir>/<id>.rbt
func NewResourceSource(store FileStore, dir string) *ResourceSource {
	return &ResourceSource{store: store, dir: strings.Trim(dir, "/")}
}

// Path returns the store path of a resource id
func (s *ResourceSource) Path(id int) string {
	name := strconv.Itoa(id) + ".rbt"
	if s.dir == "" {
		return name
	}
	return s.dir + "/" + name
}

// Load returns the bytes of resource id
func (s *ResourceSource) Load(ctx context.Context, id int) ([]byte, error) {
	if id < 0 {
		return nil, fmt.Errorf("storage: invalid resource id %d", id)
	}
	return ReadFile(ctx, s.store, s.Path(id))
}

// ParseResourceID accepts "1002" or "1002.rbt"
func ParseResourceID(name string) (int, bool) {
	base := strings.TrimSuffix(strings.ToLower(name), ".rbt")
	id, err := strconv.Atoi(base)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
