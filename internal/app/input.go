// ABOUTME: Input resolution for the player and command line tools
// ABOUTME: Loads Robot bytes from a path, an s3:// URI, or a resource id
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scummtools/robot-go/internal/storage"
)

// LoadInput returns the bytes of ref and a display name. Numeric refs
// go through src when it is set.
func LoadInput(ctx context.Context, ref string, src *storage.ResourceSource, s3cfg storage.S3Config) ([]byte, string, error) {
	if ref == "" {
		return nil, "", fmt.Errorf("no input given")
	}

	if src != nil {
		if _, err := os.Stat(ref); os.IsNotExist(err) {
			if id, ok := storage.ParseResourceID(ref); ok {
				data, err := src.Load(ctx, id)
				if err != nil {
					return nil, "", fmt.Errorf("failed to load resource %d: %w", id, err)
				}
				return data, strconv.Itoa(id) + ".rbt", nil
			}
		}
	}

	loc, err := storage.ParseLocation(ref, s3cfg)
	if err != nil {
		return nil, "", err
	}
	data, err := storage.ReadFile(ctx, loc.Store, loc.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, filepath.Base(loc.Path), nil
}
