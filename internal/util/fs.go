package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir makes the PDF storage directory on startup.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin builds a path under root that cannot escape it, regardless of
// what name contains.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}
