// Package filex resolves on-disk locations used by the client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppDirName is the directory created under the user's config directory.
const AppDirName = "bookshelf"

// EnsureDir creates base/name (owner-only) if missing and returns its path.
// An empty base means os.UserConfigDir.
func EnsureDir(base, name string) (string, error) {
	if base == "" {
		d, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("user config dir: %w", err)
		}
		base = d
	}

	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN for the file at path with a busy
// timeout, so concurrent CLI processes wait instead of failing on a locked db.
func SQLiteDSN(path string) string {
	return "file:" + filepath.ToSlash(path) + "?_pragma=busy_timeout(5000)"
}
