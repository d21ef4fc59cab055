package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harrison/filesnap/internal/filelock"
)

// Destination resolves the configured manifest path against root. Leading
// path separators are stripped first, so "/out/manifest.json" is written to
// <root>/out/manifest.json rather than to the filesystem root.
func Destination(root, configured string) string {
	rel := strings.TrimLeft(configured, `/\`)
	return filepath.Join(root, filepath.FromSlash(rel))
}

// Write fully overwrites the destination with data. The document must be
// complete before calling; the write itself is atomic. Returns the path
// written.
func Write(root, configured string, data []byte) (string, error) {
	if strings.TrimLeft(configured, `/\`) == "" {
		return "", fmt.Errorf("manifest path %q is empty after stripping leading separators", configured)
	}
	dest := Destination(root, configured)
	if err := filelock.LockAndWrite(dest, data); err != nil {
		return "", fmt.Errorf("failed to write manifest to %s: %w", dest, err)
	}
	return dest, nil
}
