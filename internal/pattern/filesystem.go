package pattern

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem is the read-only view the resolver uses to load referenced
// pattern files.
type FileSystem interface {
	// Exists reports whether name can be found. It must not read the file.
	Exists(name string) bool

	// ReadFile returns the full content of name.
	ReadFile(name string) ([]byte, error)
}

// OSFileSystem resolves relative names against Base on the host filesystem.
// Absolute names are used as-is.
type OSFileSystem struct {
	Base string
}

// Exists reports whether name exists under Base.
func (o OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(o.path(name))
	return err == nil
}

// ReadFile reads name relative to Base.
func (o OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(o.path(name))
}

func (o OSFileSystem) path(name string) string {
	if filepath.IsAbs(name) || o.Base == "" {
		return name
	}
	return filepath.Join(o.Base, name)
}

// FromFS adapts an fs.FS (os.DirFS, fstest.MapFS, embed.FS) to FileSystem.
func FromFS(fsys fs.FS) FileSystem {
	return fsFileSystem{fsys: fsys}
}

type fsFileSystem struct {
	fsys fs.FS
}

func (f fsFileSystem) Exists(name string) bool {
	_, err := fs.Stat(f.fsys, cleanFSName(name))
	return err == nil
}

func (f fsFileSystem) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(f.fsys, cleanFSName(name))
}

// cleanFSName turns a user supplied name into a valid fs.FS path.
func cleanFSName(name string) string {
	cleaned := path.Clean(filepath.ToSlash(name))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" {
		return "."
	}
	return cleaned
}
