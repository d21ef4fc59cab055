package fileutil

import (
	"path/filepath"
	"strings"
)

// VCSDir is the version-control internal directory. Nothing at or below it is
// ever recorded, whatever the patterns say.
const VCSDir = ".git"

// Normalize converts a matcher result into a POSIX path relative to baseDir.
// It returns false for the base directory itself, for paths outside baseDir
// and for anything at or under VCSDir.
func Normalize(rawPath, baseDir string) (string, bool) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", false
	}
	absPath := rawPath
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(absBase, absPath)
	}

	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if IsVCSPath(rel) {
		return "", false
	}
	return rel, true
}

// IsVCSPath reports whether a slash-separated relative path is VCSDir or lies under it.
func IsVCSPath(rel string) bool {
	return rel == VCSDir || strings.HasPrefix(rel, VCSDir+"/")
}
