package fileutil

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobOptions configures which entries a Globber reports
type GlobOptions struct {
	// MatchDirectories reports matching directories as well as files
	MatchDirectories bool
	// FollowSymbolicLinks descends into symlinked directories and reports
	// symlinked files; otherwise symlinks are skipped
	FollowSymbolicLinks bool
}

// DefaultGlobOptions returns the options used for manifest discovery
func DefaultGlobOptions() GlobOptions {
	return GlobOptions{
		MatchDirectories:    false,
		FollowSymbolicLinks: true,
	}
}

// rule is one parsed line of matcher input
type rule struct {
	glob    string // doublestar pattern relative to the root
	exclude bool
}

// matches reports whether the rule accepts rel or any of its parent directories.
func (r rule) matches(rel string) bool {
	for p := rel; p != "" && p != "."; p = path.Dir(p) {
		if ok, _ := doublestar.Match(r.glob, p); ok {
			return true
		}
	}
	return false
}

// Globber matches a tree against ordered include/exclude rules.
// Later rules take precedence over earlier ones.
type Globber struct {
	root        string
	rules       []rule
	lastInclude int
	opts        GlobOptions
}

// NewGlobber parses patternText into rules rooted at baseDir.
//
// Each non-blank line not starting with "#" is a rule. Every leading "!"
// toggles exclusion. Leading and trailing "/" are dropped, so "/build/" and
// "build" are the same rule. Absolute patterns under baseDir are made relative.
// Returns an error for malformed glob syntax.
func NewGlobber(baseDir, patternText string, opts GlobOptions) (*Globber, error) {
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", baseDir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path is not a directory: %s", root)
	}

	g := &Globber{root: root, lastInclude: -1, opts: opts}
	for _, raw := range strings.Split(patternText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		exclude := false
		for strings.HasPrefix(line, "!") {
			exclude = !exclude
			line = strings.TrimSpace(line[1:])
		}
		if line == "" {
			continue
		}

		glob := g.relativeGlob(line)
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("invalid pattern %q", raw)
		}
		if !exclude {
			g.lastInclude = len(g.rules)
		}
		g.rules = append(g.rules, rule{glob: glob, exclude: exclude})
	}

	return g, nil
}

// relativeGlob roots a pattern line at the globber root.
func (g *Globber) relativeGlob(line string) string {
	if filepath.IsAbs(line) {
		if rel, err := filepath.Rel(g.root, line); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			line = rel
		}
	}
	glob := filepath.ToSlash(line)
	for strings.HasPrefix(glob, "./") {
		glob = glob[2:]
	}
	glob = strings.Trim(glob, "/")
	if glob == "" || glob == "." {
		return "**"
	}
	return glob
}

// RuleCount returns the number of parsed rules
func (g *Globber) RuleCount() int {
	return len(g.rules)
}

// Match reports whether rel (slash-separated, relative to the root) is selected.
// The last rule that matches decides; a path no rule matches is not selected.
func (g *Globber) Match(rel string) bool {
	included, _ := g.decide(rel)
	return included
}

func (g *Globber) decide(rel string) (included bool, last int) {
	last = -1
	for i, r := range g.rules {
		if r.matches(rel) {
			included = !r.exclude
			last = i
		}
	}
	return included, last
}

// prunable reports whether nothing under dir can ever be selected: the
// deciding rule excludes it and no include rule follows.
func (g *Globber) prunable(dir string) bool {
	included, last := g.decide(dir)
	return !included && last >= 0 && last > g.lastInclude
}

// Glob walks the tree lazily in lexical order. Each selected entry is
// yielded as an absolute path. A traversal error is yielded once and ends the
// sequence. Stopping the range loop early stops the walk.
func (g *Globber) Glob() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ancestors := map[string]struct{}{g.realPath(g.root): {}}
		g.walk(g.root, "", ancestors, yield)
	}
}

// walk visits one directory. It returns false once the walk must stop.
func (g *Globber) walk(dir, rel string, ancestors map[string]struct{}, yield func(string, error) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		yield("", fmt.Errorf("failed to read directory %s: %w", dir, err))
		return false
	}

	for _, entry := range entries {
		childPath := filepath.Join(dir, entry.Name())
		childRel := path.Join(rel, entry.Name())

		isDir := entry.IsDir()
		isFile := entry.Type().IsRegular()
		if entry.Type()&fs.ModeSymlink != 0 {
			if !g.opts.FollowSymbolicLinks {
				continue
			}
			info, err := os.Stat(childPath)
			if err != nil {
				// Dangling link
				continue
			}
			isDir = info.IsDir()
			isFile = info.Mode().IsRegular()
		}

		if isDir {
			if g.prunable(childRel) {
				continue
			}
			real := g.realPath(childPath)
			if _, cycle := ancestors[real]; cycle {
				continue
			}
			if g.opts.MatchDirectories && g.Match(childRel) {
				if !yield(childPath, nil) {
					return false
				}
			}
			ancestors[real] = struct{}{}
			ok := g.walk(childPath, childRel, ancestors, yield)
			delete(ancestors, real)
			if !ok {
				return false
			}
			continue
		}

		if !isFile || !g.Match(childRel) {
			continue
		}
		if !yield(childPath, nil) {
			return false
		}
	}
	return true
}

func (g *Globber) realPath(p string) string {
	if real, err := filepath.EvalSymlinks(p); err == nil {
		return real
	}
	return p
}
