// Package snapshot drives one manifest run: resolve patterns, discover files,
// normalize and digest them one at a time, then serialize and write the
// manifest.
package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/harrison/filesnap/internal/digest"
	"github.com/harrison/filesnap/internal/fileutil"
	"github.com/harrison/filesnap/internal/manifest"
	"github.com/harrison/filesnap/internal/models"
	"github.com/harrison/filesnap/internal/pattern"
)

// Logger receives run traces.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
}

// Options configures a single run.
type Options struct {
	// BaseDir is the working root: patterns, references, relative paths and
	// the manifest destination all resolve against it
	BaseDir string

	// FilePatterns is the root pattern specification
	FilePatterns string

	// FollowSymbolicLinks is forwarded to the matcher
	FollowSymbolicLinks bool

	// UseGitignore merges BaseDir/.gitignore as exclusions
	UseGitignore bool

	// Minify selects the compact form over the 4-space indented one
	Minify bool

	// RecordHashes records SHA-256 digests instead of null
	RecordHashes bool

	// ManifestPath is the destination; leading separators are stripped
	ManifestPath string

	// SkipPaths are further configured outputs never recorded in the manifest
	SkipPaths []string
}

// Runner executes snapshot runs.
type Runner struct {
	matcher Matcher
	logger  Logger
}

// NewRunner creates a Runner using the doublestar-backed GlobMatcher.
// A nil logger discards traces.
func NewRunner(logger Logger) *Runner {
	return &Runner{
		matcher: GlobMatcher{},
		logger:  logger,
	}
}

// SetMatcher replaces the matcher used for discovery.
func (r *Runner) SetMatcher(m Matcher) {
	r.matcher = m
}

// Build produces the manifest document in memory without writing it.
// Every returned error is a *RunError.
func (r *Runner) Build(opts Options) (*models.SnapshotResult, error) {
	start := time.Now()

	baseDir, err := filepath.Abs(opts.BaseDir)
	if err != nil {
		return nil, newRunError(KindMatcherFailure, opts.BaseDir, err)
	}

	resolver := pattern.NewResolver(pattern.OSFileSystem{Base: baseDir}, r.logger)
	rules, err := resolver.ResolveLines(opts.FilePatterns, opts.UseGitignore)
	if err != nil {
		var refErr *pattern.ReferenceError
		if errors.As(err, &refErr) {
			return nil, newRunError(KindReferenceFileUnreadable, refErr.Name, err)
		}
		return nil, newRunError(KindReferenceFileUnreadable, "", err)
	}
	patternText := pattern.Join(rules)

	globber, err := r.matcher.Create(baseDir, patternText, fileutil.GlobOptions{
		MatchDirectories:    false,
		FollowSymbolicLinks: opts.FollowSymbolicLinks,
	})
	if err != nil {
		return nil, newRunError(KindMatcherFailure, "", err)
	}

	skip := r.skipSet(baseDir, opts)
	hasher := digest.New(opts.RecordHashes)
	m := models.NewManifest()

	for raw, err := range globber.Glob() {
		if err != nil {
			return nil, newRunError(KindMatcherFailure, "", err)
		}

		rel, ok := fileutil.Normalize(raw, baseDir)
		if !ok {
			continue
		}
		if _, isOutput := skip[rel]; isOutput {
			continue
		}
		r.debug(fmt.Sprintf("Got file: %s", rel))

		sum, err := hasher.Digest(filepath.Join(baseDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, newRunError(KindHashReadFailure, rel, err)
		}
		m.Add(rel, sum)
	}

	doc, err := manifest.Serialize(m, !opts.Minify)
	if err != nil {
		return nil, newRunError(KindSerializationWriteFailure, "", err)
	}

	return &models.SnapshotResult{
		Manifest:    m,
		Document:    doc,
		PatternText: patternText,
		Rules:       rules,
		Fingerprint: digest.Bytes(doc),
		Hashed:      opts.RecordHashes,
		Duration:    time.Since(start),
	}, nil
}

// Run builds the manifest and overwrites the configured destination with it.
// Nothing is written when any step fails.
func (r *Runner) Run(opts Options) (*models.SnapshotResult, error) {
	result, err := r.Build(opts)
	if err != nil {
		return nil, err
	}

	r.debug(fmt.Sprintf("Found %d files, writing to %s", result.FileCount(), opts.ManifestPath))

	dest, err := manifest.Write(opts.BaseDir, opts.ManifestPath, result.Document)
	if err != nil {
		return nil, newRunError(KindSerializationWriteFailure, opts.ManifestPath, err)
	}
	result.ManifestPath = dest

	if r.logger != nil {
		r.logger.LogInfo(fmt.Sprintf("Wrote manifest with %d file(s) to %s", result.FileCount(), dest))
	}
	return result, nil
}

// skipSet returns the relative paths of the run's own outputs.
func (r *Runner) skipSet(baseDir string, opts Options) map[string]struct{} {
	skip := make(map[string]struct{})
	for _, configured := range append([]string{opts.ManifestPath}, opts.SkipPaths...) {
		if configured == "" {
			continue
		}
		if rel, ok := fileutil.Normalize(manifest.Destination(baseDir, configured), baseDir); ok {
			skip[rel] = struct{}{}
		}
	}
	return skip
}

func (r *Runner) debug(message string) {
	if r.logger != nil {
		r.logger.LogDebug(message)
	}
}
