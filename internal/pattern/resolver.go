// Package pattern expands a pattern specification into the ordered rule list
// handed to the glob matcher.
//
// A specification is newline-delimited. Blank lines and lines starting with
// "#" are skipped. A leading "!" marks an exclusion and a leading "@" (after
// the optional "!") names a file whose lines are spliced in at that position.
// A negated reference ("!@file") flips the polarity of every line it pulls
// in. References are expanded one level deep: inside a referenced file an
// "@name" line is an ordinary pattern.
package pattern

import (
	"fmt"
	"strings"

	"github.com/harrison/filesnap/internal/models"
)

// IgnoreFileName is the version-control ignore file merged when requested.
const IgnoreFileName = ".gitignore"

// Logger receives resolution traces.
type Logger interface {
	LogDebug(message string)
}

// ReferenceError reports a referenced pattern file that exists but could not be read.
type ReferenceError struct {
	Name string // File name as written in the reference
	Err  error  // Underlying read error
}

// Error implements the error interface for ReferenceError.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("failed to read pattern file %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying read error.
func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// Resolver turns a root specification into an ordered list of rules.
// It never reorders or deduplicates rules.
type Resolver struct {
	fs     FileSystem
	logger Logger
}

// NewResolver creates a Resolver reading referenced files from fsys.
// A nil logger discards traces.
func NewResolver(fsys FileSystem, logger Logger) *Resolver {
	return &Resolver{fs: fsys, logger: logger}
}

// Resolve expands rootSpec and returns the merged pattern text, one rule per
// line, with no trailing newline.
func (r *Resolver) Resolve(rootSpec string, useIgnoreFile bool) (string, error) {
	lines, err := r.ResolveLines(rootSpec, useIgnoreFile)
	if err != nil {
		return "", err
	}
	return Join(lines), nil
}

// ResolveLines expands rootSpec into polarity-tagged rules. When useIgnoreFile
// is set and the ignore file exists, its entries are appended as exclusions.
func (r *Resolver) ResolveLines(rootSpec string, useIgnoreFile bool) ([]models.PatternLine, error) {
	lines, err := r.resolve(models.PatternSource{Content: rootSpec}, true, false)
	if err != nil {
		return nil, err
	}

	if useIgnoreFile && r.fs.Exists(IgnoreFileName) {
		synthetic := models.PatternSource{
			Name:    IgnoreFileName,
			Content: models.NegationMarker + referenceMarker + IgnoreFileName,
		}
		ignored, err := r.resolve(synthetic, true, false)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ignored...)
	}

	return lines, nil
}

// resolve walks one source. allowRefs enables "@file" expansion and invert
// flips the polarity of every produced literal.
func (r *Resolver) resolve(src models.PatternSource, allowRefs, invert bool) ([]models.PatternLine, error) {
	var out []models.PatternLine

	for _, raw := range splitLines(src.Content) {
		line := parseLine(raw)

		switch line.kind {
		case kindBlank, kindComment:
			continue
		case kindReference:
			if allowRefs {
				sub, err := r.load(line.target, line.negated)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
				continue
			}
		}

		text := line.target
		if line.kind == kindReference {
			text = line.body
		}
		polarity := models.Include
		if line.negated {
			polarity = models.Exclude
		}
		if invert {
			polarity = polarity.Invert()
		}

		origin := src.Name
		if origin == "" {
			origin = strings.TrimSpace(raw)
		}
		pl := models.PatternLine{Text: text, Polarity: polarity, Origin: origin}
		out = append(out, pl)
		r.trace(fmt.Sprintf("Pattern %q from %s", pl.String(), origin))
	}

	return out, nil
}

// load expands a referenced file. Missing files yield no rules.
func (r *Resolver) load(name string, negated bool) ([]models.PatternLine, error) {
	if !r.fs.Exists(name) {
		r.trace(fmt.Sprintf("Pattern file %s not found, skipping", name))
		return nil, nil
	}

	content, err := r.fs.ReadFile(name)
	if err != nil {
		return nil, &ReferenceError{Name: name, Err: err}
	}

	lines, err := r.resolve(models.PatternSource{Name: name, Content: string(content)}, false, negated)
	if err != nil {
		return nil, err
	}
	r.trace(fmt.Sprintf("Loaded %d pattern(s) from %s", len(lines), name))
	return lines, nil
}

func (r *Resolver) trace(message string) {
	if r.logger != nil {
		r.logger.LogDebug(message)
	}
}

// Join renders rules as newline-delimited matcher input.
func Join(lines []models.PatternLine) string {
	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = l.String()
	}
	return strings.Join(rendered, "\n")
}
