package snapshot

import (
	"iter"

	"github.com/harrison/filesnap/internal/fileutil"
)

// Globber lazily yields matching filesystem entries. The sequence's error
// value reports a traversal failure and ends the sequence.
type Globber interface {
	Glob() iter.Seq2[string, error]
}

// Matcher builds a Globber from merged pattern text.
type Matcher interface {
	Create(baseDir, patternText string, opts fileutil.GlobOptions) (Globber, error)
}

// GlobMatcher is the Matcher backed by fileutil.Globber.
type GlobMatcher struct{}

// Create parses patternText into a fileutil.Globber rooted at baseDir.
func (GlobMatcher) Create(baseDir, patternText string, opts fileutil.GlobOptions) (Globber, error) {
	return fileutil.NewGlobber(baseDir, patternText, opts)
}
