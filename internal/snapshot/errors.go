package snapshot

import (
	"fmt"
	"strings"
)

// ErrorKind identifies the stage of a run that failed.
type ErrorKind int

const (
	// KindReferenceFileUnreadable means an "@file" exists but could not be read.
	KindReferenceFileUnreadable ErrorKind = iota
	// KindMatcherFailure means the matcher rejected the patterns or failed while walking.
	KindMatcherFailure
	// KindHashReadFailure means a discovered file could not be read for digesting.
	KindHashReadFailure
	// KindSerializationWriteFailure means the manifest could not be built or written.
	KindSerializationWriteFailure
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindReferenceFileUnreadable:
		return "reference file unreadable"
	case KindMatcherFailure:
		return "matcher failure"
	case KindHashReadFailure:
		return "hash read failure"
	case KindSerializationWriteFailure:
		return "serialization write failure"
	default:
		return "unknown"
	}
}

// RunError is the single fatal error a run stops on.
type RunError struct {
	Kind ErrorKind // Stage that failed
	Path string    // File involved, if any
	Err  error     // Underlying error
}

func newRunError(kind ErrorKind, path string, err error) *RunError {
	return &RunError{Kind: kind, Path: path, Err: err}
}

// Error implements the error interface for RunError.
func (e *RunError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Path != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Path))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *RunError) Unwrap() error {
	return e.Err
}
