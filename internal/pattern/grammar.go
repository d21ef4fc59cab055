package pattern

import (
	"regexp"
	"strings"
)

const (
	commentMarker   = "#"
	referenceMarker = "@"
)

// linePattern splits a rule into its negation marker, reference marker and body.
var linePattern = regexp.MustCompile(`^(!?)(@?)\s*(.+)$`)

// lineKind classifies a single line of a pattern source.
type lineKind int

const (
	kindBlank lineKind = iota
	kindComment
	kindReference
	kindLiteral
)

// String returns the string representation of lineKind.
func (k lineKind) String() string {
	switch k {
	case kindBlank:
		return "blank"
	case kindComment:
		return "comment"
	case kindReference:
		return "reference"
	case kindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// parsedLine is one classified, trimmed line.
type parsedLine struct {
	kind    lineKind
	negated bool
	// target is the pattern text for literals and the file name for references
	target string
	// body is everything after the negation marker, used when a reference
	// is not expanded and has to be passed through as a literal
	body string
}

// splitLines breaks content on line boundaries, tolerating CRLF endings.
func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// parseLine trims and classifies a raw line.
func parseLine(raw string) parsedLine {
	line := strings.TrimSpace(raw)
	if line == "" {
		return parsedLine{kind: kindBlank}
	}
	if strings.HasPrefix(line, commentMarker) {
		return parsedLine{kind: kindComment}
	}

	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return parsedLine{kind: kindLiteral, target: line, body: line}
	}

	negated := m[1] != ""
	body := strings.TrimSpace(strings.TrimPrefix(line, m[1]))
	if m[2] != "" {
		return parsedLine{kind: kindReference, negated: negated, target: m[3], body: body}
	}
	return parsedLine{kind: kindLiteral, negated: negated, target: m[3], body: m[3]}
}
