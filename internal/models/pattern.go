package models

// Polarity tells whether a pattern selects or rejects matches.
type Polarity int

const (
	// Include selects matching paths
	Include Polarity = iota
	// Exclude rejects matching paths (rendered with a leading "!")
	Exclude
)

// NegationMarker is the prefix that marks an exclusion rule.
const NegationMarker = "!"

// String returns the string representation of Polarity.
func (p Polarity) String() string {
	switch p {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "unknown"
	}
}

// Invert returns the opposite polarity.
func (p Polarity) Invert() Polarity {
	if p == Exclude {
		return Include
	}
	return Exclude
}

// PatternLine is a single resolved rule handed to the matcher.
type PatternLine struct {
	Text     string   // Pattern text without the negation marker
	Polarity Polarity // Include or Exclude
	Origin   string   // Source the line came from, used for diagnostics only
}

// String renders the line the way the matcher expects it.
func (l PatternLine) String() string {
	if l.Polarity == Exclude {
		return NegationMarker + l.Text
	}
	return l.Text
}

// PatternSource is raw pattern text paired with the name it was read from.
type PatternSource struct {
	Name    string
	Content string
}
