package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning, in yellow when out is a terminal
func (w Warning) Display(out io.Writer) {
	w.render(out, IsTerminal(out))
}

func (w Warning) render(out io.Writer, colored bool) {
	var b strings.Builder

	if colored {
		b.WriteString(ansiYellow)
	}
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}

		for i, file := range w.Files {
			b.WriteString("      ")
			b.WriteString(fmt.Sprintf("%d. %s", i+1, file))
			b.WriteString("\n")
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	if colored {
		b.WriteString(ansiReset)
	}

	fmt.Fprint(out, b.String())
}

// WarnDrift creates a warning for a manifest that no longer matches the tree
func WarnDrift(manifestPath string, files []string) Warning {
	return Warning{
		Title:      "Manifest Out of Date",
		Message:    fmt.Sprintf("%s differs from the current tree", manifestPath),
		Files:      files,
		Suggestion: "Run 'filesnap run' to regenerate it",
	}
}

// WarnHistory creates a warning for a run that could not be recorded
func WarnHistory(err error) Warning {
	return Warning{
		Title:      "Run History Unavailable",
		Message:    err.Error(),
		Suggestion: "Check history.db_path or disable history in .filesnap.yaml",
	}
}

// IsTerminal reports whether out is a terminal file descriptor.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
