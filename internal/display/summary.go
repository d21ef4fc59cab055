package display

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/filesnap/internal/filelock"
	"github.com/harrison/filesnap/internal/manifest"
	"github.com/harrison/filesnap/internal/models"
)

// SummaryFileLimit caps the file list in a summary.
const SummaryFileLimit = 50

// RenderSummary returns the Markdown summary of a finished run.
func RenderSummary(result *models.SnapshotResult) string {
	var sb strings.Builder

	sb.WriteString("# Manifest summary\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("| --- | --- |\n")
	fmt.Fprintf(&sb, "| Files | %d |\n", result.FileCount())
	if result.Hashed {
		sb.WriteString("| Digests | sha256 |\n")
	} else {
		sb.WriteString("| Digests | disabled |\n")
	}
	if result.ManifestPath != "" {
		fmt.Fprintf(&sb, "| Manifest | `%s` |\n", result.ManifestPath)
	}
	fmt.Fprintf(&sb, "| Fingerprint | `%s` |\n", result.Fingerprint)
	fmt.Fprintf(&sb, "| Duration | %s |\n", result.Duration.Round(time.Millisecond))

	if len(result.Rules) > 0 {
		sb.WriteString("\n## Pattern rules\n\n```\n")
		for _, rule := range result.Rules {
			sb.WriteString(rule.String())
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
	}

	sb.WriteString("\n## Files\n\n")
	if result.FileCount() == 0 {
		sb.WriteString("_No files matched._\n")
		return sb.String()
	}

	paths := result.Manifest.Paths()
	for i, p := range paths {
		if i == SummaryFileLimit {
			fmt.Fprintf(&sb, "\n_and %d more_\n", len(paths)-SummaryFileLimit)
			break
		}
		fmt.Fprintf(&sb, "- `%s`\n", p)
	}
	return sb.String()
}

// RenderHTML converts Markdown to HTML with table support.
func RenderHTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("failed to render summary: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSummary writes the run summary to configured under root, as HTML when
// the destination ends in .html and Markdown otherwise. Leading separators
// are stripped like the manifest destination.
func WriteSummary(root, configured string, result *models.SnapshotResult) (string, error) {
	dest := manifest.Destination(root, configured)
	if filepath.Clean(dest) == filepath.Clean(root) {
		return "", fmt.Errorf("summary destination %q is empty", configured)
	}

	content := []byte(RenderSummary(result))
	if strings.EqualFold(filepath.Ext(dest), ".html") {
		html, err := RenderHTML(string(content))
		if err != nil {
			return "", err
		}
		content = html
	}

	if err := filelock.LockAndWrite(dest, content); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return dest, nil
}
