// Package display renders user-facing output for filesnap: warnings on the
// terminal and the run summary written next to the manifest.
//
// # Warnings
//
//	warning := display.WarnDrift("manifest.json", changed)
//	warning.Display(os.Stderr)
//
// Colors are emitted only when the writer is a terminal.
//
// # Summaries
//
//	dest, err := display.WriteSummary(baseDir, cfg.SummaryPath, result)
//
// The summary is Markdown unless the destination ends in .html, in which
// case it is rendered with goldmark.
package display
