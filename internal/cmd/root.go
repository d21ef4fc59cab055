package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for filesnap
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filesnap",
		Short: "Content manifests for directory trees",
		Long: `filesnap selects files under a directory with ordered glob rules and writes
a JSON manifest mapping each relative path to its SHA-256 digest.

Rules are one per line; a leading '!' excludes, later rules win, '@file'
pulls rules from a file and .gitignore can be merged as exclusions.`,
		Version:       Version,
		// main prints the single error line
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewResolveCommand())
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
