package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/filesnap/internal/fileutil"
	"github.com/harrison/filesnap/internal/logger"
	"github.com/harrison/filesnap/internal/models"
	"github.com/harrison/filesnap/internal/pattern"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [dir]",
		Short: "Print the merged pattern rules without walking the tree",
		Long: `Expand @file references and .gitignore merging exactly as 'run' would and
print the resulting rules, one per line, in the order the matcher sees them.

With --explain, every rule is annotated with the source it came from.
The rules are also validated against the glob engine.`,
		Args: cobra.MaximumNArgs(1),
		RunE: resolveCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <dir>/.filesnap.yaml)")
	cmd.Flags().String("patterns", "", "Pattern specification, one rule per line, or @file")
	cmd.Flags().Bool("use-gitignore", false, "Merge .gitignore entries as exclusions")
	cmd.Flags().Bool("explain", false, "Annotate each rule with its source")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	return cmd
}

func resolveCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), s.cfg.LogLevel)
	resolver := pattern.NewResolver(pattern.OSFileSystem{Base: s.baseDir}, log)
	rules, err := resolver.ResolveLines(s.cfg.FilePatterns, s.cfg.UseGitignore)
	if err != nil {
		return err
	}

	globber, err := fileutil.NewGlobber(s.baseDir, pattern.Join(rules), fileutil.DefaultGlobOptions())
	if err != nil {
		return err
	}
	log.LogDebug(fmt.Sprintf("%d rule(s) accepted by the matcher", globber.RuleCount()))

	explain, _ := cmd.Flags().GetBool("explain")
	printRules(cmd.OutOrStdout(), rules, explain)
	return nil
}

// printRules writes one rule per line, optionally followed by its origin
func printRules(w io.Writer, rules []models.PatternLine, explain bool) {
	gray := color.New(color.FgHiBlack)
	for _, rule := range rules {
		if !explain {
			fmt.Fprintln(w, rule.String())
			continue
		}
		fmt.Fprintf(w, "%s\t", rule.String())
		gray.Fprintf(w, "# %s (%s)\n", rule.Origin, rule.Polarity)
	}
}
