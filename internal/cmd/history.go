package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/filesnap/internal/config"
	"github.com/harrison/filesnap/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded manifest runs",
		Long: `List runs recorded with --history (or history.enabled in .filesnap.yaml),
most recent first, with their status, file count and manifest fingerprint.`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().String("history-db", "", "History database path (default: $FILESNAP_HOME/history.db)")

	return cmd
}

func historyCommand(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	cfg := config.DefaultConfig()
	cfg.History.DBPath, _ = cmd.Flags().GetString("history-db")
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return fmt.Errorf("failed to get history database path: %w", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(output, "No runs recorded yet")
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(output, "No runs recorded yet")
		return nil
	}

	printRuns(output, runs)
	return nil
}

// printRuns formats recorded runs, one block per run
func printRuns(w io.Writer, runs []*history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "=== Manifest Runs (%d) ===\n\n", len(runs))

	for i, run := range runs {
		fmt.Fprintf(w, "%s  ", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		if run.Succeeded() {
			green.Fprintf(w, "%s", run.Status)
		} else {
			red.Fprintf(w, "%s", run.Status)
		}
		gray.Fprintf(w, "  %s\n", run.ID)

		fmt.Fprintf(w, "  Dir: %s\n", run.BaseDir)
		fmt.Fprintf(w, "  Manifest: %s\n", run.ManifestPath)
		fmt.Fprintf(w, "  Files: %d", run.FileCount)
		if !run.Hashed {
			fmt.Fprint(w, " (no digests)")
		}
		fmt.Fprintln(w)
		if run.Fingerprint != "" {
			fmt.Fprintf(w, "  Fingerprint: %s\n", run.Fingerprint)
		}
		fmt.Fprintf(w, "  Duration: %s\n", run.Duration.Round(time.Millisecond))
		if run.ErrorMessage != "" {
			fmt.Fprint(w, "  Error: ")
			red.Fprintf(w, "[%s] %s\n", run.ErrorKind, run.ErrorMessage)
		}

		if i < len(runs)-1 {
			fmt.Fprintln(w)
		}
	}
}
