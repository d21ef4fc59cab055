package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/filesnap/internal/display"
	"github.com/harrison/filesnap/internal/history"
	"github.com/harrison/filesnap/internal/logger"
	"github.com/harrison/filesnap/internal/models"
	"github.com/harrison/filesnap/internal/snapshot"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Write a manifest of the files matched under a directory",
		Long: `Resolve the pattern specification, walk the directory (default: current
directory), digest every matched file and write the manifest.

The manifest has the form {"files":{"<path>":"<sha256>"|null}} with paths
relative to the directory, in discovery order. Nothing under .git is ever
recorded, and neither are the manifest and summary themselves.

Configuration is layered, later layers winning:
  defaults < <dir>/.filesnap.yaml (or --config) < <dir>/.env < INPUT_* variables < flags

Examples:
  filesnap run
  filesnap run ./dist --patterns '**
!**/*.map'
  filesnap run --patterns @release.patterns --use-gitignore --minify
  filesnap run --no-hashes --manifest /out/files.json --summary out/summary.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCommand,
	}

	addSnapshotFlags(cmd)

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}

	log, closeLog, err := s.newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	_, err = executeRun(cmd.Context(), cmd, s, log, snapshot.NewRunner(log))
	return err
}

// executeRun performs one full run: manifest, optional summary, optional
// history record. Only manifest and summary failures are returned.
func executeRun(ctx context.Context, cmd *cobra.Command, s *settings, log logger.Logger, runner *snapshot.Runner) (*models.SnapshotResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	result, runErr := runner.Run(s.options())
	if runErr == nil && s.cfg.SummaryPath != "" {
		dest, err := display.WriteSummary(s.baseDir, s.cfg.SummaryPath, result)
		if err != nil {
			runErr = err
		} else {
			log.LogDebug(fmt.Sprintf("Wrote summary to %s", dest))
		}
	}

	if s.cfg.History.Enabled {
		if err := recordHistory(ctx, s, started, result, runErr); err != nil {
			log.LogWarn(fmt.Sprintf("failed to record run history: %v", err))
			display.WarnHistory(err).Display(cmd.ErrOrStderr())
		}
	}

	if runErr != nil {
		// reported once by the caller
		return nil, runErr
	}

	log.LogResult(result)
	return result, nil
}

// recordHistory stores the outcome of a run
func recordHistory(ctx context.Context, s *settings, started time.Time, result *models.SnapshotResult, runErr error) error {
	dbPath, err := s.cfg.HistoryDBPath()
	if err != nil {
		return err
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &history.Run{
		BaseDir:      s.baseDir,
		ManifestPath: s.cfg.ManifestPath,
		Hashed:       s.cfg.RecordHashes,
		Status:       models.StatusSucceeded,
		StartedAt:    started,
		FinishedAt:   time.Now(),
	}
	run.Duration = run.FinishedAt.Sub(started)

	if result != nil {
		run.FileCount = result.FileCount()
		run.Fingerprint = result.Fingerprint
		run.PatternText = result.PatternText
	}
	if runErr != nil {
		run.Status = models.StatusFailed
		run.ErrorMessage = runErr.Error()
		var re *snapshot.RunError
		if errors.As(runErr, &re) {
			run.ErrorKind = re.Kind.String()
		}
	}

	return store.RecordRun(ctx, run)
}
