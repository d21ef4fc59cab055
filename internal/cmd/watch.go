package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/filesnap/internal/snapshot"
	"github.com/harrison/filesnap/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Regenerate the manifest whenever files change",
		Long: `Write the manifest once, then watch the directory and write it again after
every burst of changes. Each rebuild is a full run with the same settings as
'run'. Changes under .git and to the manifest or summary themselves are
ignored. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: watchCommand,
	}

	addSnapshotFlags(cmd)
	cmd.Flags().Duration("debounce", watch.DefaultDebounceDelay, "Quiet period before rebuilding")

	return cmd
}

func watchCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}

	log, closeLog, err := s.newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := watch.NewWatcher(s.baseDir, s.outputs(), log)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.baseDir, err)
	}
	defer watcher.Close()

	if debounce, _ := cmd.Flags().GetDuration("debounce"); debounce > 0 {
		watcher.SetDebounceDelay(debounce)
	}

	runner := snapshot.NewRunner(log)
	if _, err := executeRun(ctx, cmd, s, log, runner); err != nil {
		log.LogError(fmt.Sprintf("initial run failed, waiting for changes: %v", err))
	}

	log.LogInfo(fmt.Sprintf("Watching %s for changes", s.baseDir))
	return watcher.Run(ctx, func(ctx context.Context, changed []string) {
		log.LogInfo(fmt.Sprintf("%d path(s) changed, rebuilding", len(changed)))
		start := time.Now()
		if _, err := executeRun(ctx, cmd, s, log, runner); err != nil {
			log.LogError(fmt.Sprintf("rebuild failed: %v", err))
			return
		}
		log.LogDebug(fmt.Sprintf("Rebuild finished in %s", time.Since(start).Round(time.Millisecond)))
	})
}
