package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/harrison/filesnap/internal/display"
	"github.com/harrison/filesnap/internal/history"
	"github.com/harrison/filesnap/internal/logger"
	"github.com/harrison/filesnap/internal/manifest"
	"github.com/harrison/filesnap/internal/models"
	"github.com/harrison/filesnap/internal/snapshot"
)

// ErrManifestDrift is returned by check when the manifest on disk is stale.
var ErrManifestDrift = errors.New("manifest is out of date")

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Verify the manifest on disk matches the tree",
		Long: `Build the manifest in memory with the same settings as 'run' and compare it
byte for byte with the one on disk. Nothing is written.

On mismatch a unified diff of the pretty-printed documents is printed, the
added (+), removed (-) and changed (~) paths are listed, and the command
exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: checkCommand,
	}

	addSnapshotFlags(cmd)
	cmd.Flags().Int("context", 3, "Lines of diff context")

	return cmd
}

func checkCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}

	log, closeLog, err := s.newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	result, err := snapshot.NewRunner(log).Build(s.options())
	if err != nil {
		return err
	}

	dest := manifest.Destination(s.baseDir, s.cfg.ManifestPath)
	onDisk, err := os.ReadFile(dest)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", dest, err)
	}

	if bytes.Equal(onDisk, result.Document) {
		log.LogInfo(fmt.Sprintf("%s is up to date (%d file(s))", s.cfg.ManifestPath, result.FileCount()))
		return nil
	}

	contextLines, _ := cmd.Flags().GetInt("context")
	patch, files, err := describeDrift(s.cfg.ManifestPath, onDisk, result, contextLines)
	if err != nil {
		return err
	}
	if patch != "" {
		fmt.Fprint(cmd.OutOrStdout(), patch)
	}

	display.WarnDrift(s.cfg.ManifestPath, files).Display(cmd.ErrOrStderr())
	if s.cfg.History.Enabled {
		reportLastRun(cmd, s, log)
	}
	return ErrManifestDrift
}

// reportLastRun logs when the manifest was last written successfully
func reportLastRun(cmd *cobra.Command, s *settings, log logger.Logger) {
	dbPath, err := s.cfg.HistoryDBPath()
	if err != nil {
		log.LogDebug(fmt.Sprintf("history unavailable: %v", err))
		return
	}
	if _, err := os.Stat(dbPath); err != nil {
		return
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		log.LogDebug(fmt.Sprintf("history unavailable: %v", err))
		return
	}
	defer store.Close()

	last, err := store.LatestSuccessful(cmd.Context(), s.cfg.ManifestPath)
	if err != nil || last == nil {
		return
	}
	log.LogInfo(fmt.Sprintf("Last successful run %s at %s (%d file(s), fingerprint %s)",
		last.ID, last.FinishedAt.Local().Format("2006-01-02 15:04:05"), last.FileCount, last.Fingerprint))
}

// describeDrift returns a unified diff between the pretty forms of the stored
// and freshly built manifests, plus the drifted paths. A stored document that
// no longer parses is diffed verbatim.
func describeDrift(name string, onDisk []byte, result *models.SnapshotResult, contextLines int) (string, []string, error) {
	current, err := manifest.Serialize(result.Manifest, true)
	if err != nil {
		return "", nil, err
	}

	var files []string
	previous := onDisk
	if stored, err := manifest.Parse(onDisk); err == nil {
		files = manifest.Compare(stored, result.Manifest).Paths()
		if previous, err = manifest.Serialize(stored, true); err != nil {
			return "", nil, err
		}
	}

	patch, err := unifiedDiff(name, previous, current, contextLines)
	if err != nil {
		return "", nil, err
	}
	return patch, files, nil
}

func unifiedDiff(name string, a, b []byte, contextLines int) (string, error) {
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: name + " (on disk)",
		ToFile:   name + " (current)",
		Context:  contextLines,
	}
	return difflib.GetUnifiedDiffString(u)
}
