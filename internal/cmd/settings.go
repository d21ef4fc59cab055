package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/filesnap/internal/config"
	"github.com/harrison/filesnap/internal/fileutil"
	"github.com/harrison/filesnap/internal/logger"
	"github.com/harrison/filesnap/internal/manifest"
	"github.com/harrison/filesnap/internal/snapshot"
)

// settings is the merged configuration for one command invocation
type settings struct {
	cfg     *config.Config
	baseDir string
}

// addSnapshotFlags registers the flags shared by run, check and watch
func addSnapshotFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: <dir>/.filesnap.yaml)")
	cmd.Flags().String("patterns", "", "Pattern specification, one rule per line, or @file")
	cmd.Flags().Bool("follow-symlinks", true, "Descend into symlinked directories")
	cmd.Flags().Bool("use-gitignore", false, "Merge .gitignore entries as exclusions")
	cmd.Flags().Bool("minify", false, "Write compact JSON")
	cmd.Flags().Bool("no-hashes", false, "Record null instead of SHA-256 digests")
	cmd.Flags().String("manifest", "", "Manifest destination relative to <dir> (default: manifest.json)")
	cmd.Flags().String("summary", "", "Summary destination relative to <dir> (.md or .html)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().Bool("history", false, "Record the run in the history database")
	cmd.Flags().String("history-db", "", "History database path (default: $FILESNAP_HOME/history.db)")
}

// loadSettings layers defaults, the config file, .env, INPUT_* variables
// and finally explicitly set flags.
func loadSettings(cmd *cobra.Command, args []string) (*settings, error) {
	baseDir := "."
	if len(args) > 0 {
		baseDir = args[0]
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	if err := config.LoadDotEnv(absBase); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(absBase)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	flags := cmd.Flags()
	stringFlag := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	boolFlag := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetBool(name)
		return &v
	}

	var recordHashes *bool
	if noHashes := boolFlag("no-hashes"); noHashes != nil {
		v := !*noHashes
		recordHashes = &v
	}

	cfg.MergeWithFlags(
		stringFlag("patterns"),
		boolFlag("follow-symlinks"),
		boolFlag("use-gitignore"),
		boolFlag("minify"),
		recordHashes,
		stringFlag("manifest"),
		stringFlag("summary"),
		stringFlag("log-level"),
		stringFlag("log-dir"),
	)
	if v := boolFlag("history"); v != nil {
		cfg.History.Enabled = *v
	}
	if v := stringFlag("history-db"); v != nil {
		cfg.History.DBPath = *v
		cfg.History.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &settings{cfg: cfg, baseDir: absBase}, nil
}

// options converts the settings into snapshot run options
func (s *settings) options() snapshot.Options {
	opts := snapshot.Options{
		BaseDir:             s.baseDir,
		FilePatterns:        s.cfg.FilePatterns,
		FollowSymbolicLinks: s.cfg.FollowSymbolicLinks,
		UseGitignore:        s.cfg.UseGitignore,
		Minify:              s.cfg.Minify,
		RecordHashes:        s.cfg.RecordHashes,
		ManifestPath:        s.cfg.ManifestPath,
	}
	if s.cfg.SummaryPath != "" {
		opts.SkipPaths = append(opts.SkipPaths, s.cfg.SummaryPath)
	}
	return opts
}

// outputs returns the root-relative paths written by a run
func (s *settings) outputs() []string {
	var out []string
	for _, p := range append([]string{s.cfg.ManifestPath}, s.options().SkipPaths...) {
		if rel, ok := fileutil.Normalize(manifest.Destination(s.baseDir, p), s.baseDir); ok {
			out = append(out, rel)
		}
	}
	return out
}

// newLogger builds the console logger on stderr plus an optional file logger.
// The returned close function must be called when the command finishes.
func (s *settings) newLogger(cmd *cobra.Command) (logger.Logger, func(), error) {
	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), s.cfg.LogLevel)
	if s.cfg.LogDir == "" {
		return console, func() {}, nil
	}

	fileLogger, err := logger.NewFileLoggerWithDirAndLevel(s.cfg.LogDir, s.cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	return logger.NewMultiLogger(console, fileLogger), func() { fileLogger.Close() }, nil
}
