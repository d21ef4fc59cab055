package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the per-tree configuration file looked up in the base directory
const FileName = ".filesnap.yaml"

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path (empty = <home>/history.db)
	DBPath string `yaml:"db_path"`
}

// Config represents filesnap configuration options
type Config struct {
	// FilePatterns is the root pattern specification or an "@file" reference
	FilePatterns string `yaml:"file_patterns"`

	// FollowSymbolicLinks descends into symlinked directories
	FollowSymbolicLinks bool `yaml:"follow_symbolic_links"`

	// UseGitignore merges .gitignore entries as exclusions
	UseGitignore bool `yaml:"use_gitignore"`

	// Minify writes compact JSON instead of 4-space indented JSON
	Minify bool `yaml:"minify"`

	// RecordHashes records SHA-256 digests (false = null for every file)
	RecordHashes bool `yaml:"record_hashes"`

	// ManifestPath is where the manifest is written, relative to the base directory
	ManifestPath string `yaml:"manifest_path"`

	// SummaryPath is where the human-readable summary is written (empty = none)
	SummaryPath string `yaml:"summary_path"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty = console only)
	LogDir string `yaml:"log_dir"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		FilePatterns:        "**",
		FollowSymbolicLinks: true,
		UseGitignore:        false,
		Minify:              false,
		RecordHashes:        true,
		ManifestPath:        "manifest.json",
		SummaryPath:         "",
		LogLevel:            "info",
		LogDir:              "",
		History: HistoryConfig{
			Enabled: false,
			DBPath:  "",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer fields tell an explicit false apart from an absent key
	type yamlHistory struct {
		Enabled *bool   `yaml:"enabled"`
		DBPath  *string `yaml:"db_path"`
	}
	type yamlConfig struct {
		FilePatterns        *string      `yaml:"file_patterns"`
		FollowSymbolicLinks *bool        `yaml:"follow_symbolic_links"`
		UseGitignore        *bool        `yaml:"use_gitignore"`
		Minify              *bool        `yaml:"minify"`
		RecordHashes        *bool        `yaml:"record_hashes"`
		ManifestPath        *string      `yaml:"manifest_path"`
		SummaryPath         *string      `yaml:"summary_path"`
		LogLevel            *string      `yaml:"log_level"`
		LogDir              *string      `yaml:"log_dir"`
		History             *yamlHistory `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&cfg.FilePatterns, yamlCfg.FilePatterns)
	setBool(&cfg.FollowSymbolicLinks, yamlCfg.FollowSymbolicLinks)
	setBool(&cfg.UseGitignore, yamlCfg.UseGitignore)
	setBool(&cfg.Minify, yamlCfg.Minify)
	setBool(&cfg.RecordHashes, yamlCfg.RecordHashes)
	setString(&cfg.ManifestPath, yamlCfg.ManifestPath)
	setString(&cfg.SummaryPath, yamlCfg.SummaryPath)
	setString(&cfg.LogLevel, yamlCfg.LogLevel)
	setString(&cfg.LogDir, yamlCfg.LogDir)
	if yamlCfg.History != nil {
		setBool(&cfg.History.Enabled, yamlCfg.History.Enabled)
		setString(&cfg.History.DBPath, yamlCfg.History.DBPath)
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .filesnap.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, FileName))
}

// LoadDotEnv loads KEY=VALUE pairs from dir/.env into the process environment.
// Variables already set in the environment keep their value. A missing file
// is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(patterns *string, followSymlinks, useGitignore, minify, recordHashes *bool, manifestPath, summaryPath, logLevel, logDir *string) {
	setString(&c.FilePatterns, patterns)
	setBool(&c.FollowSymbolicLinks, followSymlinks)
	setBool(&c.UseGitignore, useGitignore)
	setBool(&c.Minify, minify)
	setBool(&c.RecordHashes, recordHashes)
	setString(&c.ManifestPath, manifestPath)
	setString(&c.SummaryPath, summaryPath)
	setString(&c.LogLevel, logLevel)
	setString(&c.LogDir, logDir)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FilePatterns) == "" {
		return fmt.Errorf("file_patterns cannot be empty")
	}

	if strings.Trim(c.ManifestPath, `/\ `) == "" {
		return fmt.Errorf("manifest_path cannot be empty")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.SummaryPath != "" && strings.Trim(c.SummaryPath, `/\`) == strings.Trim(c.ManifestPath, `/\`) {
		return fmt.Errorf("summary_path and manifest_path must differ, both are %q", c.ManifestPath)
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
