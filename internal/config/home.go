package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the filesnap state directory.
const HomeEnv = "FILESNAP_HOME"

// GetHome returns the filesnap state directory
// Priority order:
//  1. FILESNAP_HOME environment variable (if set)
//  2. <user cache dir>/filesnap
//
// The directory is created if it doesn't exist. It never lives inside a
// scanned tree, so its files cannot leak into a manifest.
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("locate user cache directory: %w", err)
		}
		home = filepath.Join(cache, "filesnap")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create filesnap home directory: %w", err)
	}
	return home, nil
}

// HistoryDBPath returns the configured history database path, falling back
// to $FILESNAP_HOME/history.db.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
