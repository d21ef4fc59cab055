package config

import (
	"fmt"
	"os"
	"strings"
)

// Input names accepted from the environment as INPUT_<NAME>, the way a
// workflow runner passes action inputs.
const (
	InputFilePatterns        = "file-patterns"
	InputFollowSymbolicLinks = "follow-symbolic-links"
	InputUseGitignore        = "use-gitignore"
	InputMinify              = "minify"
	InputRecordHashes        = "record-hashes"
	InputManifestPath        = "manifest-path"
	InputSummaryPath         = "summary-path"
	InputLogLevel            = "log-level"
)

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// InputEnvName returns the environment variable carrying the named input.
func InputEnvName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// ParseBool accepts only true, True, TRUE, false, False and FALSE.
func ParseBool(name, value string) (bool, error) {
	switch value {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("input %q is not a valid boolean: got %q, want true|True|TRUE|false|False|FALSE", name, value)
}

// ApplyEnv overlays INPUT_* variables from the process environment.
func (c *Config) ApplyEnv() error {
	return c.ApplyLookup(os.LookupEnv)
}

// ApplyLookup overlays inputs found by lookup. Values are trimmed and empty
// values leave the current setting alone.
func (c *Config) ApplyLookup(lookup LookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(InputEnvName(name))
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	texts := map[string]*string{
		InputFilePatterns: &c.FilePatterns,
		InputManifestPath: &c.ManifestPath,
		InputSummaryPath:  &c.SummaryPath,
		InputLogLevel:     &c.LogLevel,
	}
	for name, dst := range texts {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{InputFollowSymbolicLinks, &c.FollowSymbolicLinks},
		{InputUseGitignore, &c.UseGitignore},
		{InputMinify, &c.Minify},
		{InputRecordHashes, &c.RecordHashes},
	}
	for _, b := range bools {
		v, ok := get(b.name)
		if !ok {
			continue
		}
		parsed, err := ParseBool(b.name, v)
		if err != nil {
			return err
		}
		*b.dst = parsed
	}

	return nil
}
