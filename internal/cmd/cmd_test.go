package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/filesnap/internal/config"
	"github.com/harrison/filesnap/internal/history"
	"github.com/harrison/filesnap/internal/models"
)

const helloDigest = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"

// execute runs the root command with args and captures both streams
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(context.Background(), t, args...)
}

func executeContext(ctx context.Context, t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// isolate keeps state and inputs from the host environment out of the test
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())
	for _, name := range []string{
		config.InputFilePatterns, config.InputFollowSymbolicLinks, config.InputUseGitignore,
		config.InputMinify, config.InputRecordHashes, config.InputManifestPath,
		config.InputSummaryPath, config.InputLogLevel,
	} {
		t.Setenv(config.InputEnvName(name), "")
	}
}

func TestRootCommand(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "filesnap")
	assert.Contains(t, stdout, "SHA-256")

	names := map[string]bool{}
	for _, c := range NewRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "resolve", "check", "history", "watch"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRunCommand_WritesManifest(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\n")
	writeFile(t, dir, ".git/HEAD", "ref: refs/heads/main\n")

	_, stderr, err := execute(t, "run", dir, "--minify")
	require.NoError(t, err)

	assert.Equal(t, `{"files":{"a.txt":"`+helloDigest+`"}}`, readFile(t, filepath.Join(dir, "manifest.json")))
	assert.Contains(t, stderr, "Files: 1")
}

func TestRunCommand_Idempotent(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\n")
	writeFile(t, dir, "sub/b.txt", "b")

	_, _, err := execute(t, "run", dir)
	require.NoError(t, err)
	first := readFile(t, filepath.Join(dir, "manifest.json"))

	_, _, err = execute(t, "run", dir)
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, filepath.Join(dir, "manifest.json")))
	assert.NotContains(t, first, "manifest.json")
}

func TestRunCommand_ConfigLayering(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\n")
	writeFile(t, dir, config.FileName, "record_hashes: false\nmanifest_path: from-config.json\n")
	t.Setenv("INPUT_MINIFY", "true")

	_, _, err := execute(t, "run", dir, "--manifest", "/from-flag.json")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "from-config.json"))
	assert.Equal(t, `{"files":{".filesnap.yaml":null,"a.txt":null}}`, readFile(t, filepath.Join(dir, "from-flag.json")))
}

func TestRunCommand_RejectsLooseBooleanInput(t *testing.T) {
	isolate(t)
	t.Setenv("INPUT_MINIFY", "yes")

	_, _, err := execute(t, "run", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boolean")
}

func TestRunCommand_SummaryAndHistory(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	writeFile(t, dir, "a.txt", "hello\n")

	_, _, err := execute(t, "run", dir, "--summary", "report.md", "--history-db", dbPath)
	require.NoError(t, err)

	assert.NotContains(t, readFile(t, filepath.Join(dir, "manifest.json")), "report.md")
	assert.Contains(t, readFile(t, filepath.Join(dir, "report.md")), "| Files | 1 |")

	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.StatusSucceeded, runs[0].Status)
	assert.Equal(t, 1, runs[0].FileCount)
	assert.NotEmpty(t, runs[0].Fingerprint)
}

func TestRunCommand_FailureRecordedAndNothingWritten(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	writeFile(t, dir, "a.txt", "a")

	_, _, err := execute(t, "run", dir, "--patterns", "src/[abc", "--history-db", dbPath)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "manifest.json"))

	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.StatusFailed, runs[0].Status)
	assert.Equal(t, "matcher failure", runs[0].ErrorKind)
}

func TestRunCommand_FailureLeftToCaller(t *testing.T) {
	isolate(t)

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		args  []string
		kind  string
	}{
		{
			name: "invalid pattern",
			args: []string{"--patterns", "["},
			kind: "matcher failure",
		},
		{
			name: "manifest destination is a directory",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.Mkdir(filepath.Join(dir, "out.json"), 0755))
			},
			args: []string{"--manifest", "out.json"},
			kind: "serialization write failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "a.txt", "a")
			if tt.setup != nil {
				tt.setup(t, dir)
			}

			_, stderr, err := execute(t, append([]string{"run", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.kind)
			assert.NotContains(t, stderr, tt.kind, "the command itself must not report the failure")
			assert.NotContains(t, stderr, "[ERROR]")
		})
	}
}

func TestRunCommand_HistoryFailureIsOnlyAWarning(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, stderr, err := execute(t, "run", dir, "--history-db", filepath.Join(blocker, "history.db"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "manifest.json"))
	assert.Contains(t, stderr, "Run History Unavailable")
}

func TestResolveCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, "patterns.txt", "fileA\nfileB\n")
	writeFile(t, dir, ".gitignore", "ignoreA\nignoreB\n")

	stdout, _, err := execute(t, "resolve", dir, "--patterns", "@patterns.txt")
	require.NoError(t, err)
	assert.Equal(t, "fileA\nfileB\n", stdout)

	stdout, _, err = execute(t, "resolve", dir, "--use-gitignore")
	require.NoError(t, err)
	assert.Equal(t, "**\n!ignoreA\n!ignoreB\n", stdout)

	stdout, _, err = execute(t, "resolve", dir, "--use-gitignore", "--explain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "!ignoreA\t# .gitignore (exclude)")

	_, _, err = execute(t, "resolve", dir, "--patterns", "src/[abc")
	assert.Error(t, err)

	stdout, stderr, err := execute(t, "resolve", dir, "--use-gitignore", "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, "**\n!ignoreA\n!ignoreB\n", stdout)
	assert.Contains(t, stderr, "3 rule(s) accepted by the matcher")
}

func TestCheckCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\n")
	writeFile(t, dir, "b.txt", "b")

	_, _, err := execute(t, "check", dir)
	require.Error(t, err, "missing manifest must fail")
	assert.False(t, errors.Is(err, ErrManifestDrift))

	_, _, err = execute(t, "run", dir)
	require.NoError(t, err)
	before := readFile(t, filepath.Join(dir, "manifest.json"))

	_, _, err = execute(t, "check", dir)
	require.NoError(t, err)

	writeFile(t, dir, "a.txt", "changed\n")
	writeFile(t, dir, "c.txt", "c")

	stdout, stderr, err := execute(t, "check", dir)
	require.ErrorIs(t, err, ErrManifestDrift)
	assert.Contains(t, stdout, "--- manifest.json (on disk)")
	assert.Contains(t, stdout, "+++ manifest.json (current)")
	assert.Contains(t, stdout, "@@")
	assert.Contains(t, stderr, "+ c.txt")
	assert.Contains(t, stderr, "~ a.txt")

	assert.Equal(t, before, readFile(t, filepath.Join(dir, "manifest.json")), "check must never write")
}

func TestHistoryCommand(t *testing.T) {
	isolate(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	stdout, _, err := execute(t, "history", "--history-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded yet")

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	_, _, err = execute(t, "run", dir, "--history-db", dbPath, "--no-hashes")
	require.NoError(t, err)

	stdout, _, err = execute(t, "history", "--history-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "=== Manifest Runs (1) ===")
	assert.Contains(t, stdout, models.StatusSucceeded)
	assert.Contains(t, stdout, "Files: 1 (no digests)")
}

func TestWatchCommand_RebuildsOnChange(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	manifestPath := filepath.Join(dir, "manifest.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, _, err := executeContext(ctx, t, "watch", dir, "--debounce", "50ms")
		done <- err
	}()

	waitFor(t, func() bool {
		data, err := os.ReadFile(manifestPath)
		return err == nil && strings.Contains(string(data), "a.txt")
	})

	writeFile(t, dir, "new.txt", "n")
	waitFor(t, func() bool {
		data, err := os.ReadFile(manifestPath)
		return err == nil && strings.Contains(string(data), "new.txt")
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCheckCommand_ReportsLastSuccessfulRun(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	writeFile(t, dir, "a.txt", "a")

	_, _, err := execute(t, "run", dir, "--history-db", dbPath)
	require.NoError(t, err)

	writeFile(t, dir, "a.txt", "b")
	_, stderr, err := execute(t, "check", dir, "--history-db", dbPath)
	require.ErrorIs(t, err, ErrManifestDrift)
	assert.Contains(t, stderr, "Last successful run")
	assert.Contains(t, stderr, "1 file(s)")
}
