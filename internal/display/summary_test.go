package display

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/filesnap/internal/models"
)

func summaryResult(paths ...string) *models.SnapshotResult {
	m := models.NewManifest()
	for _, p := range paths {
		m.Add(p, nil)
	}
	return &models.SnapshotResult{
		Manifest:     m,
		ManifestPath: "/work/manifest.json",
		Fingerprint:  "f00d",
		Hashed:       true,
		Duration:     1234 * time.Microsecond,
		Rules: []models.PatternLine{
			{Text: "**", Polarity: models.Include},
			{Text: "*.log", Polarity: models.Exclude},
		},
	}
}

func TestRenderSummary(t *testing.T) {
	md := RenderSummary(summaryResult("a.txt", "dir/b.go"))

	assert.True(t, strings.HasPrefix(md, "# Manifest summary\n"))
	assert.Contains(t, md, "| Files | 2 |")
	assert.Contains(t, md, "| Digests | sha256 |")
	assert.Contains(t, md, "| Manifest | `/work/manifest.json` |")
	assert.Contains(t, md, "| Fingerprint | `f00d` |")
	assert.Contains(t, md, "| Duration | 1ms |")
	assert.Contains(t, md, "```\n**\n!*.log\n```\n")
	assert.Contains(t, md, "- `a.txt`\n- `dir/b.go`\n")
}

func TestRenderSummary_Empty(t *testing.T) {
	result := summaryResult()
	result.Hashed = false
	md := RenderSummary(result)

	assert.Contains(t, md, "| Files | 0 |")
	assert.Contains(t, md, "| Digests | disabled |")
	assert.Contains(t, md, "_No files matched._")
}

func TestRenderSummary_TruncatesFileList(t *testing.T) {
	var paths []string
	for i := 0; i < SummaryFileLimit+5; i++ {
		paths = append(paths, fmt.Sprintf("f%03d.txt", i))
	}
	md := RenderSummary(summaryResult(paths...))

	assert.Equal(t, SummaryFileLimit, strings.Count(md, "\n- `"))
	assert.Contains(t, md, "_and 5 more_")
	assert.NotContains(t, md, fmt.Sprintf("f%03d.txt", SummaryFileLimit))
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(RenderSummary(summaryResult("a.txt")))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "<h1>Manifest summary</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<code>a.txt</code>")
}

func TestWriteSummary(t *testing.T) {
	root := t.TempDir()

	t.Run("markdown", func(t *testing.T) {
		dest, err := WriteSummary(root, "/reports/summary.md", summaryResult("a.txt"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "reports", "summary.md"), dest)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# Manifest summary"))
	})

	t.Run("html", func(t *testing.T) {
		dest, err := WriteSummary(root, "summary.HTML", summaryResult("a.txt"))
		require.NoError(t, err)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<h1>Manifest summary</h1>")
	})

	t.Run("empty destination", func(t *testing.T) {
		_, err := WriteSummary(root, "/", summaryResult())
		assert.Error(t, err)
	})
}
