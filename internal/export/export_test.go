package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mrwolf/vibenote-server/internal/models"
)

func TestWriteJournal(t *testing.T) {
	tmpDir := t.TempDir()
	w := NewWriter(tmpDir)

	created := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	entries := []Entry{
		{
			Journal: models.JournalEntry{
				ID: "j1", Title: "My Great Day!", Content: "I feel great about work today!",
				WordCount: 6, CreatedAt: created, UpdatedAt: created,
			},
			Insights:  []models.Insight{{Kind: models.InsightSummary, Content: "You wrote about work."}},
			Sentiment: models.SentimentPositive,
			Themes:    []string{"work"},
		},
		{
			Journal: models.JournalEntry{
				ID: "j2", Content: "Rainy and slow, stayed in with tea and a book all afternoon",
				WordCount: 12, CreatedAt: created.Add(time.Hour), UpdatedAt: created.Add(time.Hour),
			},
		},
		{
			Journal: models.JournalEntry{ID: "j3", Title: "my great day", Content: "again", CreatedAt: created, UpdatedAt: created},
		},
	}

	res, err := w.WriteJournal("user-1", entries, created)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "user-1"), res.Dir)
	assert.Equal(t, []string{
		"2024-01-15-my-great-day.md",
		"2024-01-15-rainy-and-slow-stayed-in-with.md",
		"2024-01-15-my-great-day-2.md",
	}, res.Files)

	raw, err := os.ReadFile(filepath.Join(res.Dir, res.Files[0]))
	require.NoError(t, err)
	content := string(raw)
	require.True(t, strings.HasPrefix(content, "---\n"))

	parts := strings.SplitN(content, "---\n", 3)
	require.Len(t, parts, 3)
	var fm frontmatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "j1", fm.ID)
	assert.Equal(t, 6, fm.WordCount)
	assert.Equal(t, "positive", fm.Sentiment)
	assert.Equal(t, []string{"work"}, fm.Themes)
	assert.Equal(t, []string{"summary: You wrote about work."}, fm.Insights)
	assert.Contains(t, parts[2], "# My Great Day!")
	assert.Contains(t, parts[2], "I feel great about work today!")

	logRaw, err := os.ReadFile(filepath.Join(res.Dir, logFile))
	require.NoError(t, err)
	assert.Contains(t, string(logRaw), `"entries":3`)

	// a second run appends to the log
	_, err = w.WriteJournal("user-1", nil, created)
	require.NoError(t, err)
	logRaw, _ = os.ReadFile(filepath.Join(res.Dir, logFile))
	assert.Equal(t, 2, strings.Count(string(logRaw), "\n"))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"My Great Idea":      "my-great-idea",
		"  spaced__out  ":    "spaced-out",
		"Ünïcode & symbols!": "ncode-symbols",
		"!!!":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.md")

	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	require.NoError(t, WriteFileAtomic(path, []byte("two")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
