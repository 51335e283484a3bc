// Package export writes a user's journal to markdown files with YAML frontmatter.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrwolf/vibenote-server/internal/models"
)

// logFile records every export run in a user's export folder
const logFile = "export-log.jsonl"

const maxSlugWords = 6

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	repeatDashes = regexp.MustCompile(`-+`)
)

// Entry is one journal entry with its derived data
type Entry struct {
	Journal   models.JournalEntry
	Insights  []models.Insight
	Sentiment string
	Themes    []string
}

type frontmatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title,omitempty"`
	Created   string   `yaml:"created"`
	Updated   string   `yaml:"updated"`
	WordCount int      `yaml:"word_count"`
	Sentiment string   `yaml:"sentiment,omitempty"`
	Themes    []string `yaml:"themes"`
	Insights  []string `yaml:"insights,omitempty"`
}

// Result describes one export run
type Result struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

type logLine struct {
	ExportedAt string `json:"exported_at"`
	Entries    int    `json:"entries"`
}

// Writer writes exports under a base directory, one folder per user
type Writer struct {
	basePath string
	logLock  sync.Mutex
}

// NewWriter creates a writer rooted at basePath
func NewWriter(basePath string) *Writer {
	return &Writer{basePath: basePath}
}

// UserDir returns the export folder of a user
func (w *Writer) UserDir(userID string) string {
	return filepath.Join(w.basePath, userID)
}

// WriteJournal writes every entry as <date>-<slug>.md in the user's folder
// and appends a line to the export log. Returned paths are relative to the
// user's folder.
func (w *Writer) WriteJournal(userID string, entries []Entry, now time.Time) (*Result, error) {
	dir := w.UserDir(userID)
	res := &Result{Dir: dir, Files: make([]string, 0, len(entries))}

	used := make(map[string]int)
	for _, e := range entries {
		name := fileName(e.Journal)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s-%d.md", strings.TrimSuffix(name, ".md"), n+1)
		}
		used[fileName(e.Journal)]++

		content, err := buildContent(e)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", e.Journal.ID, err)
		}
		if err := WriteFileAtomic(filepath.Join(dir, name), content); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		res.Files = append(res.Files, name)
	}

	line, err := json.Marshal(logLine{ExportedAt: now.UTC().Format(time.RFC3339), Entries: len(entries)})
	if err != nil {
		return nil, err
	}
	w.logLock.Lock()
	defer w.logLock.Unlock()
	if err := AppendLine(filepath.Join(dir, logFile), line); err != nil {
		return nil, fmt.Errorf("appending export log: %w", err)
	}
	return res, nil
}

func fileName(e models.JournalEntry) string {
	source := e.Title
	if strings.TrimSpace(source) == "" {
		words := strings.Fields(e.Content)
		if len(words) > maxSlugWords {
			words = words[:maxSlugWords]
		}
		source = strings.Join(words, " ")
	}
	slug := slugify(source)
	if slug == "" {
		slug = "entry"
	}
	return fmt.Sprintf("%s-%s.md", e.CreatedAt.UTC().Format("2006-01-02"), slug)
}

func buildContent(e Entry) ([]byte, error) {
	fm := frontmatter{
		ID:        e.Journal.ID,
		Title:     e.Journal.Title,
		Created:   e.Journal.CreatedAt.UTC().Format(time.RFC3339),
		Updated:   e.Journal.UpdatedAt.UTC().Format(time.RFC3339),
		WordCount: e.Journal.WordCount,
		Sentiment: e.Sentiment,
		Themes:    e.Themes,
	}
	if fm.Themes == nil {
		fm.Themes = []string{}
	}
	for _, in := range e.Insights {
		fm.Insights = append(fm.Insights, fmt.Sprintf("%s: %s", in.Kind, in.Content))
	}

	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(head)
	sb.WriteString("---\n\n")
	if e.Journal.Title != "" {
		sb.WriteString("# " + e.Journal.Title + "\n\n")
	}
	sb.WriteString(e.Journal.Content)
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// slugify converts a title to a file-name-safe slug
func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = repeatDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
