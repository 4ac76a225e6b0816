package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fentz26/sift/internal/models"
)

// Archive reads processed meeting files from a year-partitioned markdown
// archive. Files carry a structured "## ACTION ITEMS" section whose rows the
// adapter flattens back into marked plain-text lines, so the downstream
// extraction pass treats them like any other content.
type Archive struct {
	root string
	now  func() time.Time
}

// NewArchive creates an adapter rooted at the archive directory.
func NewArchive(root string) *Archive {
	return &Archive{root: root, now: time.Now}
}

func (a *Archive) Name() string            { return "archive" }
func (a *Archive) Type() models.SourceType { return models.SourceMeeting }

var (
	headingPattern       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	actionSectionPattern = regexp.MustCompile(`(?is)##\s*ACTION ITEMS[^\n]*\n(.*?)(?:\n##|\z)`)
	structuredRowPattern = regexp.MustCompile(`(?i)Owner:\s*([^|\n]+)\|\s*Task:\s*([^|\n]+)(?:\|\s*Due:\s*([^|\n]+))?(?:\|\s*Context:\s*([^\n]+))?`)
)

// FetchRecent globs the current year's directory for markdown files modified
// inside the lookback window.
func (a *Archive) FetchRecent(ctx context.Context, lookback time.Duration) ([]models.RawItem, error) {
	yearDir := filepath.Join(a.root, fmt.Sprintf("%d", a.now().Year()))
	if _, err := os.Stat(yearDir); os.IsNotExist(err) {
		return nil, nil
	}

	paths, err := doublestar.FilepathGlob(filepath.Join(yearDir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("glob archive: %w", err)
	}

	cutoff := a.now().Add(-lookback)
	var items []models.RawItem

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(path)
		if strings.HasPrefix(name, "_") || strings.Contains(name, "INDEX") {
			continue
		}

		info, err := os.Stat(path)
		if err != nil || info.ModTime().Before(cutoff) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read archive file: %w", err)
		}

		item, ok := a.parseFile(name, string(data), info.ModTime())
		if ok {
			items = append(items, item)
		}
	}

	return items, nil
}

// parseFile builds a RawItem from one archive file, or reports false when
// the file carries no action items.
func (a *Archive) parseFile(name, content string, modTime time.Time) (models.RawItem, bool) {
	stem := strings.TrimSuffix(name, ".md")

	title := strings.ReplaceAll(stem, "-", " ")
	if m := headingPattern.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	lines := actionLines(content)
	if len(lines) == 0 {
		return models.RawItem{}, false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n\n", title)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	return models.RawItem{
		SourceType:   models.SourceMeeting,
		SourceID:     "archive_" + stem,
		Content:      b.String(),
		OccurredAt:   modTime,
		ContextLabel: title,
	}, true
}

// actionLines extracts the ACTION ITEMS section and flattens its rows into
// "Action item:" lines. Structured Owner|Task|Due|Context rows keep owner
// and due as a suffix; loose bullets pass through as-is.
func actionLines(content string) []string {
	m := actionSectionPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	section := m[1]

	var lines []string
	seen := map[string]bool{}

	for _, row := range structuredRowPattern.FindAllStringSubmatch(section, -1) {
		task := strings.TrimSpace(row[2])
		if task == "" {
			continue
		}
		line := "Action item: " + task
		if owner := strings.TrimSpace(row[1]); owner != "" {
			line += " (Owner: " + owner + ")"
		}
		if due := strings.TrimSpace(row[3]); due != "" {
			line += " [Due: " + due + "]"
		}
		if !seen[task] {
			seen[task] = true
			lines = append(lines, line)
		}
	}

	for _, raw := range strings.Split(section, "\n") {
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "-"))
		line = strings.TrimSpace(strings.TrimPrefix(line, "[action]"))
		if len(line) < 10 || strings.HasPrefix(line, "#") || strings.Contains(line, "Owner:") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			lines = append(lines, "Action item: "+line)
		}
	}

	return lines
}
