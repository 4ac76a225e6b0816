package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeArchiveFile(t *testing.T, root, name, content string) {
	t.Helper()
	yearDir := filepath.Join(root, fmt.Sprintf("%d", time.Now().Year()))
	require.NoError(t, os.MkdirAll(yearDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(yearDir, name), []byte(content), 0644))
}

func TestArchiveFetchRecent(t *testing.T) {
	root := t.TempDir()
	writeArchiveFile(t, root, "2026-08-28_design-sync.md", `# Design Sync

Some narrative notes.

## ACTION ITEMS
Owner: Priya | Task: Send the budget sheet to finance | Due: Friday
Owner: Sam | Task: Update the rollout checklist
- [action] Circulate the final mockups before Thursday

## NOTES
More narrative.
`)

	items, err := NewArchive(root).FetchRecent(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	require.Equal(t, "archive_2026-08-28_design-sync", item.SourceID)
	require.Equal(t, "Design Sync", item.ContextLabel)

	content := item.Content.(string)
	require.Contains(t, content, "Action item: Send the budget sheet to finance (Owner: Priya) [Due: Friday]")
	require.Contains(t, content, "Action item: Update the rollout checklist (Owner: Sam)")
	require.Contains(t, content, "Action item: Circulate the final mockups before Thursday")
	require.NotContains(t, content, "More narrative")
}

func TestArchiveSkipsIndexAndActionless(t *testing.T) {
	root := t.TempDir()
	writeArchiveFile(t, root, "_INDEX.md", "# Index\n## ACTION ITEMS\nOwner: X | Task: Should never surface here\n")
	writeArchiveFile(t, root, "2026-08-28_no-actions.md", "# Quiet Meeting\n\nJust notes, no action section.\n")

	items, err := NewArchive(root).FetchRecent(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestArchiveLookbackWindow(t *testing.T) {
	root := t.TempDir()
	writeArchiveFile(t, root, "2026-08-01_old-sync.md", "# Old Sync\n## ACTION ITEMS\nOwner: X | Task: Review the archived notes\n")

	old := time.Now().Add(-48 * time.Hour)
	yearDir := filepath.Join(root, fmt.Sprintf("%d", time.Now().Year()))
	require.NoError(t, os.Chtimes(filepath.Join(yearDir, "2026-08-01_old-sync.md"), old, old))

	items, err := NewArchive(root).FetchRecent(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestArchiveMissingYearDir(t *testing.T) {
	items, err := NewArchive(t.TempDir()).FetchRecent(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestActionLinesDedupes(t *testing.T) {
	lines := actionLines(`## ACTION ITEMS
Owner: Priya | Task: Send the budget sheet
- Send the budget sheet
- Something else entirely here
`)
	joined := strings.Join(lines, "\n")
	require.Equal(t, 2, len(lines), joined)
}
