package sources

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fentz26/sift/internal/models"
)

func writeCache(t *testing.T, state map[string]any) string {
	t.Helper()
	inner, err := json.Marshal(map[string]any{"state": state})
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]any{"cache": string(inner)})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cache-v3.json")
	require.NoError(t, os.WriteFile(path, outer, 0644))
	return path
}

func TestMeetingCacheFetchRecent(t *testing.T) {
	recent := time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339)
	stale := time.Now().UTC().Add(-72 * time.Hour).Format(time.RFC3339)

	path := writeCache(t, map[string]any{
		"documents": map[string]any{
			"doc_1": map[string]any{
				"title":      "Design review",
				"created_at": recent,
				"notes":      map[string]any{"type": "doc"},
			},
			"doc_2": map[string]any{
				"title":      "Old standup",
				"created_at": stale,
			},
			"doc_3": map[string]any{
				"title":      "Deleted one",
				"created_at": recent,
				"deleted_at": recent,
			},
		},
		"documentPanels": map[string]any{
			"doc_1": map[string]any{
				"panel_a": map[string]any{"title": "Transcript", "content": "raw words"},
				"panel_b": map[string]any{"title": "Summary", "content": "<p>Send the deck to finance</p>"},
			},
		},
	})

	items, err := NewMeetingCache(path).FetchRecent(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	require.Equal(t, models.SourceMeeting, item.SourceType)
	require.Equal(t, "doc_1", item.SourceID)
	require.Equal(t, "Design review", item.ContextLabel)
	require.Equal(t, "<p>Send the deck to finance</p>", item.Content)
}

func TestMeetingCacheFallsBackToNotes(t *testing.T) {
	recent := time.Now().UTC().Format(time.RFC3339)
	notes := map[string]any{"type": "doc", "content": []any{}}

	path := writeCache(t, map[string]any{
		"documents": map[string]any{
			"doc_1": map[string]any{"title": "No summary", "created_at": recent, "notes": notes},
		},
	})

	items, err := NewMeetingCache(path).FetchRecent(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Content)
}

func TestMeetingCacheMissingFile(t *testing.T) {
	items, err := NewMeetingCache(filepath.Join(t.TempDir(), "nope.json")).FetchRecent(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestMeetingCacheCorruptPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache-v3.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cache": "not json"}`), 0644))

	_, err := NewMeetingCache(path).FetchRecent(context.Background(), time.Hour)
	require.Error(t, err)
}
