package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fentz26/sift/internal/models"
)

// MeetingCache reads a meeting-notes app's local cache file. The cache is
// JSON inside JSON: the outer object carries the real payload as a string
// under "cache", whose "state" holds documents keyed by ID plus per-document
// panels.
type MeetingCache struct {
	path string
	now  func() time.Time
}

// NewMeetingCache creates an adapter for the cache file at path.
func NewMeetingCache(path string) *MeetingCache {
	return &MeetingCache{path: path, now: time.Now}
}

func (m *MeetingCache) Name() string            { return "meetingcache" }
func (m *MeetingCache) Type() models.SourceType { return models.SourceMeeting }

type cacheDocument struct {
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	DeletedAt string `json:"deleted_at"`
	Notes     any    `json:"notes"`
}

type cachePanel struct {
	Title   string `json:"title"`
	Content any    `json:"content"`
}

type cacheState struct {
	Documents      map[string]cacheDocument         `json:"documents"`
	DocumentPanels map[string]map[string]cachePanel `json:"documentPanels"`
}

// FetchRecent returns one RawItem per live document created inside the
// lookback window. A missing cache file is not an error; the source simply
// has nothing to offer.
func (m *MeetingCache) FetchRecent(ctx context.Context, lookback time.Duration) ([]models.RawItem, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read meeting cache: %w", err)
	}

	var outer struct {
		Cache string `json:"cache"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("parse meeting cache: %w", err)
	}

	var inner struct {
		State cacheState `json:"state"`
	}
	if err := json.Unmarshal([]byte(outer.Cache), &inner); err != nil {
		return nil, fmt.Errorf("parse meeting cache payload: %w", err)
	}

	cutoff := m.now().Add(-lookback)
	var items []models.RawItem

	for docID, doc := range inner.State.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if doc.DeletedAt != "" {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, doc.CreatedAt)
		if err != nil {
			continue
		}
		if createdAt.Before(cutoff) {
			continue
		}

		title := doc.Title
		if title == "" {
			title = "Untitled Meeting"
		}

		items = append(items, models.RawItem{
			SourceType:   models.SourceMeeting,
			SourceID:     docID,
			Content:      m.documentContent(docID, doc, inner.State.DocumentPanels),
			OccurredAt:   createdAt,
			ContextLabel: title,
		})
	}

	return items, nil
}

// documentContent picks the best content for extraction: the Summary panel
// if one exists (HTML string or block tree), otherwise the raw notes tree.
func (m *MeetingCache) documentContent(docID string, doc cacheDocument, panels map[string]map[string]cachePanel) any {
	for _, panel := range panels[docID] {
		if panel.Title == "Summary" && panel.Content != nil {
			return panel.Content
		}
	}
	return doc.Notes
}
