package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fentz26/sift/internal/models"
)

// ChatLog reads exported chat-log JSON files from a directory tree and
// surfaces messages that mention the configured user. Export files hold a
// channel name plus its messages; the channel falls back to the file stem.
type ChatLog struct {
	dir    string
	userID string
	now    func() time.Time
}

// NewChatLog creates an adapter over the export directory for one user ID.
func NewChatLog(dir, userID string) *ChatLog {
	return &ChatLog{dir: dir, userID: userID, now: time.Now}
}

func (c *ChatLog) Name() string            { return "chatlog" }
func (c *ChatLog) Type() models.SourceType { return models.SourceChat }

type chatExport struct {
	Channel  string        `json:"channel"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	TS       string `json:"ts"`
	User     string `json:"user"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// FetchRecent returns one RawItem per mention inside the lookback window.
// Unparseable export files are skipped rather than failing the whole scan.
func (c *ChatLog) FetchRecent(ctx context.Context, lookback time.Duration) ([]models.RawItem, error) {
	if c.userID == "" {
		return nil, nil
	}
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil, nil
	}

	paths, err := doublestar.FilepathGlob(filepath.Join(c.dir, "**", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob chat logs: %w", err)
	}

	cutoff := c.now().Add(-lookback)
	mention := "<@" + c.userID + ">"
	var items []models.RawItem

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read chat log: %w", err)
		}

		var export chatExport
		if err := json.Unmarshal(data, &export); err != nil {
			continue
		}

		channel := export.Channel
		if channel == "" {
			channel = strings.TrimSuffix(filepath.Base(path), ".json")
		}

		for _, msg := range export.Messages {
			if !strings.Contains(msg.Text, mention) {
				continue
			}

			ts, err := strconv.ParseFloat(msg.TS, 64)
			if err != nil {
				continue
			}
			occurred := time.Unix(int64(ts), 0)
			if occurred.Before(cutoff) {
				continue
			}

			from := msg.Username
			if from == "" {
				from = msg.User
			}

			items = append(items, models.RawItem{
				SourceType:   models.SourceChat,
				SourceID:     channel + "_" + msg.TS,
				Content:      strings.TrimSpace(strings.ReplaceAll(msg.Text, mention, "")),
				OccurredAt:   occurred,
				ContextLabel: "#" + channel + " from @" + from,
			})
		}
	}

	return items, nil
}
