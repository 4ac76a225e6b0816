// Package digest composes the daily briefing and pushes it to a webhook.
package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fentz26/sift/internal/models"
)

// Compose renders the daily briefing for the given day. Suggestions are
// grouped by origin: meeting suggestions under their meeting title, chat
// suggestions flat under their channel label.
func Compose(now time.Time, view *models.TodayView, suggestions []models.Todo) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("*Daily Briefing - %s*", now.Format("Monday, Jan 02, 2006")), "")

	if len(suggestions) > 0 {
		lines = append(lines, fmt.Sprintf("*NEW SUGGESTIONS* (%d items to review)", len(suggestions)), "")

		var meetings, chats []models.Todo
		for _, s := range suggestions {
			if s.SourceType == models.SourceChat {
				chats = append(chats, s)
			} else {
				meetings = append(meetings, s)
			}
		}

		if len(meetings) > 0 {
			lines = append(lines, "*From Meetings:*")
			// Group by meeting, preserving first-seen order.
			var order []string
			grouped := map[string][]models.Todo{}
			for _, s := range meetings {
				key := s.SourceContext
				if key == "" {
					key = "Unknown Meeting"
				}
				if _, ok := grouped[key]; !ok {
					order = append(order, key)
				}
				grouped[key] = append(grouped[key], s)
			}
			for _, meeting := range order {
				lines = append(lines, fmt.Sprintf("_%s_", meeting))
				for _, s := range grouped[meeting] {
					lines = append(lines, "    - "+s.Title)
				}
			}
			lines = append(lines, "")
		}

		if len(chats) > 0 {
			lines = append(lines, "*From Chat Mentions:*")
			for _, s := range chats {
				channel := s.SourceContext
				if channel == "" {
					channel = "#unknown"
				}
				lines = append(lines, fmt.Sprintf("%s: %s", channel, s.Title))
			}
			lines = append(lines, "")
		}
	}

	if len(view.Overdue) > 0 {
		lines = append(lines, fmt.Sprintf("*OVERDUE* (%d items)", len(view.Overdue)))
		for _, t := range view.Overdue {
			line := fmt.Sprintf("- %s (%dd)", t.Title, t.DaysOverdue)
			if t.SourceContext != "" {
				line += fmt.Sprintf(" _%s_", t.SourceContext)
			}
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}

	if len(view.Today) > 0 {
		lines = append(lines, fmt.Sprintf("*TODAY* (%d items)", len(view.Today)))
		lines = append(lines, todoLines(view.Today)...)
		lines = append(lines, "")
	}

	if len(view.ThisWeek) > 0 {
		lines = append(lines, fmt.Sprintf("*THIS WEEK* (%d items)", len(view.ThisWeek)))
		lines = append(lines, todoLines(view.ThisWeek)...)
		lines = append(lines, "")
	}

	if len(suggestions) == 0 && len(view.Overdue) == 0 && len(view.Today) == 0 && len(view.ThisWeek) == 0 {
		lines = append(lines, "All clear! No pending tasks.", "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

func todoLines(todos []models.Todo) []string {
	var lines []string
	for _, t := range todos {
		line := "- " + t.Title
		if t.SourceContext != "" {
			line += fmt.Sprintf(" _%s_", t.SourceContext)
		}
		lines = append(lines, line)
	}
	return lines
}

// Pusher delivers briefings to an incoming-webhook URL.
type Pusher struct {
	webhookURL string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewPusher creates a Pusher. An empty webhook URL yields a pusher whose
// Push reports not-configured.
func NewPusher(webhookURL string, log zerolog.Logger) *Pusher {
	return &Pusher{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.With().Str("component", "digest").Logger(),
	}
}

// Configured reports whether a webhook URL is set.
func (p *Pusher) Configured() bool {
	return p.webhookURL != ""
}

// Push sends the briefing text to the webhook.
func (p *Pusher) Push(ctx context.Context, text string) error {
	if !p.Configured() {
		return fmt.Errorf("digest webhook not configured")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encode digest payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build digest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push digest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push digest: webhook returned %d", resp.StatusCode)
	}

	p.log.Info().Msg("daily briefing pushed")
	return nil
}
