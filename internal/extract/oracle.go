// Package extract turns normalized text into candidate actions, either
// through the zero-cost heuristic pattern pass or a pluggable extraction
// oracle backed by a text-understanding service.
package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fentz26/sift/internal/models"
)

// Client-side invariants enforced on every oracle result, regardless of how
// faithful the backend is.
const (
	maxTitleLength    = 150
	defaultConfidence = 0.8
)

// Oracle extracts candidate actions from content. Implementations must
// recover from backend failures internally: a broken, slow, or unreachable
// backend yields an empty list, never an error, so the caller's fallback
// chain stays simple.
type Oracle interface {
	// Extract returns at most maxItems candidates for the content. The
	// source type steers the backend's framing of whose tasks to find.
	Extract(ctx context.Context, content string, sourceType models.SourceType, maxItems int) []models.CandidateAction

	// Available reports whether the oracle is configured and ready.
	Available() bool
}

// Config holds oracle backend settings.
type Config struct {
	Provider       string
	APIKey         string
	Model          string
	BaseURL        string
	TimeoutSeconds int
}

// disabledOracle is returned when no backend is configured.
type disabledOracle struct{}

func (disabledOracle) Extract(context.Context, string, models.SourceType, int) []models.CandidateAction {
	return nil
}

func (disabledOracle) Available() bool { return false }

// Disabled returns an oracle that never produces candidates.
func Disabled() Oracle { return disabledOracle{} }

// oracleItem is the wire shape of one extracted action item. Confidence is
// a pointer so an omitted value can default rather than clamp to zero.
type oracleItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence"`
	Owner       string   `json:"owner,omitempty"`
	Due         string   `json:"due,omitempty"`
}

// parseCandidates decodes an oracle response into clamped candidates. It
// tolerates a markdown code fence around the JSON, an object with an
// action_items key, or a bare array; anything else decodes to nil.
func parseCandidates(raw string, maxItems int) []models.CandidateAction {
	raw = stripCodeFence(strings.TrimSpace(raw))
	if raw == "" {
		return nil
	}

	var wrapped struct {
		ActionItems []oracleItem `json:"action_items"`
	}
	var items []oracleItem
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		items = wrapped.ActionItems
	} else {
		var bare []oracleItem
		if err := json.Unmarshal([]byte(raw), &bare); err != nil {
			return nil
		}
		items = bare
	}

	var out []models.CandidateAction
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		title = truncateRunes(title, maxTitleLength)

		conf := defaultConfidence
		if it.Confidence != nil {
			conf = *it.Confidence
		}
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}

		out = append(out, models.CandidateAction{
			Title:       title,
			Description: strings.TrimSpace(it.Description),
			Confidence:  conf,
			OwnerHint:   strings.TrimSpace(it.Owner),
			DueHint:     strings.TrimSpace(it.Due),
		})
		if len(out) >= maxItems {
			break
		}
	}
	return out
}

// stripCodeFence removes a surrounding ```json fence if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// truncateRunes clamps s to n runes, never splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
