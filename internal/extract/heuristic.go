package extract

import (
	"regexp"
	"strings"
)

// Heuristic extraction limits. The cap protects downstream stages from
// pathological inputs like a pasted transcript of bullet spam.
const (
	maxHeuristicItems = 10
	minLineLength     = 15
)

// genericHeadings are bare section labels that look like list content but
// carry no action. Matched against the line after stripping a leading "- ".
var genericHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(next steps?|action items?|tasks?|summary|overview|key points?|takeaways?)$`),
	regexp.MustCompile(`(?i)^(conclusion|discussion|notes?|agenda|attendees?)$`),
}

// actionPatterns qualify a line as a candidate action. Kept as an ordered
// table so rules can be extended and tested without touching control flow.
var actionPatterns = []*regexp.Regexp{
	// Leading action verb with real content after it.
	regexp.MustCompile(`(?i)^-?\s*(send|review|check|confirm|schedule|call|email|create|update|fix|complete|prepare|share|follow up|discuss|finalize|approve|submit|test|deploy|document|implement)\s+\S.{5,}`),
	// Modal obligation with content on both sides.
	regexp.MustCompile(`(?i)^-?\s*\S.{5,}(need to|should|must|will|going to)\s+\S.{3,}`),
	// Explicit markers.
	regexp.MustCompile(`(?i)^-?\s*(?:todo|action item|task)[:.]?\s+\S.{5,}`),
}

// Heuristic pulls candidate action lines out of normalized text without any
// external call. It runs line by line: a line qualifies when it is long
// enough after stripping a leading bullet, is not a generic heading, and
// matches at least one action pattern. Identical lines are deduplicated and
// output is capped at maxHeuristicItems.
func Heuristic(text string) []string {
	if text == "" {
		return nil
	}

	var items []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		clean := strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if len(clean) < minLineLength {
			continue
		}

		if isGenericHeading(clean) {
			continue
		}

		for _, p := range actionPatterns {
			if p.MatchString(line) {
				if !seen[clean] {
					seen[clean] = true
					items = append(items, clean)
				}
				break
			}
		}

		if len(items) >= maxHeuristicItems {
			break
		}
	}

	return items
}

func isGenericHeading(line string) bool {
	for _, p := range genericHeadings {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
