// Package filter classifies candidate actions as actionable or not.
//
// The classifier is a pure, ordered rule table: each rule names a rejection
// reason and the pattern that triggers it; the first match wins. Keeping the
// rules in one table makes the set independently testable and extensible
// without touching control flow.
package filter

import (
	"regexp"
	"strings"
)

// Rejection reason codes, in evaluation order.
const (
	ReasonEmptyTitle      = "empty_title"
	ReasonTestPlaceholder = "test_placeholder"
	ReasonStatusUpdate    = "status_update"
	ReasonSimpleQuestion  = "simple_question"
	ReasonMeetingRequest  = "meeting_request"
	ReasonFYIMessage      = "fyi_message"
	ReasonTooShort        = "too_short"
)

const minTitleLength = 10

// rule matches either the title alone or the combined title+description.
type rule struct {
	reason   string
	combined bool
	patterns []*regexp.Regexp
}

var rules = []rule{
	{
		reason: ReasonTestPlaceholder,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^test\s`),
			regexp.MustCompile(`(?i)^(new\s+)?suggestion\s*#?\d*$`),
			regexp.MustCompile(`(?i)^imported suggestion`),
			regexp.MustCompile(`(?i)^follow up on (the |this )?project$`),
		},
	},
	{
		reason:   ReasonStatusUpdate,
		combined: true,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sick|unwell|not feeling well|under the weather|fever|doctor)\b`),
			regexp.MustCompile(`(?i)\b(on|taking|took)\s+(a\s+)?(leave|day off|half day)\b`),
			regexp.MustCompile(`(?i)\bout of office\b|\booo\b`),
			regexp.MustCompile(`(?i)\bwill (resume|be back)\b|\bback (on )?(mon|tues|wednes|thurs|fri|satur|sun)day\b`),
			regexp.MustCompile(`(?i)\b(holiday|vacation|pto)\b`),
		},
	},
	{
		reason: ReasonSimpleQuestion,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(are|r)\s+(you|u|we)\s+(available|free|joining|there|around)\b`),
			regexp.MustCompile(`(?i)^can\s+(you|we)\s+(join|sync|meet|talk|connect|catch up|hop on)\b`),
			regexp.MustCompile(`(?i)^(you|u)\s+(there|free|available)\s*\?`),
		},
	},
	{
		reason: ReasonMeetingRequest,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sync|meet|call|catch up)\s+(today|now|tonight)\b`),
			regexp.MustCompile(`(?i)\bat\s+\d{1,2}([:.]\d{2})?\s*(am|pm)\b`),
			regexp.MustCompile(`(?i)\b\d{1,2}([:.]\d{2})?\s*(am|pm)?\s*(-|to|–)\s*\d{1,2}([:.]\d{2})?\s*(am|pm)\b`),
			regexp.MustCompile(`(?i)^(quick\s+)?(sync|call|meeting)\s`),
		},
	},
	{
		reason: ReasonFYIMessage,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^fyi\b`),
			regexp.MustCompile(`(?i)^heads[\s-]?up\b`),
			regexp.MustCompile(`(?i)^for your (information|reference|awareness)\b`),
		},
	},
}

// IsActionable reports whether a candidate should become a suggestion.
// On rejection the second return value is the reason code; accepted
// candidates return (true, ""). The function is pure: the same inputs
// always produce the same result.
func IsActionable(title, description string) (bool, string) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return false, ReasonEmptyTitle
	}

	combined := trimmed
	if description != "" {
		combined = trimmed + " " + description
	}

	for _, r := range rules {
		target := trimmed
		if r.combined {
			target = combined
		}
		for _, p := range r.patterns {
			if p.MatchString(target) {
				return false, r.reason
			}
		}
	}

	if len(title) < minTitleLength {
		return false, ReasonTooShort
	}

	return true, ""
}
