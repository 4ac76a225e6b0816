package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsActionable(t *testing.T) {
	cases := []struct {
		name        string
		title       string
		description string
		ok          bool
		reason      string
	}{
		{
			name:   "real task accepted",
			title:  "Fix the login page redirect bug before Friday release",
			ok:     true,
			reason: "",
		},
		{
			name:   "test placeholder",
			title:  "test suggestion",
			ok:     false,
			reason: ReasonTestPlaceholder,
		},
		{
			name:   "bare suggestion placeholder",
			title:  "Suggestion #3",
			ok:     false,
			reason: ReasonTestPlaceholder,
		},
		{
			name:   "leave status update",
			title:  "Taking leave tomorrow, back Monday",
			ok:     false,
			reason: ReasonStatusUpdate,
		},
		{
			name:        "sick note in description",
			title:       "Message from Priya about today",
			description: "I am not feeling well, will resume tomorrow",
			ok:          false,
			reason:      ReasonStatusUpdate,
		},
		{
			name:   "availability question",
			title:  "Are you free for a quick chat",
			ok:     false,
			reason: ReasonSimpleQuestion,
		},
		{
			name:   "meeting request with time",
			title:  "Sync at 4:30 pm about the roadmap",
			ok:     false,
			reason: ReasonMeetingRequest,
		},
		{
			name:   "fyi message",
			title:  "FYI the staging environment is down for maintenance",
			ok:     false,
			reason: ReasonFYIMessage,
		},
		{
			name:   "empty title",
			title:  "   ",
			ok:     false,
			reason: ReasonEmptyTitle,
		},
		{
			name:   "too short",
			title:  "Fix bug",
			ok:     false,
			reason: ReasonTooShort,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := IsActionable(tc.title, tc.description)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestIsActionableDeterministic(t *testing.T) {
	title := "Send the proposal to the design team"
	for i := 0; i < 5; i++ {
		ok, reason := IsActionable(title, "")
		assert.True(t, ok)
		assert.Empty(t, reason)
	}
}
