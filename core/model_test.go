package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarEvent_DurationMinutes(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event CalendarEvent
		want  float64
	}{
		{
			name:  "one hour",
			event: CalendarEvent{StartTime: start, EndTime: start.Add(time.Hour)},
			want:  60,
		},
		{
			name:  "zero value times",
			event: CalendarEvent{},
			want:  0,
		},
		{
			name:  "end before start",
			event: CalendarEvent{StartTime: start, EndTime: start.Add(-30 * time.Minute)},
			want:  -30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.want, tt.event.DurationMinutes(), 1e-9)
		})
	}
}

func TestIsInternalEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		email  string
		domain string
		want   bool
	}{
		{"internal", "rep@niatech.io", "niatech.io", true},
		{"external", "buyer@acmecorp.com", "niatech.io", false},
		{"case and whitespace", "  Rep@NiaTech.IO ", "niatech.io", true},
		{"empty email", "", "niatech.io", false},
		{"domain is substring only", "rep@notniatech.io", "niatech.io", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, IsInternalEmail(tt.email, tt.domain))
		})
	}
}

func TestCalendarEvent_AttendeeSplit(t *testing.T) {
	t.Parallel()

	event := &CalendarEvent{
		Attendees: []Attendee{
			{Email: "rep@niatech.io"},
			{Email: "buyer@acmecorp.com"},
			{Email: "cto@acmecorp.com"},
		},
	}

	assert.Len(t, event.InternalAttendees("niatech.io"), 1)
	assert.Len(t, event.ExternalAttendees("niatech.io"), 2)
}

func TestCalendarEvent_AttendeeEmails(t *testing.T) {
	t.Parallel()

	event := &CalendarEvent{
		Attendees: []Attendee{
			{Email: "Zed@acmecorp.com"},
			{Email: "abe@niatech.io"},
			{Email: "zed@acmecorp.com"},
			{Email: "   "},
		},
	}

	assert.Equal(t, []string{"abe@niatech.io", "zed@acmecorp.com"}, event.AttendeeEmails())
}
