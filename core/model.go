package core

import (
	"sort"
	"strings"
	"time"
)

type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusTentative EventStatus = "tentative"
	EventStatusCancelled EventStatus = "cancelled"
)

type MeetingType string

const (
	MeetingTypeDiscovery   MeetingType = "discovery"
	MeetingTypeDemo        MeetingType = "demo"
	MeetingTypeNegotiation MeetingType = "negotiation"
	MeetingTypeFollowUp    MeetingType = "follow_up"
	MeetingTypeClosing     MeetingType = "closing"
	MeetingTypeInternal    MeetingType = "internal"
	MeetingTypeOther       MeetingType = "other"
)

// Attendee is a single participant record on a calendar event. Fields
// default to zero values; none are required to be present.
type Attendee struct {
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	ResponseStatus string `json:"response_status,omitempty"`
	Type           string `json:"type,omitempty"`
	Optional       bool   `json:"optional,omitempty"`
}

// CalendarEvent is the normalized event representation handed to the
// engines by the calendar-sync layer. The engines never mutate it.
type CalendarEvent struct {
	Id             string      `json:"id,omitempty"`
	Title          string      `json:"title,omitempty"`
	Description    string      `json:"description,omitempty"`
	StartTime      time.Time   `json:"start_time,omitempty"`
	EndTime        time.Time   `json:"end_time,omitempty"`
	Timezone       string      `json:"timezone,omitempty"`
	Location       string      `json:"location,omitempty"`
	MeetingURL     string      `json:"meeting_url,omitempty"`
	IsAllDay       bool        `json:"is_all_day,omitempty"`
	IsRecurring    bool        `json:"is_recurring,omitempty"`
	RecurrenceRule string      `json:"recurrence_rule,omitempty"`
	OrganizerEmail string      `json:"organizer_email,omitempty"`
	Attendees      []Attendee  `json:"attendees,omitempty"`
	EventStatus    EventStatus `json:"event_status,omitempty"`
}

// DurationMinutes may be zero or negative for malformed events; scoring
// treats such values as zero signal rather than rejecting the event.
func (e *CalendarEvent) DurationMinutes() float64 {
	return e.EndTime.Sub(e.StartTime).Minutes()
}

// IsInternalEmail reports whether the address belongs to the
// organization's own domain.
func IsInternalEmail(email string, orgDomain string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	return email != "" && strings.HasSuffix(email, "@"+strings.ToLower(orgDomain))
}

func (e *CalendarEvent) ExternalAttendees(orgDomain string) []Attendee {
	var out []Attendee

	for _, a := range e.Attendees {
		if !IsInternalEmail(a.Email, orgDomain) {
			out = append(out, a)
		}
	}

	return out
}

func (e *CalendarEvent) InternalAttendees(orgDomain string) []Attendee {
	var out []Attendee

	for _, a := range e.Attendees {
		if IsInternalEmail(a.Email, orgDomain) {
			out = append(out, a)
		}
	}

	return out
}

// AttendeeEmails returns the sorted, de-duplicated, lower-cased
// attendee addresses. Blank addresses are dropped.
func (e *CalendarEvent) AttendeeEmails() []string {
	seen := make(map[string]bool, len(e.Attendees))

	var out []string

	for _, a := range e.Attendees {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if email == "" || seen[email] {
			continue
		}

		seen[email] = true
		out = append(out, email)
	}

	sort.Strings(out)

	return out
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v float64, lo float64, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
