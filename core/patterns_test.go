package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeMeetingPatterns(t *testing.T) {
	t.Parallel()

	engine := newTestDetectionEngine(t)
	engine.clock = func() time.Time { return testWednesday.Add(6 * 24 * time.Hour) }

	oldStart := testWednesday.AddDate(0, 0, -60)
	oldEvent := &CalendarEvent{
		Id:          "evt-old-1",
		Title:       "Pricing Discussion",
		StartTime:   oldStart,
		EndTime:     oldStart.Add(45 * time.Minute),
		EventStatus: EventStatusConfirmed,
	}

	events := []*CalendarEvent{salesDemoEvent(), standupEvent(), nil, oldEvent}

	analysis, err := engine.AnalyzeMeetingPatterns(context.Background(), events, 30)
	require.NoError(t, err)

	assert.Equal(t, 2, analysis.TotalEvents)
	assert.Equal(t, 1, analysis.SalesMeetings)
	assert.Equal(t, 1, analysis.TypeCounts[MeetingTypeDemo])
	assert.Equal(t, 1, analysis.TopDomains["acmecorp.com"])
	assert.Equal(t, 1, analysis.PeakHours["afternoon"])
	assert.Equal(t, 1, analysis.PeakHours["morning"])
	assert.InDelta(t, 0.5, analysis.RecurringRatio, 1e-9)
	assert.Equal(t, 1, analysis.MediumConfidence)
	assert.Equal(t, 1, analysis.LowConfidence)
	assert.Zero(t, analysis.HighConfidence)
	assert.Equal(t, []string{"event[2]"}, analysis.SkippedEventIds)

	// Average confidence across the two kept events is below 0.5.
	require.Len(t, analysis.Recommendations, 1)
	assert.Contains(t, analysis.Recommendations[0], "average detection confidence is low")
}

func TestAnalyzeMeetingPatterns_NoCutoff(t *testing.T) {
	t.Parallel()

	engine := newTestDetectionEngine(t)
	engine.clock = func() time.Time { return testWednesday.Add(6 * 24 * time.Hour) }

	oldStart := testWednesday.AddDate(0, 0, -400)
	events := []*CalendarEvent{
		{
			Id:          "evt-ancient",
			Title:       "Contract Signing",
			StartTime:   oldStart,
			EndTime:     oldStart.Add(30 * time.Minute),
			EventStatus: EventStatusConfirmed,
		},
	}

	analysis, err := engine.AnalyzeMeetingPatterns(context.Background(), events, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, analysis.TotalEvents)
}

func TestAnalyzeMeetingPatterns_Empty(t *testing.T) {
	t.Parallel()

	engine := newTestDetectionEngine(t)

	analysis, err := engine.AnalyzeMeetingPatterns(context.Background(), nil, 30)
	require.NoError(t, err)

	assert.Zero(t, analysis.TotalEvents)
	assert.Empty(t, analysis.Recommendations)
	assert.Zero(t, analysis.RecurringRatio)
}

func TestHourBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want string
	}{
		{6, "early_morning"},
		{9, "morning"},
		{12, "lunch"},
		{14, "afternoon"},
		{18, "evening"},
		{3, "off_hours"},
		{22, "off_hours"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, hourBucket(tt.hour), "hour %d", tt.hour)
	}
}

func TestEmailDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acmecorp.com", emailDomain(" Buyer@AcmeCorp.com "))
	assert.Empty(t, emailDomain("no-at-sign"))
	assert.Empty(t, emailDomain(""))
}
