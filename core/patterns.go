package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Peak-hour histogram buckets.
const (
	bucketEarlyMorning = "early_morning"
	bucketMorning      = "morning"
	bucketLunch        = "lunch"
	bucketAfternoon    = "afternoon"
	bucketEvening      = "evening"
	bucketOffHours     = "off_hours"
)

// Aggregate thresholds that trigger recommendations.
const (
	lowAverageConfidence = 0.5
	longAverageDuration  = 90.0
	shortAverageDuration = 20.0
	highRecurringRatio   = 0.7
	lowSalesRatio        = 0.2
)

// PatternAnalysis aggregates detection output over a user's event
// history.
type PatternAnalysis struct {
	TotalEvents      int                 `json:"total_events"`
	SalesMeetings    int                 `json:"sales_meetings"`
	TypeCounts       map[MeetingType]int `json:"type_counts"`
	TopDomains       map[string]int      `json:"top_domains"`
	PeakHours        map[string]int      `json:"peak_hours"`
	RecurringRatio   float64             `json:"recurring_ratio"`
	HighConfidence   int                 `json:"high_confidence"`
	MediumConfidence int                 `json:"medium_confidence"`
	LowConfidence    int                 `json:"low_confidence"`
	Recommendations  []string            `json:"recommendations,omitempty"`
	SkippedEventIds  []string            `json:"skipped_event_ids,omitempty"`
}

// AnalyzeMeetingPatterns aggregates detection and classification over
// the events that started within the last daysBack days (daysBack <= 0
// means no cutoff). A malformed entry is skipped and recorded, never
// fatal for the batch.
func (e *DetectionEngine) AnalyzeMeetingPatterns(ctx context.Context, events []*CalendarEvent, daysBack int) (PatternAnalysis, error) {
	start := time.Now()

	var err error

	defer func() { e.metrics.Observe(ctx, "analyze_meeting_patterns", start, err) }()

	ctx, span := e.tracer.Start(ctx, "detection.AnalyzeMeetingPatterns")
	defer span.End()

	analysis := PatternAnalysis{
		TypeCounts: make(map[MeetingType]int),
		TopDomains: make(map[string]int),
		PeakHours:  make(map[string]int),
	}

	var cutoff time.Time
	if daysBack > 0 {
		cutoff = e.clock().AddDate(0, 0, -daysBack)
	}

	var recurring int

	var confidenceSum, durationSum float64

	for i, event := range events {
		if event == nil {
			// Nil entries have no id; record their position instead.
			analysis.SkippedEventIds = append(analysis.SkippedEventIds, fmt.Sprintf("event[%d]", i))
			log.Ctx(ctx).Warn().Int("index", i).Msg("skipping nil event in pattern analysis")

			continue
		}

		if !cutoff.IsZero() && event.StartTime.Before(cutoff) {
			continue
		}

		result, detectErr := e.DetectSalesMeeting(event)
		if detectErr != nil {
			analysis.SkippedEventIds = append(analysis.SkippedEventIds, event.Id)
			log.Ctx(ctx).Warn().Err(detectErr).Str("event_id", event.Id).Msg("skipping event in pattern analysis")

			continue
		}

		analysis.TotalEvents++
		confidenceSum += result.Confidence
		durationSum += event.DurationMinutes()
		analysis.PeakHours[hourBucket(event.StartTime.Hour())]++

		if event.IsRecurring {
			recurring++
		}

		switch {
		case result.Confidence >= e.cfg.Detection.HighConfidence:
			analysis.HighConfidence++
		case result.Confidence >= e.cfg.Detection.MediumConfidence:
			analysis.MediumConfidence++
		default:
			analysis.LowConfidence++
		}

		if !result.IsSalesMeeting {
			continue
		}

		analysis.SalesMeetings++

		meetingType, classifyErr := e.classifier.ClassifyMeetingType(event)
		if classifyErr == nil {
			analysis.TypeCounts[meetingType]++
		}

		for _, attendee := range event.ExternalAttendees(e.cfg.OrgDomain) {
			if domain := emailDomain(attendee.Email); domain != "" {
				analysis.TopDomains[domain]++
			}
		}
	}

	if analysis.TotalEvents > 0 {
		analysis.RecurringRatio = float64(recurring) / float64(analysis.TotalEvents)
		analysis.Recommendations = e.recommendFromAggregates(
			analysis,
			confidenceSum/float64(analysis.TotalEvents),
			durationSum/float64(analysis.TotalEvents),
		)
	}

	log.Ctx(ctx).Debug().
		Int("events", analysis.TotalEvents).
		Int("sales_meetings", analysis.SalesMeetings).
		Int("skipped", len(analysis.SkippedEventIds)).
		Msg("meeting pattern analysis complete")

	return analysis, nil
}

func (e *DetectionEngine) recommendFromAggregates(analysis PatternAnalysis, avgConfidence float64, avgDuration float64) []string {
	var out []string

	if avgConfidence < lowAverageConfidence {
		out = append(out, "average detection confidence is low; use more descriptive meeting titles")
	}

	if avgDuration > longAverageDuration {
		out = append(out, "meetings run long on average; set agendas and trim invite lists")
	}

	if avgDuration > 0 && avgDuration < shortAverageDuration {
		out = append(out, "meetings are very short on average; consider consolidating quick check-ins")
	}

	if analysis.RecurringRatio > highRecurringRatio {
		out = append(out, "most meetings are recurring; review standing series for continued relevance")
	}

	if float64(analysis.SalesMeetings) < lowSalesRatio*float64(analysis.TotalEvents) {
		out = append(out, "few sales meetings detected in this window; verify external attendees are on the invites")
	}

	return out
}

func hourBucket(hour int) string {
	switch {
	case hour >= 5 && hour < 8:
		return bucketEarlyMorning
	case hour >= 8 && hour < 11:
		return bucketMorning
	case hour >= 11 && hour < 13:
		return bucketLunch
	case hour >= 13 && hour < 17:
		return bucketAfternoon
	case hour >= 17 && hour < 20:
		return bucketEvening
	default:
		return bucketOffHours
	}
}

func emailDomain(email string) string {
	_, domain, found := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	if !found {
		return ""
	}

	return domain
}
