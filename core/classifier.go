package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Archetype scoring increments and context adjustments.
const (
	archetypeKeywordScore  = 0.1
	archetypePatternScore  = 0.15
	archetypeDurationScore = 0.2

	attendeeFitAdjustment = 0.1
	ratioCloseBand        = 0.2
	ratioFarBand          = 0.5
	ratioAdjustment       = 0.1

	recurringFollowUpBoost    = 0.2
	recurringInternalBoost    = 0.1
	recurringDiscoveryPenalty = 0.2
	recurringClosingPenalty   = 0.3
	offHoursBoost             = 0.1

	lowClassificationConfidence = 0.5
	shortClassifiedMinutes      = 15.0
	longClassifiedMinutes       = 120.0
)

// classificationOrder fixes the candidate set and tie-breaking order.
// Internal is scored for explainability but never returned.
var classificationOrder = []MeetingType{
	MeetingTypeDiscovery,
	MeetingTypeDemo,
	MeetingTypeNegotiation,
	MeetingTypeFollowUp,
	MeetingTypeClosing,
}

// ClassificationDetail exposes the full scoring breakdown behind a
// classification.
type ClassificationDetail struct {
	MeetingType     MeetingType              `json:"meeting_type"`
	Confidence      float64                  `json:"confidence"`
	RawScores       map[MeetingType]float64  `json:"raw_scores"`
	AdjustedScores  map[MeetingType]float64  `json:"adjusted_scores"`
	MatchedKeywords map[MeetingType][]string `json:"matched_keywords,omitempty"`
	MatchedPatterns map[MeetingType][]string `json:"matched_patterns,omitempty"`
	ContextFactors  []string                 `json:"context_factors,omitempty"`
}

// BatchClassification aggregates classification over a list of events.
type BatchClassification struct {
	TotalEvents      int                 `json:"total_events"`
	Distribution     map[MeetingType]int `json:"distribution"`
	HighConfidence   int                 `json:"high_confidence"`
	MediumConfidence int                 `json:"medium_confidence"`
	LowConfidence    int                 `json:"low_confidence"`
	SkippedEventIds  []string            `json:"skipped_event_ids,omitempty"`
}

// TypeClassifier scores events against the meeting-type archetypes.
// Usually fed events already flagged by the detection engine, but it
// functions standalone on any event.
type TypeClassifier struct {
	cfg      Config
	patterns map[MeetingType][]*regexp.Regexp
	tracer   trace.Tracer
	metrics  *EngineMetrics
}

func NewTypeClassifier(cfg Config) (*TypeClassifier, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	patterns := make(map[MeetingType][]*regexp.Regexp, len(cfg.Archetypes))

	for meetingType, profile := range cfg.Archetypes {
		compiled := make([]*regexp.Regexp, 0, len(profile.Patterns))
		for _, pattern := range profile.Patterns {
			compiled = append(compiled, regexp.MustCompile(pattern))
		}

		patterns[meetingType] = compiled
	}

	return &TypeClassifier{
		cfg:      cfg,
		patterns: patterns,
		tracer:   otel.GetTracerProvider().Tracer("nia-meeting-intel/core"),
		metrics:  NewEngineMetrics(),
	}, nil
}

// ClassifyMeetingType picks the best-scoring sales archetype, or Other
// when no archetype clears the confidence floor. It never returns
// Internal.
func (c *TypeClassifier) ClassifyMeetingType(event *CalendarEvent) (MeetingType, error) {
	if event == nil {
		return "", ErrNilEvent
	}

	detail := c.evaluate(event)

	return detail.MeetingType, nil
}

// ClassificationConfidence explains the score of a previously
// classified type: raw and adjusted scores for every archetype, matched
// vocabulary, and the context factors that shifted the result.
func (c *TypeClassifier) ClassificationConfidence(event *CalendarEvent, meetingType MeetingType) (ClassificationDetail, error) {
	if event == nil {
		return ClassificationDetail{}, ErrNilEvent
	}

	detail := c.evaluate(event)
	if score, ok := detail.AdjustedScores[meetingType]; ok {
		detail.Confidence = score
	}

	return detail, nil
}

// SuggestImprovements returns rule-based suggestions for events whose
// classification signal is weak.
func (c *TypeClassifier) SuggestImprovements(event *CalendarEvent) ([]string, error) {
	if event == nil {
		return nil, ErrNilEvent
	}

	detail := c.evaluate(event)

	var out []string

	if detail.Confidence < lowClassificationConfidence {
		out = append(out, "include type-specific vocabulary in the title, e.g. demo, pricing, or follow-up")
	}

	if strings.TrimSpace(event.Description) == "" {
		out = append(out, "describe the meeting goal so the type can be scored from more than the title")
	}

	if len(event.Attendees) == 0 {
		out = append(out, "add attendees; audience size and mix are classification signals")
	}

	if detail.MeetingType == MeetingTypeOther {
		out = append(out, "the meeting matched no sales archetype; rename it after its stage in the deal")
	}

	duration := event.DurationMinutes()
	if duration > 0 && duration < shortClassifiedMinutes {
		out = append(out, "the slot is very short; extend it to fit a substantive conversation")
	}

	if duration > longClassifiedMinutes {
		out = append(out, "the slot is very long; split it or shorten it to keep the meeting focused")
	}

	return out, nil
}

// BatchClassify classifies a list of events, skipping malformed entries
// instead of aborting the batch.
func (c *TypeClassifier) BatchClassify(ctx context.Context, events []*CalendarEvent) (BatchClassification, error) {
	start := time.Now()

	var err error

	defer func() { c.metrics.Observe(ctx, "batch_classify", start, err) }()

	ctx, span := c.tracer.Start(ctx, "classifier.BatchClassify")
	defer span.End()

	batch := BatchClassification{Distribution: make(map[MeetingType]int)}

	for i, event := range events {
		if event == nil {
			// Nil entries have no id; record their position instead.
			batch.SkippedEventIds = append(batch.SkippedEventIds, fmt.Sprintf("event[%d]", i))
			log.Ctx(ctx).Warn().Int("index", i).Msg("skipping nil event in batch classification")

			continue
		}

		detail := c.evaluate(event)

		batch.TotalEvents++
		batch.Distribution[detail.MeetingType]++

		switch {
		case detail.Confidence >= c.cfg.Detection.HighConfidence:
			batch.HighConfidence++
		case detail.Confidence >= c.cfg.Detection.MediumConfidence:
			batch.MediumConfidence++
		default:
			batch.LowConfidence++
		}
	}

	log.Ctx(ctx).Debug().
		Int("events", batch.TotalEvents).
		Int("skipped", len(batch.SkippedEventIds)).
		Msg("batch classification complete")

	return batch, nil
}

func (c *TypeClassifier) evaluate(event *CalendarEvent) ClassificationDetail {
	text := strings.ToLower(event.Title + " " + event.Description)

	detail := ClassificationDetail{
		RawScores:       make(map[MeetingType]float64, len(c.cfg.Archetypes)),
		AdjustedScores:  make(map[MeetingType]float64, len(c.cfg.Archetypes)),
		MatchedKeywords: make(map[MeetingType][]string),
		MatchedPatterns: make(map[MeetingType][]string),
	}

	for meetingType, profile := range c.cfg.Archetypes {
		score, keywords, patterns := c.scoreArchetype(text, event, meetingType, profile)

		detail.RawScores[meetingType] = score
		detail.AdjustedScores[meetingType] = score

		if len(keywords) > 0 {
			detail.MatchedKeywords[meetingType] = keywords
		}

		if len(patterns) > 0 {
			detail.MatchedPatterns[meetingType] = patterns
		}
	}

	detail.ContextFactors = c.adjustScores(event, detail.AdjustedScores)

	best := MeetingTypeOther

	var bestScore float64

	for _, meetingType := range classificationOrder {
		if score := detail.AdjustedScores[meetingType]; score > bestScore {
			best, bestScore = meetingType, score
		}
	}

	if bestScore < c.cfg.ClassificationFloor {
		best = MeetingTypeOther
	}

	detail.MeetingType = best
	detail.Confidence = bestScore

	return detail
}

func (c *TypeClassifier) scoreArchetype(text string, event *CalendarEvent, meetingType MeetingType, profile ArchetypeProfile) (float64, []string, []string) {
	var score float64

	var keywords, patterns []string

	for _, keyword := range profile.Keywords {
		if strings.Contains(text, keyword) {
			score += archetypeKeywordScore
			keywords = append(keywords, keyword)
		}
	}

	for i, re := range c.patterns[meetingType] {
		if re.MatchString(text) {
			score += archetypePatternScore
			patterns = append(patterns, profile.Patterns[i])
		}
	}

	duration := event.DurationMinutes()
	if duration >= profile.MinDurationMinutes && duration <= profile.MaxDurationMinutes {
		score += archetypeDurationScore
	}

	score += profile.ConfidenceBoost

	return clamp01(score), keywords, patterns
}

// adjustScores applies the context adjustments to every archetype score
// in place and returns a human-readable summary of the factors used.
func (c *TypeClassifier) adjustScores(event *CalendarEvent, scores map[MeetingType]float64) []string {
	var factors []string

	total := len(event.Attendees)
	factors = append(factors, fmt.Sprintf("%d attendees", total))

	var ratio float64

	if total > 0 {
		ratio = float64(len(event.ExternalAttendees(c.cfg.OrgDomain))) / float64(total)
		factors = append(factors, fmt.Sprintf("external ratio %.2f", ratio))
	}

	for meetingType, profile := range c.cfg.Archetypes {
		if total >= profile.MinAttendees && total <= profile.MaxAttendees {
			scores[meetingType] += attendeeFitAdjustment
		} else {
			scores[meetingType] -= attendeeFitAdjustment
		}

		if total > 0 {
			switch distance := ratio - profile.ExternalRatio; {
			case distance <= ratioCloseBand && distance >= -ratioCloseBand:
				scores[meetingType] += ratioAdjustment
			case distance > ratioFarBand || distance < -ratioFarBand:
				scores[meetingType] -= ratioAdjustment
			}
		}
	}

	if event.IsRecurring {
		factors = append(factors, "recurring series")

		bump(scores, MeetingTypeFollowUp, recurringFollowUpBoost)
		bump(scores, MeetingTypeInternal, recurringInternalBoost)
		bump(scores, MeetingTypeDiscovery, -recurringDiscoveryPenalty)
		bump(scores, MeetingTypeClosing, -recurringClosingPenalty)
	}

	if hour := event.StartTime.Hour(); hour < businessHourStart || hour > businessHourEnd {
		factors = append(factors, "off-hours start")

		bump(scores, MeetingTypeFollowUp, offHoursBoost)
		bump(scores, MeetingTypeInternal, offHoursBoost)
	}

	for meetingType, score := range scores {
		scores[meetingType] = clamp01(score)
	}

	return factors
}

// bump adjusts a score only for archetypes the configuration defines.
func bump(scores map[MeetingType]float64, meetingType MeetingType, delta float64) {
	if _, ok := scores[meetingType]; ok {
		scores[meetingType] += delta
	}
}
