package core

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type RelationshipStage string

const (
	StageInitial          RelationshipStage = "initial"
	StageRapidDevelopment RelationshipStage = "rapid_development"
	StageDeveloping       RelationshipStage = "developing"
	StageSlowDevelopment  RelationshipStage = "slow_development"
	StageDeepening        RelationshipStage = "deepening"
	StageIntensifying     RelationshipStage = "intensifying"
	StageBroadening       RelationshipStage = "broadening"
	StageStable           RelationshipStage = "stable"
	StageAccelerating     RelationshipStage = "accelerating"
	StageExpanding        RelationshipStage = "expanding"
	StageDeclining        RelationshipStage = "declining"
	StageEstablished      RelationshipStage = "established"
)

// Progression indicator tags.
const (
	IndicatorIncreasingFrequency  = "increasing_frequency"
	IndicatorLongerMeetings       = "longer_meetings"
	IndicatorExpandingStakeholder = "expanding_stakeholders"
)

// Trend thresholds for the stage decision table and indicators.
const (
	frequencyTrendUp      = 0.2
	frequencyTrendDown    = -0.2
	durationTrendUp       = 0.1
	expansionThreshold    = 0.3
	establishedThreshold  = 0.8
	rapidDevelopmentDays  = 14.0
	developingDays        = 30.0
	gapShrinkFactor       = 0.8
	durationGrowthFactor  = 1.3
	consistencyTimingPart = 0.4
	consistencyDurPart    = 0.3
	consistencyJacPart    = 0.3
)

// RelationshipPattern is one recurring-relationship thread: the events
// that share an attendee set and recurrence rule, plus the trend
// metrics computed over them in chronological order.
type RelationshipPattern struct {
	Key                   string            `json:"key"`
	Events                []*CalendarEvent  `json:"events"`
	Stage                 RelationshipStage `json:"relationship_stage"`
	FrequencyTrend        float64           `json:"frequency_trend"`
	DurationTrend         float64           `json:"duration_trend"`
	StakeholderExpansion  float64           `json:"stakeholder_expansion"`
	ConsistencyScore      float64           `json:"consistency_score"`
	ProgressionIndicators []string          `json:"progression_indicators,omitempty"`
}

// RecurringAnalyzer groups recurring meetings into relationship threads
// and tracks how each relationship progresses over the series.
type RecurringAnalyzer struct {
	cfg     Config
	tracer  trace.Tracer
	metrics *EngineMetrics
}

func NewRecurringAnalyzer(cfg Config) (*RecurringAnalyzer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return &RecurringAnalyzer{
		cfg:     cfg,
		tracer:  otel.GetTracerProvider().Tracer("nia-meeting-intel/core"),
		metrics: NewEngineMetrics(),
	}, nil
}

// AnalyzeRecurringPatterns groups the given recurring events into
// relationship threads by attendee set and recurrence rule and returns
// one relationship pattern per thread, keyed by the grouping key. A
// thread whose attendee set grows over time stays a single thread: a
// group whose attendee set is a subset of a larger group on the same
// recurrence rule is folded into it. Nil events are skipped.
func (a *RecurringAnalyzer) AnalyzeRecurringPatterns(ctx context.Context, events []*CalendarEvent) (map[string]*RelationshipPattern, error) {
	start := time.Now()

	var err error

	defer func() { a.metrics.Observe(ctx, "analyze_recurring_patterns", start, err) }()

	ctx, span := a.tracer.Start(ctx, "recurring.AnalyzeRecurringPatterns")
	defer span.End()

	groups := make(map[string]*thread)

	var keys []string

	for _, event := range events {
		if event == nil {
			log.Ctx(ctx).Warn().Msg("skipping nil event in recurring analysis")
			continue
		}

		key := patternKey(event)

		group, ok := groups[key]
		if !ok {
			emails := make(map[string]bool)
			for _, email := range event.AttendeeEmails() {
				emails[email] = true
			}

			group = &thread{key: key, rule: event.RecurrenceRule, emails: emails}
			groups[key] = group
			keys = append(keys, key)
		}

		group.events = append(group.events, event)
	}

	threads := mergeThreads(groups, keys)

	patterns := make(map[string]*RelationshipPattern, len(threads))

	for _, group := range threads {
		sort.SliceStable(group.events, func(i, j int) bool {
			return group.events[i].StartTime.Before(group.events[j].StartTime)
		})

		patterns[group.key] = a.analyzeGroup(group.key, group.events)
	}

	log.Ctx(ctx).Debug().
		Int("events", len(events)).
		Int("threads", len(patterns)).
		Msg("recurring pattern analysis complete")

	return patterns, nil
}

// thread is a working group of events that share (or grow) an attendee
// set under one recurrence rule.
type thread struct {
	key    string
	rule   string
	emails map[string]bool
	events []*CalendarEvent
}

// mergeThreads folds groups whose attendee set is contained in a larger
// group with the same recurrence rule, so stakeholder growth does not
// split a relationship across keys. Largest sets are kept as anchors;
// iteration order is fixed for determinism.
func mergeThreads(groups map[string]*thread, keys []string) []*thread {
	sort.Slice(keys, func(i, j int) bool {
		a, b := groups[keys[i]], groups[keys[j]]
		if len(a.emails) != len(b.emails) {
			return len(a.emails) > len(b.emails)
		}

		return a.key < b.key
	})

	var out []*thread

	for _, key := range keys {
		group := groups[key]

		merged := false

		if len(group.emails) > 0 {
			for _, anchor := range out {
				if anchor.rule == group.rule && containsAll(anchor.emails, group.emails) {
					anchor.events = append(anchor.events, group.events...)
					merged = true

					break
				}
			}
		}

		if !merged {
			out = append(out, group)
		}
	}

	return out
}

func containsAll(set map[string]bool, subset map[string]bool) bool {
	if len(subset) > len(set) {
		return false
	}

	for email := range subset {
		if !set[email] {
			return false
		}
	}

	return true
}

// patternKey joins the sorted unique attendee addresses and the opaque
// recurrence rule. The rule is never parsed, only compared.
func patternKey(event *CalendarEvent) string {
	return strings.Join(event.AttendeeEmails(), ",") + "_" + event.RecurrenceRule
}

func (a *RecurringAnalyzer) analyzeGroup(key string, events []*CalendarEvent) *RelationshipPattern {
	pattern := &RelationshipPattern{Key: key, Events: events, Stage: StageInitial}

	if len(events) < 2 {
		return pattern
	}

	pattern.FrequencyTrend = frequencyTrend(events)
	pattern.DurationTrend = durationTrend(events)
	pattern.StakeholderExpansion = stakeholderExpansion(events)
	pattern.ConsistencyScore = consistencyScore(events)
	pattern.Stage = classifyStage(events, pattern)
	pattern.ProgressionIndicators = progressionIndicators(events)

	return pattern
}

// frequencyTrend compares the mean inter-meeting gap of the first half
// of the series against the second half. Positive means meetings are
// getting more frequent. Normalized to [-1,1].
func frequencyTrend(events []*CalendarEvent) float64 {
	gaps := meetingGaps(events)
	if len(gaps) < 2 {
		return 0
	}

	firstMean := mean(gaps[:len(gaps)/2])
	secondMean := mean(gaps[len(gaps)/2:])

	denom := math.Max(math.Abs(firstMean), math.Abs(secondMean))
	if denom == 0 {
		return 0
	}

	return clamp((firstMean-secondMean)/denom, -1, 1)
}

// durationTrend is the same halves comparison over meeting durations.
// Positive means meetings are getting longer.
func durationTrend(events []*CalendarEvent) float64 {
	durations := make([]float64, 0, len(events))
	for _, event := range events {
		durations = append(durations, event.DurationMinutes())
	}

	if len(durations) < 2 {
		return 0
	}

	firstMean := mean(durations[:len(durations)/2])
	secondMean := mean(durations[len(durations)/2:])

	denom := math.Max(math.Abs(firstMean), math.Abs(secondMean))
	if denom == 0 {
		return 0
	}

	return clamp((secondMean-firstMean)/denom, -1, 1)
}

// stakeholderExpansion measures growth of the cumulative distinct
// attendee set relative to the first meeting, clamped to [0,1].
func stakeholderExpansion(events []*CalendarEvent) float64 {
	initial := len(events[0].AttendeeEmails())
	if initial == 0 {
		return 0
	}

	cumulative := make(map[string]bool)

	for _, event := range events {
		for _, email := range event.AttendeeEmails() {
			cumulative[email] = true
		}
	}

	return clamp01(float64(len(cumulative)-initial) / float64(initial))
}

// consistencyScore blends timing regularity, duration regularity, and
// attendee-set similarity across consecutive meetings.
func consistencyScore(events []*CalendarEvent) float64 {
	gaps := meetingGaps(events)

	durations := make([]float64, 0, len(events))
	for _, event := range events {
		durations = append(durations, event.DurationMinutes())
	}

	var jaccardSum float64

	for i := 1; i < len(events); i++ {
		jaccardSum += jaccard(events[i-1].AttendeeEmails(), events[i].AttendeeEmails())
	}

	jaccardMean := jaccardSum / float64(len(events)-1)

	return clamp01(consistencyTimingPart*regularity(gaps) +
		consistencyDurPart*regularity(durations) +
		consistencyJacPart*jaccardMean)
}

func classifyStage(events []*CalendarEvent, pattern *RelationshipPattern) RelationshipStage {
	switch count := len(events); {
	case count >= 6:
		switch {
		case pattern.FrequencyTrend > frequencyTrendUp && pattern.DurationTrend > durationTrendUp:
			return StageAccelerating
		case pattern.StakeholderExpansion > expansionThreshold:
			return StageExpanding
		case pattern.FrequencyTrend < frequencyTrendDown:
			return StageDeclining
		case pattern.ConsistencyScore > establishedThreshold:
			return StageEstablished
		default:
			return StageStable
		}
	case count >= 4:
		switch {
		case pattern.DurationTrend > durationTrendUp:
			return StageDeepening
		case pattern.FrequencyTrend > frequencyTrendUp:
			return StageIntensifying
		case pattern.StakeholderExpansion > expansionThreshold:
			return StageBroadening
		default:
			return StageStable
		}
	case count >= 2:
		span := events[len(events)-1].StartTime.Sub(events[0].StartTime).Hours() / 24

		switch {
		case span < rapidDevelopmentDays:
			return StageRapidDevelopment
		case span < developingDays:
			return StageDeveloping
		default:
			return StageSlowDevelopment
		}
	default:
		return StageInitial
	}
}

func progressionIndicators(events []*CalendarEvent) []string {
	var out []string

	gaps := meetingGaps(events)
	if len(gaps) >= 2 && gaps[0] > 0 && gaps[len(gaps)-1] < gapShrinkFactor*gaps[0] {
		out = append(out, IndicatorIncreasingFrequency)
	}

	first, last := events[0], events[len(events)-1]

	if first.DurationMinutes() > 0 && last.DurationMinutes() > durationGrowthFactor*first.DurationMinutes() {
		out = append(out, IndicatorLongerMeetings)
	}

	if len(last.AttendeeEmails()) > len(first.AttendeeEmails()) {
		out = append(out, IndicatorExpandingStakeholder)
	}

	return out
}

// meetingGaps returns the days between consecutive meetings.
func meetingGaps(events []*CalendarEvent) []float64 {
	gaps := make([]float64, 0, len(events)-1)

	for i := 1; i < len(events); i++ {
		gaps = append(gaps, events[i].StartTime.Sub(events[i-1].StartTime).Hours()/24)
	}

	return gaps
}

// regularity maps the relative spread of a series onto [0,1]: 1 means
// perfectly regular, 0 means the spread is as large as the mean.
func regularity(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := mean(values)
	if m <= 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}

	variance /= float64(len(values))

	return clamp01(1 - math.Sqrt(variance)/m)
}

func jaccard(a []string, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}

	var intersection int

	union := make(map[string]bool, len(a)+len(b))
	for _, v := range a {
		union[v] = true
	}

	for _, v := range b {
		if set[v] {
			intersection++
		}

		union[v] = true
	}

	if len(union) == 0 {
		return 0
	}

	return float64(intersection) / float64(len(union))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
