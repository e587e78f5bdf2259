package core

import (
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Timing heuristics. Sales meetings cluster in the 30-90 minute band
// during business hours on weekdays.
const (
	idealDurationScore    = 0.3
	idealMinDuration      = 30.0
	idealMaxDuration      = 90.0
	passableDurationScore = 0.1
	passableMinDuration   = 15.0
	passableMaxDuration   = 120.0

	businessHourScore  = 0.2
	businessHourStart  = 9
	businessHourEnd    = 17
	extendedHourScore  = 0.1
	extendedHourStart  = 8
	extendedHourEnd    = 18
	weekdayScore       = 0.1
	internalCrowdLimit = 5
	smallExternalLimit = 3

	shortMeetingMinutes = 15.0
	longMeetingMinutes  = 180.0
)

type DetectionResult struct {
	IsSalesMeeting bool    `json:"is_sales_meeting"`
	Confidence     float64 `json:"confidence"`
}

// DetectionInsights carries the sub-scores and matched vocabulary that
// produced a detection result, for explainability.
type DetectionInsights struct {
	Result           DetectionResult `json:"result"`
	TitleScore       float64         `json:"title_score"`
	DescriptionScore float64         `json:"description_score"`
	AttendeeScore    float64         `json:"attendee_score"`
	TimingScore      float64         `json:"timing_score"`
	MatchedKeywords  []string        `json:"matched_keywords,omitempty"`
	MatchedPatterns  []string        `json:"matched_patterns,omitempty"`
	Recommendations  []string        `json:"recommendations,omitempty"`
}

// DetectionEngine scores calendar events for "is this a sales meeting".
// It is a pure function of the event plus the injected configuration;
// construct once and share freely.
type DetectionEngine struct {
	cfg              Config
	internalPatterns []*regexp.Regexp
	classifier       *TypeClassifier
	tracer           trace.Tracer
	metrics          *EngineMetrics
	clock            func() time.Time
}

func NewDetectionEngine(cfg Config) (*DetectionEngine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.Keywords.InternalPatterns))
	for _, pattern := range cfg.Keywords.InternalPatterns {
		patterns = append(patterns, regexp.MustCompile(pattern))
	}

	classifier, err := NewTypeClassifier(cfg)
	if err != nil {
		return nil, err
	}

	return &DetectionEngine{
		cfg:              cfg,
		internalPatterns: patterns,
		classifier:       classifier,
		tracer:           otel.GetTracerProvider().Tracer("nia-meeting-intel/core"),
		metrics:          NewEngineMetrics(),
		clock:            time.Now,
	}, nil
}

// DetectSalesMeeting returns whether the event looks like a sales
// meeting and the confidence behind that call. Cancelled events are
// always 0.0, regardless of every other signal.
func (e *DetectionEngine) DetectSalesMeeting(event *CalendarEvent) (DetectionResult, error) {
	if event == nil {
		return DetectionResult{}, ErrNilEvent
	}

	if event.EventStatus == EventStatusCancelled {
		return DetectionResult{IsSalesMeeting: false, Confidence: 0}, nil
	}

	confidence := e.applyBusinessRules(event, e.baseConfidence(event))

	return DetectionResult{
		IsSalesMeeting: confidence >= e.cfg.Detection.Threshold,
		Confidence:     confidence,
	}, nil
}

// DetectionInsights explains a detection: per-signal sub-scores, the
// vocabulary that matched, and suggestions for low-signal events.
func (e *DetectionEngine) DetectionInsights(event *CalendarEvent) (DetectionInsights, error) {
	if event == nil {
		return DetectionInsights{}, ErrNilEvent
	}

	result, err := e.DetectSalesMeeting(event)
	if err != nil {
		return DetectionInsights{}, err
	}

	titleScore, titleKeywords, titlePatterns := e.scoreText(event.Title)
	descScore, descKeywords, descPatterns := e.scoreText(event.Description)

	insights := DetectionInsights{
		Result:           result,
		TitleScore:       titleScore,
		DescriptionScore: descScore,
		AttendeeScore:    e.scoreAttendees(event.Attendees),
		TimingScore:      e.scoreTiming(event),
		MatchedKeywords:  mergeUnique(titleKeywords, descKeywords),
		MatchedPatterns:  mergeUnique(titlePatterns, descPatterns),
	}
	insights.Recommendations = e.recommend(event, insights)

	return insights, nil
}

func (e *DetectionEngine) baseConfidence(event *CalendarEvent) float64 {
	type signal struct {
		score  float64
		weight float64
	}

	titleScore, _, _ := e.scoreText(event.Title)

	signals := []signal{
		{titleScore, e.cfg.Weights.Title},
		{e.scoreAttendees(event.Attendees), e.cfg.Weights.Attendees},
		{e.scoreTiming(event), e.cfg.Weights.Timing},
	}

	// An absent description contributes nothing and its weight drops
	// out of the denominator.
	if strings.TrimSpace(event.Description) != "" {
		descScore, _, _ := e.scoreText(event.Description)
		signals = append(signals, signal{descScore, e.cfg.Weights.Description})
	}

	var weighted, total float64

	for _, s := range signals {
		weighted += s.score * s.weight
		total += s.weight
	}

	if total == 0 {
		return 0
	}

	return clamp01(weighted / total)
}

func (e *DetectionEngine) applyBusinessRules(event *CalendarEvent, confidence float64) float64 {
	tuning := e.cfg.Detection

	if event.IsRecurring {
		confidence *= tuning.RecurringMultiplier
	}

	if event.IsAllDay {
		confidence *= tuning.AllDayMultiplier
	}

	duration := event.DurationMinutes()
	if duration < shortMeetingMinutes {
		confidence *= tuning.ShortMeetingMultiplier
	}

	if duration > longMeetingMinutes {
		confidence *= tuning.LongMeetingMultiplier
	}

	if event.MeetingURL != "" {
		confidence *= tuning.MeetingURLMultiplier
	}

	return clamp01(confidence)
}

func (e *DetectionEngine) scoreText(text string) (float64, []string, []string) {
	lower := strings.ToLower(text)
	tuning := e.cfg.Detection

	var score float64

	var keywords, patterns []string

	for _, keyword := range e.cfg.Keywords.High {
		if strings.Contains(lower, keyword) {
			score += tuning.HighKeywordScore
			keywords = append(keywords, keyword)
		}
	}

	for _, keyword := range e.cfg.Keywords.Medium {
		if strings.Contains(lower, keyword) {
			score += tuning.MediumKeywordScore
			keywords = append(keywords, keyword)
		}
	}

	for _, keyword := range e.cfg.Keywords.Low {
		if strings.Contains(lower, keyword) {
			score += tuning.LowKeywordScore
			keywords = append(keywords, keyword)
		}
	}

	for i, re := range e.internalPatterns {
		if re.MatchString(lower) {
			score -= tuning.InternalPatternPenalty
			patterns = append(patterns, e.cfg.Keywords.InternalPatterns[i])
		}
	}

	return clamp01(score), keywords, patterns
}

func (e *DetectionEngine) scoreAttendees(attendees []Attendee) float64 {
	if len(attendees) == 0 {
		return 0
	}

	tuning := e.cfg.Detection

	var internal, external int

	for _, a := range attendees {
		if IsInternalEmail(a.Email, e.cfg.OrgDomain) {
			internal++
		} else {
			external++
		}
	}

	score := float64(external) * tuning.ExternalAttendeeScore

	if internal > 0 && external > 0 {
		score += tuning.MixedAudienceBonus
	}

	if internal > internalCrowdLimit && external == 0 {
		score -= tuning.InternalCrowdPenalty
	}

	if external >= 1 && external <= smallExternalLimit {
		score += tuning.SmallExternalBonus
	}

	return clamp01(score)
}

func (e *DetectionEngine) scoreTiming(event *CalendarEvent) float64 {
	var score float64

	duration := event.DurationMinutes()

	switch {
	case duration >= idealMinDuration && duration <= idealMaxDuration:
		score += idealDurationScore
	case duration >= passableMinDuration && duration <= passableMaxDuration:
		score += passableDurationScore
	}

	hour := event.StartTime.Hour()

	switch {
	case hour >= businessHourStart && hour <= businessHourEnd:
		score += businessHourScore
	case hour >= extendedHourStart && hour <= extendedHourEnd:
		score += extendedHourScore
	}

	weekday := event.StartTime.Weekday()
	if weekday >= time.Monday && weekday <= time.Friday {
		score += weekdayScore
	}

	return clamp01(score)
}

func (e *DetectionEngine) recommend(event *CalendarEvent, insights DetectionInsights) []string {
	var out []string

	if insights.TitleScore < 0.2 {
		out = append(out, "use more specific title keywords so the meeting purpose is clear")
	}

	if strings.TrimSpace(event.Description) == "" {
		out = append(out, "add a description outlining the agenda and expected outcome")
	}

	if len(event.Attendees) == 0 {
		out = append(out, "add attendees so internal and external participation can be assessed")
	}

	if insights.AttendeeScore < 0.2 && len(event.Attendees) > 0 {
		out = append(out, "invite the external participants directly instead of forwarding")
	}

	if event.MeetingURL == "" && event.Location == "" {
		out = append(out, "attach a meeting link or location")
	}

	return out
}

func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]bool)

	var out []string

	for _, list := range lists {
		for _, item := range list {
			if seen[item] {
				continue
			}

			seen[item] = true
			out = append(out, item)
		}
	}

	return out
}
