package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type ConflictType string

const (
	ConflictOverlap    ConflictType = "overlap"
	ConflictTravelTime ConflictType = "travel_time"
)

type ResolutionAction string

const (
	ResolutionReschedule   ResolutionAction = "reschedule"
	ResolutionMakeVirtual  ResolutionAction = "make_virtual"
	ResolutionManualReview ResolutionAction = "manual_review"
)

// Severity scoring.
const (
	severityBase         = 5
	severityBothSales    = 3
	severityExternal     = 2
	severityImminent     = 2
	severityLongCombined = 1
	severityMax          = 10
	combinedLongMinutes  = 180.0

	travelSeverityTight  = 8
	travelSeverityLoose  = 6
	travelAutoResolveGap = 30.0
)

// Priority scoring.
const (
	externalPriorityScore    = 0.2
	externalPriorityCap      = 0.6
	recurringPriorityPenalty = 0.2
	longMeetingPriorityBoost = 0.1
	longPriorityMinutes      = 120.0
	imminentPriorityBoost    = 0.3
	soonPriorityBoost        = 0.1

	imminentWindow = 24 * time.Hour
	soonWindow     = 48 * time.Hour
	lockWindow     = 2 * time.Hour
)

// Alternative-slot scanning.
const (
	slotScanDays        = 7
	maxAlternativeSlots = 3
	defaultSlotMinutes  = 30.0
)

var (
	virtualLocationKeywords = []string{
		"zoom", "teams", "meet", "webex", "hangout", "skype",
		"virtual", "online", "http",
	}
	proximityKeywords = []string{"building", "floor", "room", "suite"}
)

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Resolution is the suggested way out of a conflict.
type Resolution struct {
	Action           ResolutionAction `json:"action"`
	MoveEventId      string           `json:"move_event_id,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	AlternativeSlots []TimeSlot       `json:"alternative_slots,omitempty"`
}

// Conflict is one detected scheduling problem between two events.
type Conflict struct {
	Id             string         `json:"id"`
	Type           ConflictType   `json:"type"`
	Event1         *CalendarEvent `json:"event1"`
	Event2         *CalendarEvent `json:"event2"`
	Severity       int            `json:"severity"`
	AutoResolvable bool           `json:"auto_resolvable"`
	Resolution     Resolution     `json:"suggested_resolution"`

	// Travel-time conflicts only.
	GapMinutes            float64 `json:"gap_minutes,omitempty"`
	TravelEstimateMinutes float64 `json:"travel_estimate_minutes,omitempty"`
}

// ConflictResolver detects overlaps and travel-time violations among a
// user's upcoming events and proposes resolutions. It composes the
// detection engine and classifier for priority inputs.
type ConflictResolver struct {
	cfg        Config
	detector   *DetectionEngine
	classifier *TypeClassifier
	tracer     trace.Tracer
	metrics    *EngineMetrics
	clock      func() time.Time
}

func NewConflictResolver(cfg Config, detector *DetectionEngine, classifier *TypeClassifier) (*ConflictResolver, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if detector == nil || classifier == nil {
		return nil, fmt.Errorf("%w: detection engine and classifier are required", ErrInvalidConfig)
	}

	return &ConflictResolver{
		cfg:        cfg,
		detector:   detector,
		classifier: classifier,
		tracer:     otel.GetTracerProvider().Tracer("nia-meeting-intel/core"),
		metrics:    NewEngineMetrics(),
		clock:      time.Now,
	}, nil
}

// assessment caches the per-event judgments the resolver needs for
// priority and severity scoring.
type assessment struct {
	event       *CalendarEvent
	sales       DetectionResult
	meetingType MeetingType
	priority    float64
	external    int
}

// ResolveSchedulingConflicts detects conflicts among the given events
// and returns them ordered by severity, highest first. Each unordered
// event pair appears at most once. Nil and cancelled events are
// skipped.
func (r *ConflictResolver) ResolveSchedulingConflicts(ctx context.Context, events []*CalendarEvent) ([]*Conflict, error) {
	start := time.Now()

	var err error

	defer func() { r.metrics.Observe(ctx, "resolve_scheduling_conflicts", start, err) }()

	ctx, span := r.tracer.Start(ctx, "conflicts.ResolveSchedulingConflicts")
	defer span.End()

	assessments := r.assess(ctx, events)

	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].event.StartTime.Before(assessments[j].event.StartTime)
	})

	var conflicts []*Conflict

	for i := 0; i < len(assessments); i++ {
		for j := i + 1; j < len(assessments); j++ {
			a, b := assessments[i], assessments[j]
			if a.event.StartTime.Before(b.event.EndTime) && b.event.StartTime.Before(a.event.EndTime) {
				conflicts = append(conflicts, r.overlapConflict(a, b, events))
			}
		}
	}

	for i := 1; i < len(assessments); i++ {
		if conflict := r.travelConflict(assessments[i-1], assessments[i]); conflict != nil {
			conflicts = append(conflicts, conflict)
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Severity > conflicts[j].Severity
	})

	log.Ctx(ctx).Debug().
		Int("events", len(assessments)).
		Int("conflicts", len(conflicts)).
		Msg("scheduling conflict resolution complete")

	return conflicts, nil
}

func (r *ConflictResolver) assess(ctx context.Context, events []*CalendarEvent) []*assessment {
	out := make([]*assessment, 0, len(events))

	for _, event := range events {
		if event == nil {
			log.Ctx(ctx).Warn().Msg("skipping nil event in conflict resolution")
			continue
		}

		if event.EventStatus == EventStatusCancelled {
			continue
		}

		sales, err := r.detector.DetectSalesMeeting(event)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("event_id", event.Id).Msg("skipping event in conflict resolution")
			continue
		}

		// Meetings that are not sales meetings are prioritized as
		// internal regardless of their vocabulary.
		meetingType := MeetingTypeInternal
		if sales.IsSalesMeeting {
			meetingType, _ = r.classifier.ClassifyMeetingType(event)
		}

		a := &assessment{
			event:       event,
			sales:       sales,
			meetingType: meetingType,
			external:    len(event.ExternalAttendees(r.cfg.OrgDomain)),
		}
		a.priority = r.priorityScore(a)
		out = append(out, a)
	}

	return out
}

// priorityScore ranks an event's importance for deciding which side of
// a conflict moves.
func (r *ConflictResolver) priorityScore(a *assessment) float64 {
	score, ok := r.cfg.TypePriorities[a.meetingType]
	if !ok {
		score = r.cfg.DefaultTypePriority
	}

	score += math.Min(float64(a.external)*externalPriorityScore, externalPriorityCap)

	if a.event.IsRecurring {
		score -= recurringPriorityPenalty
	}

	if a.event.DurationMinutes() > longPriorityMinutes {
		score += longMeetingPriorityBoost
	}

	switch until := a.event.StartTime.Sub(r.clock()); {
	case until <= imminentWindow:
		score += imminentPriorityBoost
	case until <= soonWindow:
		score += soonPriorityBoost
	}

	return clamp01(score)
}

func (r *ConflictResolver) overlapConflict(a *assessment, b *assessment, events []*CalendarEvent) *Conflict {
	severity := severityBase

	if a.sales.IsSalesMeeting && b.sales.IsSalesMeeting {
		severity += severityBothSales
	}

	if a.external > 0 || b.external > 0 {
		severity += severityExternal
	}

	if r.startsWithin(a.event, imminentWindow) || r.startsWithin(b.event, imminentWindow) {
		severity += severityImminent
	}

	if a.event.DurationMinutes()+b.event.DurationMinutes() > combinedLongMinutes {
		severity += severityLongCombined
	}

	if severity > severityMax {
		severity = severityMax
	}

	bothExternal := a.external > 0 && b.external > 0
	bothHighStakes := isHighStakesType(a.meetingType) && isHighStakesType(b.meetingType)
	locked := r.startsWithin(a.event, lockWindow) || r.startsWithin(b.event, lockWindow)

	return &Conflict{
		Id:             uuid.NewString(),
		Type:           ConflictOverlap,
		Event1:         a.event,
		Event2:         b.event,
		Severity:       severity,
		AutoResolvable: !bothExternal && !bothHighStakes && !locked,
		Resolution:     r.resolveOverlap(a, b, events),
	}
}

func (r *ConflictResolver) resolveOverlap(a *assessment, b *assessment, events []*CalendarEvent) Resolution {
	if math.Abs(a.priority-b.priority) < r.cfg.PriorityGap {
		later := b
		if a.event.StartTime.After(b.event.StartTime) {
			later = a
		}

		return Resolution{
			Action:           ResolutionManualReview,
			MoveEventId:      later.event.Id,
			Reason:           "priorities are too close to call",
			AlternativeSlots: r.alternativeSlots(later.event, events),
		}
	}

	move, keep := a, b
	if b.priority < a.priority {
		move, keep = b, a
	}

	if move.event.MeetingURL == "" && isPhysicalLocation(keep.event.Location) {
		return Resolution{
			Action:      ResolutionMakeVirtual,
			MoveEventId: move.event.Id,
			Reason:      "lower-priority meeting can move online to free the slot",
		}
	}

	return Resolution{
		Action:           ResolutionReschedule,
		MoveEventId:      move.event.Id,
		Reason:           "reschedule the lower-priority meeting",
		AlternativeSlots: r.alternativeSlots(move.event, events),
	}
}

// travelConflict flags chronologically adjacent same-day events whose
// gap is shorter than the estimated travel time between their venues.
func (r *ConflictResolver) travelConflict(a *assessment, b *assessment) *Conflict {
	if !sameDay(a.event.StartTime, b.event.StartTime) {
		return nil
	}

	if !isPhysicalLocation(a.event.Location) || !isPhysicalLocation(b.event.Location) {
		return nil
	}

	estimate := r.estimateTravelMinutes(a.event.Location, b.event.Location)
	gap := b.event.StartTime.Sub(a.event.EndTime).Minutes()

	if gap < 0 || gap >= estimate {
		return nil
	}

	severity := travelSeverityTight
	if gap >= estimate/2 {
		severity = travelSeverityLoose
	}

	move := b
	if a.priority < b.priority {
		move = a
	}

	return &Conflict{
		Id:             uuid.NewString(),
		Type:           ConflictTravelTime,
		Event1:         a.event,
		Event2:         b.event,
		Severity:       severity,
		AutoResolvable: gap < travelAutoResolveGap,
		Resolution: Resolution{
			Action:      ResolutionMakeVirtual,
			MoveEventId: move.event.Id,
			Reason:      "insufficient travel time between venues",
		},
		GapMinutes:            gap,
		TravelEstimateMinutes: estimate,
	}
}

// estimateTravelMinutes is a deliberately crude textual heuristic; the
// platform has no geo data for free-text locations.
func (r *ConflictResolver) estimateTravelMinutes(from string, to string) float64 {
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return 0
	}

	if isVirtualLocation(from) || isVirtualLocation(to) {
		return 0
	}

	if containsAny(from, proximityKeywords) && containsAny(to, proximityKeywords) {
		return r.cfg.Travel.NearbyMinutes
	}

	return r.cfg.Travel.DefaultMinutes
}

// alternativeSlots scans the coming week for up to three business-hour
// gaps long enough to hold the moved event.
func (r *ConflictResolver) alternativeSlots(move *CalendarEvent, events []*CalendarEvent) []TimeSlot {
	minutes := move.DurationMinutes()
	if minutes <= 0 {
		minutes = defaultSlotMinutes
	}

	duration := time.Duration(minutes * float64(time.Minute))
	now := r.clock()

	var slots []TimeSlot

	for day := 0; day < slotScanDays; day++ {
		date := now.AddDate(0, 0, day)
		if weekday := date.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
			continue
		}

		dayEnd := time.Date(date.Year(), date.Month(), date.Day(), businessHourEnd, 0, 0, 0, date.Location())

		for hour := businessHourStart; hour < businessHourEnd; hour++ {
			for _, minute := range []int{0, 30} {
				start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
				if start.Before(now) {
					continue
				}

				end := start.Add(duration)
				if end.After(dayEnd) {
					continue
				}

				if !slotFree(start, end, move, events) {
					continue
				}

				slots = append(slots, TimeSlot{Start: start, End: end})
				if len(slots) >= maxAlternativeSlots {
					return slots
				}
			}
		}
	}

	return slots
}

func slotFree(start time.Time, end time.Time, move *CalendarEvent, events []*CalendarEvent) bool {
	for _, event := range events {
		if event == nil || event == move || event.EventStatus == EventStatusCancelled {
			continue
		}

		if start.Before(event.EndTime) && event.StartTime.Before(end) {
			return false
		}
	}

	return true
}

func sameDay(a time.Time, b time.Time) bool {
	aYear, aMonth, aDay := a.Date()
	bYear, bMonth, bDay := b.Date()

	return aYear == bYear && aMonth == bMonth && aDay == bDay
}

func (r *ConflictResolver) startsWithin(event *CalendarEvent, window time.Duration) bool {
	return event.StartTime.Sub(r.clock()) <= window
}

func isHighStakesType(meetingType MeetingType) bool {
	return meetingType == MeetingTypeClosing || meetingType == MeetingTypeNegotiation
}

func isVirtualLocation(location string) bool {
	return containsAny(location, virtualLocationKeywords)
}

func isPhysicalLocation(location string) bool {
	return strings.TrimSpace(location) != "" && !isVirtualLocation(location)
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)

	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return false
}
