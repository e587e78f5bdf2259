package core

// DetectionWeights are the relative weights of the four detection
// sub-scores. Weights of absent signals (an event with no description)
// are excluded from the normalization denominator at scoring time.
type DetectionWeights struct {
	Title       float64
	Description float64
	Attendees   float64
	Timing      float64
}

// KeywordTable drives text scoring for sales-meeting detection.
// Keywords match by case-insensitive substring containment;
// InternalPatterns are regular expressions applied to lower-cased text.
type KeywordTable struct {
	High             []string
	Medium           []string
	Low              []string
	InternalPatterns []string
}

// DetectionTuning holds every numeric knob of the detection engine so
// the tuning is auditable in one place.
type DetectionTuning struct {
	// Threshold is deliberately recall-biased. HighConfidence and
	// MediumConfidence are reporting bucket boundaries only and do not
	// gate detection.
	Threshold        float64
	HighConfidence   float64
	MediumConfidence float64

	HighKeywordScore       float64
	MediumKeywordScore     float64
	LowKeywordScore        float64
	InternalPatternPenalty float64

	ExternalAttendeeScore float64
	MixedAudienceBonus    float64
	InternalCrowdPenalty  float64
	SmallExternalBonus    float64

	RecurringMultiplier    float64
	AllDayMultiplier       float64
	ShortMeetingMultiplier float64
	LongMeetingMultiplier  float64
	MeetingURLMultiplier   float64
}

// ArchetypeProfile describes one meeting-type archetype for the
// classifier: its vocabulary, expected shape, and score boost.
type ArchetypeProfile struct {
	Keywords           []string
	Patterns           []string
	MinDurationMinutes float64
	MaxDurationMinutes float64
	MinAttendees       int
	MaxAttendees       int
	ExternalRatio      float64
	ConfidenceBoost    float64
}

// TravelTuning holds the travel-time estimation constants used by the
// conflict resolver.
type TravelTuning struct {
	DefaultMinutes float64
	NearbyMinutes  float64
}

// Config is the immutable configuration shared by all engines. Build it
// with DefaultConfig and adjust fields before constructing engines;
// constructors validate it and reject broken tables.
type Config struct {
	// OrgDomain is the organization's own email domain, used to split
	// internal from external attendees. There is no sane default; the
	// caller must supply it.
	OrgDomain string

	Weights   DetectionWeights
	Keywords  KeywordTable
	Detection DetectionTuning

	Archetypes          map[MeetingType]ArchetypeProfile
	ClassificationFloor float64

	TypePriorities      map[MeetingType]float64
	DefaultTypePriority float64
	PriorityGap         float64
	Travel              TravelTuning
}

// DefaultConfig returns the production tuning for the given
// organization domain.
func DefaultConfig(orgDomain string) Config {
	return Config{
		OrgDomain: orgDomain,
		Weights: DetectionWeights{
			Title:       0.4,
			Description: 0.2,
			Attendees:   0.3,
			Timing:      0.1,
		},
		Keywords: KeywordTable{
			High: []string{
				"sales", "demo", "product demo", "proposal", "contract",
				"pricing", "negotiation", "discovery call", "prospect",
				"pitch", "closing", "potential client", "new client", "deal",
			},
			Medium: []string{
				"client", "customer", "partnership", "opportunity",
				"presentation", "walkthrough", "quote", "renewal",
				"onboarding", "intro call",
			},
			Low: []string{
				"meeting", "call", "discussion", "review", "sync",
				"catch up", "follow up",
			},
			InternalPatterns: []string{
				`\bteam\b`, `\bstandup\b`, `stand-up`, `\b1:1\b`,
				`\bone[- ]on[- ]one\b`, `all[- ]hands`, `\btraining\b`,
				`\binternal\b`, `\bretro(spective)?\b`, `\bsprint\b`,
				`\bstaff\b`,
			},
		},
		Detection: DetectionTuning{
			Threshold:        0.5,
			HighConfidence:   0.8,
			MediumConfidence: 0.5,

			HighKeywordScore:       0.3,
			MediumKeywordScore:     0.15,
			LowKeywordScore:        0.05,
			InternalPatternPenalty: 0.2,

			ExternalAttendeeScore: 0.2,
			MixedAudienceBonus:    0.3,
			InternalCrowdPenalty:  0.3,
			SmallExternalBonus:    0.2,

			RecurringMultiplier:    0.7,
			AllDayMultiplier:       0.3,
			ShortMeetingMultiplier: 0.4,
			LongMeetingMultiplier:  0.6,
			MeetingURLMultiplier:   1.2,
		},
		Archetypes: map[MeetingType]ArchetypeProfile{
			MeetingTypeDiscovery: {
				Keywords: []string{
					"discovery", "introduction", "intro", "first meeting",
					"initial", "qualification", "needs assessment",
					"get to know", "learn more",
				},
				Patterns: []string{
					`discovery\s+call`,
					`intro(duction)?\s+(call|meeting)`,
					`initial\s+(conversation|meeting)`,
				},
				MinDurationMinutes: 30,
				MaxDurationMinutes: 60,
				MinAttendees:       2,
				MaxAttendees:       4,
				ExternalRatio:      0.5,
				ConfidenceBoost:    0.1,
			},
			MeetingTypeDemo: {
				Keywords: []string{
					"demo", "demonstration", "walkthrough", "showcase",
					"product tour", "presentation", "trial",
				},
				Patterns: []string{
					`product\s+(demo|presentation)`,
					`technical\s+demo`,
					`solution\s+overview`,
				},
				MinDurationMinutes: 45,
				MaxDurationMinutes: 90,
				MinAttendees:       2,
				MaxAttendees:       8,
				ExternalRatio:      0.6,
				ConfidenceBoost:    0.15,
			},
			MeetingTypeNegotiation: {
				Keywords: []string{
					"negotiation", "pricing", "contract", "proposal",
					"terms", "quote", "budget", "discount", "redline",
				},
				Patterns: []string{
					`contract\s+(review|discussion)`,
					`pricing\s+(call|discussion)`,
					`terms\s+and\s+conditions`,
				},
				MinDurationMinutes: 30,
				MaxDurationMinutes: 90,
				MinAttendees:       2,
				MaxAttendees:       6,
				ExternalRatio:      0.5,
				ConfidenceBoost:    0.2,
			},
			MeetingTypeFollowUp: {
				Keywords: []string{
					"follow up", "follow-up", "check in", "check-in",
					"touch base", "next steps", "recap", "status update",
					"circling back",
				},
				Patterns: []string{
					`follow[\s-]?up`,
					`check[\s-]?in`,
					`touch\s+base`,
				},
				MinDurationMinutes: 15,
				MaxDurationMinutes: 45,
				MinAttendees:       2,
				MaxAttendees:       4,
				ExternalRatio:      0.4,
				ConfidenceBoost:    0.1,
			},
			MeetingTypeClosing: {
				Keywords: []string{
					"closing", "signature", "signing", "final agreement",
					"close the deal", "contract signing", "kickoff",
					"wrap up",
				},
				Patterns: []string{
					`contract\s+sign(ing)?`,
					`deal\s+clos(e|ing)`,
					`final\s+(review|approval)`,
				},
				// Boost must stay below a keyword-plus-pattern match
				// (0.25): shape alone never outranks vocabulary.
				MinDurationMinutes: 30,
				MaxDurationMinutes: 60,
				MinAttendees:       2,
				MaxAttendees:       5,
				ExternalRatio:      0.5,
				ConfidenceBoost:    0.15,
			},
			// The negative boost keeps internal meetings from winning
			// classification; internal is also excluded from the
			// candidate set when picking a result.
			MeetingTypeInternal: {
				Keywords: []string{
					"standup", "retro", "retrospective", "sprint",
					"planning", "all hands", "team meeting", "1:1",
					"one on one", "sync", "town hall",
				},
				Patterns: []string{
					`\bteam\b`, `\binternal\b`, `\bstaff\b`,
				},
				MinDurationMinutes: 15,
				MaxDurationMinutes: 60,
				MinAttendees:       2,
				MaxAttendees:       15,
				ExternalRatio:      0,
				ConfidenceBoost:    -0.5,
			},
		},
		ClassificationFloor: 0.3,
		TypePriorities: map[MeetingType]float64{
			MeetingTypeClosing:     1.0,
			MeetingTypeNegotiation: 0.9,
			MeetingTypeDemo:        0.7,
			MeetingTypeDiscovery:   0.6,
			MeetingTypeFollowUp:    0.4,
			MeetingTypeInternal:    0.2,
		},
		DefaultTypePriority: 0.3,
		PriorityGap:         0.1,
		Travel: TravelTuning{
			DefaultMinutes: 30,
			NearbyMinutes:  10,
		},
	}
}
