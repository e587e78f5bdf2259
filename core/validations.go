package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ValidateConfig rejects configurations the engines cannot score with.
// Every engine constructor runs it. All violations are collected into
// one aggregate so a broken table surfaces completely on the first
// run; the returned error wraps ErrInvalidConfig.
func ValidateConfig(cfg Config) error {
	var violations []error

	if strings.TrimSpace(cfg.OrgDomain) == "" {
		violations = append(violations, errors.New("org domain is required"))
	}

	w := cfg.Weights
	if w.Title <= 0 || w.Description <= 0 || w.Attendees <= 0 || w.Timing <= 0 {
		violations = append(violations, errors.New("detection weights must be positive"))
	}

	for _, v := range []struct {
		name  string
		value float64
	}{
		{"detection threshold", cfg.Detection.Threshold},
		{"classification floor", cfg.ClassificationFloor},
		{"priority gap", cfg.PriorityGap},
	} {
		if v.value < 0 || v.value > 1 {
			violations = append(violations, fmt.Errorf("%s must be in [0,1]", v.name))
		}
	}

	for _, pattern := range cfg.Keywords.InternalPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			violations = append(violations, fmt.Errorf("internal pattern %q: %v", pattern, err))
		}
	}

	if len(cfg.Archetypes) == 0 {
		violations = append(violations, errors.New("archetype table is empty"))
	}

	for meetingType, profile := range cfg.Archetypes {
		if len(profile.Keywords) == 0 {
			violations = append(violations, fmt.Errorf("archetype %q has no keywords", meetingType))
		}

		if profile.MaxDurationMinutes < profile.MinDurationMinutes {
			violations = append(violations, fmt.Errorf("archetype %q has an inverted duration range", meetingType))
		}

		if profile.MaxAttendees < profile.MinAttendees {
			violations = append(violations, fmt.Errorf("archetype %q has an inverted attendee range", meetingType))
		}

		for _, pattern := range profile.Patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				violations = append(violations, fmt.Errorf("archetype %q pattern %q: %v", meetingType, pattern, err))
			}
		}
	}

	if len(cfg.TypePriorities) == 0 {
		violations = append(violations, errors.New("type priority table is empty"))
	}

	if len(violations) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, NewError("configuration rejected", violations...))
	}

	return nil
}
