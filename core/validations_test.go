package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:   "default is valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing org domain",
			mutate:  func(cfg *Config) { cfg.OrgDomain = "   " },
			wantErr: true,
		},
		{
			name:    "non-positive weight",
			mutate:  func(cfg *Config) { cfg.Weights.Description = 0 },
			wantErr: true,
		},
		{
			name:    "threshold out of range",
			mutate:  func(cfg *Config) { cfg.Detection.Threshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative classification floor",
			mutate:  func(cfg *Config) { cfg.ClassificationFloor = -0.1 },
			wantErr: true,
		},
		{
			name:    "broken internal pattern",
			mutate:  func(cfg *Config) { cfg.Keywords.InternalPatterns = []string{`[unclosed`} },
			wantErr: true,
		},
		{
			name:    "empty archetype table",
			mutate:  func(cfg *Config) { cfg.Archetypes = nil },
			wantErr: true,
		},
		{
			name: "archetype without keywords",
			mutate: func(cfg *Config) {
				profile := cfg.Archetypes[MeetingTypeDemo]
				profile.Keywords = nil
				cfg.Archetypes[MeetingTypeDemo] = profile
			},
			wantErr: true,
		},
		{
			name: "inverted duration range",
			mutate: func(cfg *Config) {
				profile := cfg.Archetypes[MeetingTypeDemo]
				profile.MinDurationMinutes, profile.MaxDurationMinutes = 90, 45
				cfg.Archetypes[MeetingTypeDemo] = profile
			},
			wantErr: true,
		},
		{
			name: "inverted attendee range",
			mutate: func(cfg *Config) {
				profile := cfg.Archetypes[MeetingTypeDemo]
				profile.MinAttendees, profile.MaxAttendees = 8, 3
				cfg.Archetypes[MeetingTypeDemo] = profile
			},
			wantErr: true,
		},
		{
			name: "broken archetype pattern",
			mutate: func(cfg *Config) {
				profile := cfg.Archetypes[MeetingTypeDemo]
				profile.Patterns = []string{`(`}
				cfg.Archetypes[MeetingTypeDemo] = profile
			},
			wantErr: true,
		},
		{
			name:    "empty priority table",
			mutate:  func(cfg *Config) { cfg.TypePriorities = nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig("niatech.io")
			tt.mutate(&cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestValidateConfig_AggregatesViolations(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("niatech.io")
	cfg.Detection.Threshold = 1.5
	cfg.PriorityGap = -0.2

	err := ValidateConfig(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)

	var aggregate *Error
	require.ErrorAs(t, err, &aggregate)
	assert.Len(t, aggregate.Messages(), 2)
	assert.Contains(t, aggregate.Messages(), "detection threshold must be in [0,1]")
	assert.Contains(t, aggregate.Messages(), "priority gap must be in [0,1]")
}

func TestConstructorsRejectBrokenConfig(t *testing.T) {
	t.Parallel()

	var broken Config

	_, err := NewDetectionEngine(broken)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTypeClassifier(broken)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewRecurringAnalyzer(broken)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewConflictResolver(broken, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewConflictResolverRequiresEngines(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("niatech.io")

	_, err := NewConflictResolver(cfg, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
