package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("niatech.io")

	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "niatech.io", cfg.OrgDomain)

	weightSum := cfg.Weights.Title + cfg.Weights.Description + cfg.Weights.Attendees + cfg.Weights.Timing
	assert.InDelta(t, 1.0, weightSum, 1e-9)

	assert.InDelta(t, 0.5, cfg.Detection.Threshold, 1e-9)
	assert.Greater(t, cfg.Detection.HighConfidence, cfg.Detection.MediumConfidence)

	require.Len(t, cfg.Archetypes, 6)
	assert.Negative(t, cfg.Archetypes[MeetingTypeInternal].ConfidenceBoost)

	assert.InDelta(t, 1.0, cfg.TypePriorities[MeetingTypeClosing], 1e-9)
	assert.Greater(t, cfg.TypePriorities[MeetingTypeClosing], cfg.TypePriorities[MeetingTypeInternal])

	assert.Greater(t, cfg.Travel.DefaultMinutes, cfg.Travel.NearbyMinutes)
}
