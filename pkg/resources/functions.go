package resources

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/SmitSuthar8834/nia-meeting-intel/core"
)

// LoadConfig builds the engine configuration from the environment.
// ORG_DOMAIN is required; there is no default organization domain.
// DETECTION_THRESHOLD, CLASSIFICATION_FLOOR, and PRIORITY_GAP override
// the default tuning when set.
func LoadConfig() (core.Config, error) {
	viper.AutomaticEnv()

	domain := strings.TrimSpace(viper.GetString("ORG_DOMAIN"))
	if domain == "" {
		log.Error().Msg("ORG_DOMAIN is not set")
		return core.Config{}, fmt.Errorf("%w: ORG_DOMAIN environment variable is required", core.ErrInvalidConfig)
	}

	cfg := core.DefaultConfig(domain)

	if viper.GetString("DETECTION_THRESHOLD") != "" {
		cfg.Detection.Threshold = viper.GetFloat64("DETECTION_THRESHOLD")
	}

	if viper.GetString("CLASSIFICATION_FLOOR") != "" {
		cfg.ClassificationFloor = viper.GetFloat64("CLASSIFICATION_FLOOR")
	}

	if viper.GetString("PRIORITY_GAP") != "" {
		cfg.PriorityGap = viper.GetFloat64("PRIORITY_GAP")
	}

	err := core.ValidateConfig(cfg)
	if err != nil {
		log.Error().Err(err).Msg("engine configuration rejected")
		return core.Config{}, err
	}

	return cfg, nil
}
