package domain

import "time"

// FeatureFlag gates optional code paths. A flag is active for a principal iff
// Enabled is true and the principal's stable bucket falls under
// RolloutPercentage.
type FeatureFlag struct {
	Name              string    `json:"name"`
	Enabled           bool      `json:"enabled"`
	RolloutPercentage int       `json:"rollout_percentage"`
	UpdatedAt         time.Time `json:"updated_at"`
}
