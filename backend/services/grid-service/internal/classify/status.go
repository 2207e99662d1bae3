// Package classify derives categorical labels from extracted values.
package classify

import "gridpulse/backend/services/grid-service/internal/models"

// Frequency bands in Hz. All bounds are inclusive:
//
//	stable   49.5 <= f <= 50.5
//	stressed 49.0 <= f <  49.5  or  50.5 < f <= 51.0
//	critical everything else
const (
	StableMinHz   = 49.5
	StableMaxHz   = 50.5
	StressedMinHz = 49.0
	StressedMaxHz = 51.0
)

// Status maps a frequency reading to a grid health band. It reports false when there
// is no reading; an absent reading never defaults to stable.
func Status(frequencyHz *float64) (models.GridStatus, bool) {
	if frequencyHz == nil {
		return "", false
	}
	return StatusOf(*frequencyHz), true
}

// StatusOf classifies a known frequency value.
func StatusOf(f float64) models.GridStatus {
	switch {
	case f >= StableMinHz && f <= StableMaxHz:
		return models.StatusStable
	case f >= StressedMinHz && f <= StressedMaxHz:
		return models.StatusStressed
	default:
		return models.StatusCritical
	}
}
