package models

import "time"

// GridStatus is the health band derived from grid frequency.
type GridStatus string

const (
	StatusStable   GridStatus = "stable"
	StatusStressed GridStatus = "stressed"
	StatusCritical GridStatus = "critical"
)

// Valid reports whether s is one of the known bands.
func (s GridStatus) Valid() bool {
	switch s {
	case StatusStable, StatusStressed, StatusCritical:
		return true
	}
	return false
}

// TelemetrySample is one ingestion result for the grid telemetry stream.
// Nil numeric fields mean the value could not be extracted; Status is nil whenever
// FrequencyHz is nil.
type TelemetrySample struct {
	ID           string      `db:"id" json:"id"`
	GenerationMW *float64    `db:"generation_mw" json:"generation_mw"`
	FrequencyHz  *float64    `db:"frequency" json:"frequency"`
	LoadPercent  *float64    `db:"load_percent" json:"load_percent"`
	Status       *GridStatus `db:"status" json:"status"`
	Source       string      `db:"source" json:"source"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// Empty reports whether no telemetry field was extracted.
func (s *TelemetrySample) Empty() bool {
	return s.GenerationMW == nil && s.FrequencyHz == nil && s.LoadPercent == nil
}
