package models

import "time"

// PowerAvailability is what a resident reported for their address.
type PowerAvailability string

const (
	PowerAvailable   PowerAvailability = "available"
	PowerUnavailable PowerAvailability = "unavailable"
)

// PowerReport is written by the public report form; this service only reads it.
type PowerReport struct {
	ID        string            `db:"id" json:"id"`
	Status    PowerAvailability `db:"status" json:"status"`
	Address   string            `db:"address" json:"address"`
	Region    *string           `db:"region" json:"region"`
	Upvotes   int               `db:"upvotes" json:"upvotes"`
	Downvotes int               `db:"downvotes" json:"downvotes"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// GridSnapshot is the on-demand read model used by dashboards to catch up after missing
// live notifications. Every field stays nil until the corresponding data exists.
type GridSnapshot struct {
	GenerationMW *float64    `json:"generation"`
	FrequencyHz  *float64    `json:"frequency"`
	LoadPercent  *float64    `json:"load"`
	Reports      *int64      `json:"reports"`
	Status       *GridStatus `json:"status"`
	LastUpdated  *time.Time  `json:"last_updated"`
}
