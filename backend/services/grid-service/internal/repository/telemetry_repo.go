package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"gridpulse/backend/services/grid-service/internal/models"
)

// TelemetryRepository persists grid telemetry samples.
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository returns repository.
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Insert appends a sample in a single statement; ID and CreatedAt are filled in.
func (r *TelemetryRepository) Insert(ctx context.Context, sample *models.TelemetrySample) error {
	const query = `
		INSERT INTO grid_data (id, generation_mw, frequency, load_percent, status, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	id := uuid.NewString()
	if err := r.db.QueryRowContext(ctx, query,
		id,
		floatArg(sample.GenerationMW),
		floatArg(sample.FrequencyHz),
		floatArg(sample.LoadPercent),
		statusArg(sample.Status),
		sample.Source,
	).Scan(&sample.CreatedAt); err != nil {
		return err
	}
	sample.ID = id
	return nil
}

// Latest returns the most recent sample, or nil when none was ever stored.
func (r *TelemetryRepository) Latest(ctx context.Context) (*models.TelemetrySample, error) {
	const query = `
		SELECT id, generation_mw, frequency, load_percent, status, source, created_at
		FROM grid_data
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		sample models.TelemetrySample
		status sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query).Scan(
		&sample.ID,
		&sample.GenerationMW,
		&sample.FrequencyHz,
		&sample.LoadPercent,
		&status,
		&sample.Source,
		&sample.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if status.Valid {
		st := models.GridStatus(status.String)
		sample.Status = &st
	}
	return &sample, nil
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func statusArg(s *models.GridStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}
