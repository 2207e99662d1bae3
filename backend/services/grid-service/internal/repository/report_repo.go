package repository

import (
	"context"
	"database/sql"

	"gridpulse/backend/services/grid-service/internal/models"
)

// ReportRepository reads power reports written by the public report form.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository returns repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Count returns the number of stored reports.
func (r *ReportRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM power_reports`
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Recent returns up to limit reports, newest first.
func (r *ReportRepository) Recent(ctx context.Context, limit int) ([]models.PowerReport, error) {
	const query = `
		SELECT id, status, address, region, upvotes, downvotes, created_at
		FROM power_reports
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]models.PowerReport, 0, limit)
	for rows.Next() {
		var (
			report models.PowerReport
			status string
		)
		if err := rows.Scan(&report.ID, &status, &report.Address, &report.Region, &report.Upvotes, &report.Downvotes, &report.CreatedAt); err != nil {
			return nil, err
		}
		report.Status = models.PowerAvailability(status)
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
