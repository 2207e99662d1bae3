package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"gridpulse/backend/services/grid-service/internal/models"
)

// NewsRepository persists news headlines. Rows are never updated or deleted here.
type NewsRepository struct {
	db *sql.DB
}

// NewNewsRepository returns repository.
func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// Insert appends one item; ID and CreatedAt are filled in.
func (r *NewsRepository) Insert(ctx context.Context, item *models.NewsItem) error {
	const query = `
		INSERT INTO grid_news (id, title, description, type, region, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	id := uuid.NewString()
	if err := r.db.QueryRowContext(ctx, query,
		id,
		item.Title,
		stringArg(item.Description),
		string(item.Type),
		stringArg(item.Region),
	).Scan(&item.CreatedAt); err != nil {
		return err
	}
	item.ID = id
	return nil
}

// Recent returns up to limit items, newest first.
func (r *NewsRepository) Recent(ctx context.Context, limit int) ([]models.NewsItem, error) {
	const query = `
		SELECT id, title, description, type, region, created_at
		FROM grid_news
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.NewsItem, 0, limit)
	for rows.Next() {
		var (
			item     models.NewsItem
			newsType string
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &newsType, &item.Region, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Type = models.NewsType(newsType)
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecentTitles returns the titles of the newest limit items.
func (r *NewsRepository) RecentTitles(ctx context.Context, limit int) ([]string, error) {
	const query = `
		SELECT title
		FROM grid_news
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func stringArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
