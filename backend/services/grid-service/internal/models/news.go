package models

import "time"

// NewsType categorises a news headline.
type NewsType string

const (
	NewsAlert  NewsType = "alert"
	NewsInfo   NewsType = "info"
	NewsUpdate NewsType = "update"
)

// MaxNewsTitleLen bounds stored titles, counted in characters.
const MaxNewsTitleLen = 200

// NewsItem is an immutable headline captured from the news listing.
type NewsItem struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Type        NewsType  `db:"type" json:"type"`
	Region      *string   `db:"region" json:"region"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
