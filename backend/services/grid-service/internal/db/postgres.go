package db

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	libdb "gridpulse/backend/libs/db"
)

// NewPostgres reuses shared DB initializer.
func NewPostgres(dsn string) (*sql.DB, error) {
	return libdb.NewPostgresDB(dsn)
}

// NewListener opens the dedicated connection used by the change feed.
func NewListener(ctx context.Context, dsn string) (*pgx.Conn, error) {
	return libdb.NewListenConn(ctx, dsn)
}
