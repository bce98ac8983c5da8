package storage

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"bito/concertworker/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS concerts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	venue TEXT NOT NULL,
	event_date DATE NOT NULL,
	price INTEGER NOT NULL CHECK (price >= 0),
	url TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	seq INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_concerts_price ON concerts(price);
CREATE INDEX IF NOT EXISTS idx_concerts_date ON concerts(event_date);
`

// OpenPostgres opens a connection pool to Postgres through pgx and creates the schema
func OpenPostgres(dsn string) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.ForStore("postgres").Info().Msg("Database initialized")
	return &sqlStore{db: db, driver: "postgres", placeholder: postgresPlaceholder}, nil
}

func postgresPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}
