package storage

import (
	"database/sql"
	"fmt"

	"bito/concertworker/logger"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS concerts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	venue TEXT NOT NULL,
	event_date DATETIME NOT NULL,
	price INTEGER NOT NULL CHECK (price >= 0),
	url TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	seq INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_concerts_price ON concerts(price);
CREATE INDEX IF NOT EXISTS idx_concerts_date ON concerts(event_date);
`

// OpenSQLite opens the SQLite database at path and creates the schema
func OpenSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating table: %w", err)
	}

	logger.ForStore("sqlite").Info().Str("path", path).Msg("Database initialized")
	return &sqlStore{db: db, driver: "sqlite"}, nil
}
