package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bito/concertworker/internal/concert"
	"bito/concertworker/logger"
	apperrors "bito/concertworker/pkg/errors"
)

// sqlStore implements Store on database/sql. The dialects differ only in
// their schema and placeholder syntax.
type sqlStore struct {
	db     *sql.DB
	driver string
	// placeholder returns the bind parameter for the n-th (1-based) argument
	placeholder func(n int) string
}

const selectColumns = `SELECT id, title, artist, venue, event_date, price, url, source FROM concerts`

// rebind rewrites ? placeholders into the dialect's syntax
func (s *sqlStore) rebind(query string) string {
	if s.placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ReplaceAll deletes and inserts inside one transaction
func (s *sqlStore) ReplaceAll(ctx context.Context, concerts []concert.Concert) (err error) {
	if err = validate(s.driver, concerts); err != nil {
		return err
	}
	assignIDs(concerts)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorage(s.driver, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM concerts`); err != nil {
		return apperrors.NewStorage(s.driver, "delete concerts", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO concerts (id, title, artist, venue, event_date, price, url, source, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return apperrors.NewStorage(s.driver, "prepare insert", err)
	}
	defer stmt.Close()

	for i, c := range concerts {
		if _, err = stmt.ExecContext(ctx, c.ID, c.Title, c.Artist, c.Venue, c.Date.UTC(), c.Price, c.URL, c.Source, i); err != nil {
			return apperrors.NewStorage(s.driver, fmt.Sprintf("insert concert %q", c.Title), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewStorage(s.driver, "commit", err)
	}

	logger.ForStore(s.driver).Debug().Int("count", len(concerts)).Msg("Replaced concerts")
	return nil
}

// Cheap returns the concerts priced at most maxPrice ordered by price, then date
func (s *sqlStore) Cheap(ctx context.Context, maxPrice int) ([]concert.Concert, error) {
	return s.query(ctx, selectColumns+` WHERE price <= ? ORDER BY price ASC, event_date ASC, seq ASC`, maxPrice)
}

// All returns every concert ordered by date, then price
func (s *sqlStore) All(ctx context.Context) ([]concert.Concert, error) {
	return s.query(ctx, selectColumns+` ORDER BY event_date ASC, price ASC, seq ASC`)
}

func (s *sqlStore) query(ctx context.Context, query string, args ...interface{}) ([]concert.Concert, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, apperrors.NewStorage(s.driver, "query concerts", err)
	}
	defer rows.Close()

	out := make([]concert.Concert, 0)
	for rows.Next() {
		var c concert.Concert
		if err := rows.Scan(&c.ID, &c.Title, &c.Artist, &c.Venue, &c.Date, &c.Price, &c.URL, &c.Source); err != nil {
			return nil, apperrors.NewStorage(s.driver, "scan concert", err)
		}
		c.Date = concert.Day(c.Date.UTC())
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage(s.driver, "iterate concerts", err)
	}
	return out, nil
}

// Close closes the database
func (s *sqlStore) Close() error {
	return s.db.Close()
}
