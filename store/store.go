// Package store persists sweep sessions and their per-point results in a
// sqlite database, so bench runs can be compared and re-fitted after the
// instruments are long disconnected.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cwbudde/algo-linearity/measure/iip2"
)

// Session is one recorded sweep run.
type Session struct {
	ID         int64
	StartedAt  time.Time
	F1         float64
	F2         float64
	SampleRate float64

	// Intercept is invalid when the run ended without a usable fit.
	Intercept sql.NullFloat64
}

// Point is one recorded sweep step. ProductPower is invalid for steps whose
// capture or extraction failed, mirroring iip2.Point's explicit absence.
type Point struct {
	SessionID    int64
	Step         int
	Level        float64
	ProductPower sql.NullFloat64
}

// Store wraps a sqlite database holding sweep results.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sweep database at path and initializes
// the schema. WAL journaling keeps concurrent readers cheap.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", path))
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	if _, err := db.Exec(initSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession records the start of a sweep run and returns its ID.
func (s *Store) CreateSession(ctx context.Context, f1, f2, sampleRate float64) (int64, error) {
	res, err := s.db.ExecContext(ctx, insertSessionSQL, f1, f2, sampleRate)
	if err != nil {
		return 0, fmt.Errorf("store: creating session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: reading session id: %w", err)
	}

	return id, nil
}

// SaveResult stores all sweep points and the intercept (when available) for
// a session in one transaction.
func (s *Store) SaveResult(ctx context.Context, sessionID int64, res *iip2.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, p := range res.Points {
		power := sql.NullFloat64{}
		if p.Valid {
			power = sql.NullFloat64{Float64: p.ProductPower, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, insertPointSQL, sessionID, i, p.Level, power); err != nil {
			return fmt.Errorf("store: inserting point %d: %w", i, err)
		}
	}

	if res.InterceptOK {
		if _, err := tx.ExecContext(ctx, updateInterceptSQL, res.Intercept, sessionID); err != nil {
			return fmt.Errorf("store: updating intercept: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: committing result: %w", err)
	}

	return nil
}

// Sessions returns all recorded sessions ordered by start time.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("store: listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.StartedAt, &sess.F1, &sess.F2, &sess.SampleRate, &sess.Intercept); err != nil {
			return nil, fmt.Errorf("store: scanning session: %w", err)
		}
		out = append(out, sess)
	}

	return out, rows.Err()
}

// Points returns a session's sweep points in sweep order.
func (s *Store) Points(ctx context.Context, sessionID int64) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, selectPointsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: listing points: %w", err)
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.SessionID, &p.Step, &p.Level, &p.ProductPower); err != nil {
			return nil, fmt.Errorf("store: scanning point: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}
