package visits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements the visit log on a local SQLite file. It is the
// durable default: the detail table is pruned to RecentLimit rows on
// every append, while the counter tables grow with the cumulative
// totals.
//
// Each append runs in a single transaction, which serializes concurrent
// writers at the database level.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if necessary) the visit log database at
// dbPath. An empty path defaults to data/visits.db.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dbPath = filepath.Join(dbDir, "visits.db")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts TEXT NOT NULL,
		route TEXT NOT NULL,
		ip TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		bot_category TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS visit_totals (
		name TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS route_totals (
		route TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ip_totals (
		ip TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS bot_totals (
		category TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Append implements Store. The record insert, counter bumps, and detail
// prune commit atomically.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	if rec.Route == "" || rec.IP == "" {
		return errors.New("visit record requires route and ip")
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO visits(ts, route, ip, user_agent, bot_category) VALUES(?, ?, ?, ?, ?)`,
		rec.Time.UTC().Format(time.RFC3339), rec.Route, rec.IP, rec.UserAgent, rec.BotCategory,
	); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}

	bump := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}

	if err := bump(`INSERT INTO visit_totals(name, count) VALUES('hits', 1)
		ON CONFLICT(name) DO UPDATE SET count = count + 1`); err != nil {
		return fmt.Errorf("bump total: %w", err)
	}
	if err := bump(`INSERT INTO route_totals(route, count) VALUES(?, 1)
		ON CONFLICT(route) DO UPDATE SET count = count + 1`, rec.Route); err != nil {
		return fmt.Errorf("bump route total: %w", err)
	}
	if err := bump(`INSERT INTO ip_totals(ip, count) VALUES(?, 1)
		ON CONFLICT(ip) DO UPDATE SET count = count + 1`, rec.IP); err != nil {
		return fmt.Errorf("bump ip total: %w", err)
	}
	if rec.BotCategory != "" {
		if err := bump(`INSERT INTO bot_totals(category, count) VALUES(?, 1)
			ON CONFLICT(category) DO UPDATE SET count = count + 1`, rec.BotCategory); err != nil {
			return fmt.Errorf("bump bot total: %w", err)
		}
	}

	// Detail rows beyond the display window are dropped; the counter
	// tables above keep the cumulative truth.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM visits WHERE id NOT IN (SELECT id FROM visits ORDER BY id DESC LIMIT ?)`,
		RecentLimit,
	); err != nil {
		return fmt.Errorf("prune visits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollup implements Store.
func (s *SQLiteStore) Rollup(ctx context.Context, now time.Time) (Rollup, error) {
	t := newTotals()

	if err := s.db.QueryRowContext(ctx,
		`SELECT count FROM visit_totals WHERE name = 'hits'`,
	).Scan(&t.hits); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Rollup{}, fmt.Errorf("query total: %w", err)
	}

	if err := s.readCounters(ctx, `SELECT route, count FROM route_totals`, t.routes); err != nil {
		return Rollup{}, err
	}
	if err := s.readCounters(ctx, `SELECT ip, count FROM ip_totals`, t.ips); err != nil {
		return Rollup{}, err
	}
	if err := s.readCounters(ctx, `SELECT category, count FROM bot_totals`, t.bots); err != nil {
		return Rollup{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, route, ip, user_agent, bot_category FROM visits ORDER BY id DESC LIMIT ?`,
		RecentLimit,
	)
	if err != nil {
		return Rollup{}, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var detail []Record
	for rows.Next() {
		var rec Record
		var ts string
		if err := rows.Scan(&ts, &rec.Route, &rec.IP, &rec.UserAgent, &rec.BotCategory); err != nil {
			return Rollup{}, fmt.Errorf("scan visit row: %w", err)
		}
		rec.Time, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return Rollup{}, fmt.Errorf("parse visit timestamp %q: %w", ts, err)
		}
		detail = append(detail, rec)
	}
	if err := rows.Err(); err != nil {
		return Rollup{}, fmt.Errorf("iterate visit rows: %w", err)
	}

	return buildRollup(t, detail, now), nil
}

func (s *SQLiteStore) readCounters(ctx context.Context, query string, dst map[string]int64) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan counter row: %w", err)
		}
		dst[key] = count
	}
	return rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
