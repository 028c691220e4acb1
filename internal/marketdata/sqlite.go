package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"quant-terminal/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed bar provider. One writer, few readers; WAL mode
// keeps reads from blocking writes.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if necessary initializes) the bar database.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			ticker   TEXT NOT NULL,
			interval TEXT NOT NULL,
			date     TEXT NOT NULL,
			open     REAL NOT NULL,
			high     REAL NOT NULL,
			low      REAL NOT NULL,
			close    REAL NOT NULL,
			volume   INTEGER NOT NULL,
			PRIMARY KEY (ticker, interval, date)
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// History reads the trailing window of bars for the ticker, ascending by
// date. Returns ErrNoData when nothing is stored.
func (s *Store) History(ctx context.Context, ticker, period, interval string) ([]model.Bar, error) {
	ticker = strings.ToUpper(ticker)
	limit := periodBars(period, interval)

	query := `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE ticker = ? AND interval = ?
		ORDER BY date DESC
	`
	args := []any{ticker, interval}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoData, ticker, interval)
	}

	// Query was newest-first for the LIMIT; flip to ascending.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// Quote derives a snapshot from the two most recent daily bars.
func (s *Store) Quote(ctx context.Context, ticker string) (model.Quote, error) {
	ticker = strings.ToUpper(ticker)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE ticker = ? AND interval = '1d'
		ORDER BY date DESC
		LIMIT 2
	`, ticker)
	if err != nil {
		return model.Quote{}, fmt.Errorf("sqlite query quote: %w", err)
	}
	defer rows.Close()

	var recent []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return model.Quote{}, fmt.Errorf("sqlite scan quote bar: %w", err)
		}
		recent = append(recent, b)
	}
	if err := rows.Err(); err != nil {
		return model.Quote{}, err
	}
	if len(recent) == 0 {
		return model.Quote{}, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	// recent is newest-first; quoteFromBars wants ascending.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return quoteFromBars(ticker, recent), nil
}

// WriteBars upserts a bar set in one transaction. Used by seeding tools.
func (s *Store) WriteBars(ctx context.Context, ticker, interval string, bars []model.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (ticker, interval, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	ticker = strings.ToUpper(ticker)
	for _, b := range bars {
		if _, err := stmt.Exec(ticker, interval, b.Date, b.Open, b.High, b.Low, b.Close, int64(b.Volume)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
