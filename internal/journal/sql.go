package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const queryTimeout = 5 * time.Second

// Schema is created on open; both supported drivers accept it as written.
const schema = `
CREATE TABLE IF NOT EXISTS config_submissions (
	id TEXT PRIMARY KEY,
	submitted_at TIMESTAMP NOT NULL,
	strategy_id TEXT NOT NULL,
	parameters TEXT NOT NULL,
	outcome TEXT NOT NULL,
	message TEXT NOT NULL
)`

// SQLJournal stores entries in SQLite (the local default) or Postgres.
type SQLJournal struct {
	db *sqlx.DB
}

// Open connects with the given driver (sqlite3 or postgres) and ensures the
// submissions table exists.
func Open(driver, dsn string) (*SQLJournal, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	j := &SQLJournal{db: db}
	if err := j.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// NewWithDB wraps an existing connection without touching the schema.
func NewWithDB(db *sqlx.DB) *SQLJournal {
	return &SQLJournal{db: db}
}

// Init creates the submissions table if needed.
func (j *SQLJournal) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// Record inserts one submission entry.
func (j *SQLJournal) Record(ctx context.Context, entry Entry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := j.db.Rebind(`INSERT INTO config_submissions
		(id, submitted_at, strategy_id, parameters, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := j.db.ExecContext(ctx, query,
		entry.ID, entry.SubmittedAt, entry.StrategyID,
		entry.Parameters, entry.Outcome, entry.Message)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first. ULID ids sort by
// time, so ordering by id is ordering by submission.
func (j *SQLJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	query := j.db.Rebind(`SELECT id, submitted_at, strategy_id, parameters, outcome, message
		FROM config_submissions ORDER BY id DESC LIMIT ?`)

	var entries []Entry
	if err := j.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	return entries, nil
}

// Close releases the database connection.
func (j *SQLJournal) Close() error {
	return j.db.Close()
}
