package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mquiroga/cafecerca/pkg/vote"
)

// Store is the persistence interface for the vote ledger.
type Store interface {
	vote.Ledger
	CountVotes(ctx context.Context) (int, error)
	Close() error
}

// SQLiteStore implements Store using SQLite. The composite primary key
// plus ON CONFLICT upsert makes each vote write a single atomic
// statement, so concurrent voters cannot lose each other's updates the
// way a scan-then-write ledger can.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertVote(ctx context.Context, voterID, cafe string, score float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO votes (voter_id, cafe, score, ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(voter_id, cafe) DO UPDATE SET
			score = excluded.score,
			ts = excluded.ts
	`, voterID, cafe, score, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert vote %s/%s: %w", voterID, cafe, err)
	}
	return nil
}

func (s *SQLiteStore) LoadVotes(ctx context.Context) ([]vote.Vote, error) {
	var votes []vote.Vote
	err := s.db.SelectContext(ctx, &votes,
		"SELECT voter_id, cafe, score, ts FROM votes ORDER BY ts")
	if err != nil {
		return nil, fmt.Errorf("load votes: %w", err)
	}
	return votes, nil
}

func (s *SQLiteStore) CountVotes(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM votes"); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return count, nil
}
