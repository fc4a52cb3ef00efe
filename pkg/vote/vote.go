package vote

import (
	"context"
	"fmt"
	"time"
)

// Score bounds advertised to voters.
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// Vote is one voter's rating of one cafe. There is at most one vote per
// (voter, cafe) pair; re-voting overwrites score and timestamp.
type Vote struct {
	VoterID   string    `json:"voter_id" db:"voter_id"`
	Cafe      string    `json:"cafe" db:"cafe"`
	Score     float64   `json:"score" db:"score"`
	Timestamp time.Time `json:"ts" db:"ts"`
}

// ValidationError rejects an out-of-range score before any write.
type ValidationError struct {
	Score float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("score %.2f out of range [%.0f, %.0f]", e.Score, MinScore, MaxScore)
}

// ValidateScore checks the advertised 1-10 range. Out-of-range values
// are an error, never silently clamped.
func ValidateScore(score float64) error {
	if score < MinScore || score > MaxScore {
		return &ValidationError{Score: score}
	}
	return nil
}

// Ledger persists votes. Implementations: the sqlite store (atomic
// conditional update) and CSVLedger (mutex-guarded file rewrite).
type Ledger interface {
	// UpsertVote records a score for (voterID, cafe), overwriting any
	// existing vote for the pair. The score must already be validated.
	UpsertVote(ctx context.Context, voterID, cafe string, score float64) error
	// LoadVotes returns every recorded vote.
	LoadVotes(ctx context.Context) ([]Vote, error)
}
