package vote

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{"voter_id", "item_name", "score", "ts"}

// CSVLedger stores votes in a local flat file. The whole
// read-scan-rewrite cycle runs under a process-wide mutex; that closes
// the lost-update window between goroutines of this process, but a
// second process writing the same file is still unprotected.
type CSVLedger struct {
	mu   sync.Mutex
	path string
}

// NewCSVLedger creates a ledger backed by the CSV file at path. The
// file is created on first write.
func NewCSVLedger(path string) *CSVLedger {
	return &CSVLedger{path: path}
}

func (l *CSVLedger) UpsertVote(_ context.Context, voterID, cafe string, score float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	votes, err := l.loadLocked()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	found := false
	for i := range votes {
		if votes[i].VoterID == voterID && votes[i].Cafe == cafe {
			votes[i].Score = score
			votes[i].Timestamp = now
			found = true
			break
		}
	}
	if !found {
		votes = append(votes, Vote{VoterID: voterID, Cafe: cafe, Score: score, Timestamp: now})
	}

	return l.writeLocked(votes)
}

func (l *CSVLedger) LoadVotes(_ context.Context) ([]Vote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked()
}

func (l *CSVLedger) loadLocked() ([]Vote, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open vote ledger %s: %w", l.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse vote ledger %s: %w", l.path, err)
	}

	var votes []Vote
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue // header or short row
		}
		score, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, row[3])
		votes = append(votes, Vote{
			VoterID:   row[0],
			Cafe:      row[1],
			Score:     score,
			Timestamp: ts,
		})
	}
	return votes, nil
}

// writeLocked rewrites the whole file through a temp-and-rename so a
// failed write never leaves a half-written ledger behind.
func (l *CSVLedger) writeLocked(votes []Vote) error {
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("write vote ledger %s: %w", l.path, err)
	}

	writer := csv.NewWriter(f)
	rows := [][]string{csvHeader}
	for _, v := range votes {
		rows = append(rows, []string{
			v.VoterID,
			v.Cafe,
			strconv.FormatFloat(v.Score, 'f', -1, 64),
			v.Timestamp.Format(time.RFC3339),
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write vote ledger %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close vote ledger %s: %w", l.path, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace vote ledger %s: %w", l.path, err)
	}
	return nil
}
