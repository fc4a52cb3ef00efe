package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mquiroga/cafecerca/pkg/catalog"
)

// Scheduler periodically refreshes the cafe catalog so a remote dataset
// export is re-fetched without restarting the daemon.
type Scheduler struct {
	loader   *catalog.Loader
	interval time.Duration
}

// New creates a new scheduler.
func New(loader *catalog.Loader, interval time.Duration) *Scheduler {
	if interval == 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{loader: loader, interval: interval}
}

// Run starts the refresh loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Load immediately on start so the first request is served warm.
	fmt.Fprintln(os.Stderr, "scheduler: initial catalog load...")
	s.refresh(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (refresh every %s)\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintln(os.Stderr, "scheduler: refreshing catalog...")
			s.loader.Invalidate()
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	records, err := s.loader.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  catalog error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  catalog: %d records\n", len(records))
}
