package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/mquiroga/cafecerca/internal/config"
	"github.com/mquiroga/cafecerca/internal/scheduler"
	"github.com/mquiroga/cafecerca/internal/store"
	"github.com/mquiroga/cafecerca/pkg/catalog"
	"github.com/mquiroga/cafecerca/pkg/geocode"
	"github.com/mquiroga/cafecerca/pkg/rank"
	"github.com/mquiroga/cafecerca/pkg/server"
	"github.com/mquiroga/cafecerca/pkg/vote"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildLoader(cfg *config.Config) *catalog.Loader {
	var src catalog.Source
	if cfg.Dataset.URL != "" {
		src = catalog.NewExportSource(cfg.Dataset.URL)
	} else {
		src = catalog.FileSource{Path: cfg.Dataset.Path}
	}
	return catalog.NewLoader(src, cfg.Dataset.ParseRefreshInterval())
}

func buildGeocoder(cfg *config.Config) geocode.Geocoder {
	return geocode.NewNominatim(cfg.Geocoder.BaseURL, cfg.Geocoder.CityBias, cfg.Geocoder.ParseTimeout())
}

// buildLedger returns the configured vote backend plus a close func.
func buildLedger(cfg *config.Config) (vote.Ledger, func() error, error) {
	switch cfg.Votes.Backend {
	case "", "sqlite":
		db, err := store.New(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return db, db.Close, nil
	case "csv":
		return vote.NewCSVLedger(cfg.Votes.CSVPath), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown votes backend %q", cfg.Votes.Backend)
	}
}

func runSearch(address string, radiusKM float64, roaster string, minScore float64, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if radiusKM <= 0 {
		radiusKM = cfg.Search.DefaultRadiusKM
	}

	ctx := context.Background()

	loc, err := buildGeocoder(cfg).Geocode(ctx, address)
	if errors.Is(err, geocode.ErrNotFound) {
		fmt.Println("could not locate the address, try street + number")
		return nil
	}
	if err != nil {
		return fmt.Errorf("geocode: %w", err)
	}

	records, err := buildLoader(cfg).Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	filters := rank.Filters{Roaster: roaster}
	if minScore >= 0 {
		filters.MinScore = &minScore
	}
	results := rank.Rank(records, loc.Point, radiusKM, filters)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Printf("no cafes within %.1f km, try widening the radius\n", radiusKM)
		return nil
	}

	fmt.Printf("from: %s\n\n", loc.DisplayName)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CAFE\tLOCATION\tROASTER\tSCORE\tKM\tBLOCKS")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3f\t%.1f\n",
			res.Name, res.Location, res.Roaster,
			formatScore(res.Score), res.DistanceKM, res.Blocks)
	}
	return w.Flush()
}

func runVote(voterID, cafe string, score float64) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := vote.ValidateScore(score); err != nil {
		return err
	}
	if voterID == "" {
		voterID = uuid.NewString()
		fmt.Fprintf(os.Stderr, "voter: %s (pass --voter to reuse it)\n", voterID)
	}

	ledger, closeLedger, err := buildLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	if err := ledger.UpsertVote(context.Background(), voterID, cafe, score); err != nil {
		return fmt.Errorf("vote not saved: %w", err)
	}

	fmt.Printf("vote saved: %s -> %.1f\n", cafe, score)
	return nil
}

func runRanking(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	records, err := buildLoader(cfg).Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	ledger, closeLedger, err := buildLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	votes, err := ledger.LoadVotes(ctx)
	if err != nil {
		return fmt.Errorf("load votes: %w", err)
	}

	names := make([]string, len(records))
	for i := range records {
		names[i] = records[i].Name
	}
	ranking := vote.ComputeRanking(names, votes, cfg.Ranking.SmoothingVotes)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranking)
	}

	if len(votes) == 0 {
		fmt.Println("no votes recorded yet")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CAFE\tVOTES\tMEAN\tADJUSTED")
	for _, agg := range ranking {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			agg.Cafe, agg.Votes, formatScore(agg.Mean), formatScore(agg.Adjusted))
	}
	return w.Flush()
}

func runCheck() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	records, err := buildLoader(cfg).Load(context.Background())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	missing := 0
	for i := range records {
		if _, ok := records[i].Coordinates(); !ok {
			missing++
		}
	}

	fmt.Printf("catalog ok: %d records, %d without usable coordinates\n", len(records), missing)
	return nil
}

func runServe(port int, daemon bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	loader := buildLoader(cfg)
	geocoder := buildGeocoder(cfg)

	ledger, closeLedger, err := buildLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	if daemon {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		sched := scheduler.New(loader, cfg.Dataset.ParseRefreshInterval())
		go func() {
			if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
			}
		}()
		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nshutting down...")
		}()
	}

	srv := server.New(loader, geocoder, ledger, cfg.Search.DefaultRadiusKM, cfg.Ranking.SmoothingVotes, port)
	return srv.ListenAndServe()
}

func formatScore(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *f)
}
