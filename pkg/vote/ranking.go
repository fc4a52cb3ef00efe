package vote

import "sort"

// DefaultSmoothing is the minimum-votes-to-trust constant m in the
// shrinkage formula.
const DefaultSmoothing = 5.0

// Aggregate is the derived per-cafe ranking row. Mean and Adjusted are
// nil when they are undefined: Mean for zero-vote cafes, Adjusted only
// when no votes exist anywhere.
type Aggregate struct {
	Cafe     string   `json:"cafe"`
	Votes    int      `json:"votes"`
	Mean     *float64 `json:"mean"`
	Adjusted *float64 `json:"adjusted"`
}

// ComputeRanking aggregates votes per cafe and smooths each mean toward
// the global mean:
//
//	adjusted = v/(v+m)*mean + m/(v+m)*global
//
// The catalog is outer-joined with the votes: every catalog cafe
// appears even with zero votes, and votes for cafes that dropped out of
// the catalog are still counted. Order: adjusted descending, ties by
// vote count descending.
func ComputeRanking(cafes []string, votes []Vote, smoothing float64) []Aggregate {
	if smoothing <= 0 {
		smoothing = DefaultSmoothing
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	total := 0.0
	for _, v := range votes {
		sums[v.Cafe] += v.Score
		counts[v.Cafe]++
		total += v.Score
	}

	var globalMean *float64
	if len(votes) > 0 {
		g := total / float64(len(votes))
		globalMean = &g
	}

	names := make([]string, 0, len(cafes)+len(counts))
	seen := make(map[string]bool, len(cafes))
	for _, name := range cafes {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	// Votes may reference cafes no longer in the catalog; keep them.
	voted := make([]string, 0, len(counts))
	for name := range counts {
		if !seen[name] {
			voted = append(voted, name)
		}
	}
	sort.Strings(voted)
	names = append(names, voted...)

	aggregates := make([]Aggregate, 0, len(names))
	for _, name := range names {
		agg := Aggregate{Cafe: name, Votes: counts[name]}
		if globalMean != nil {
			adjusted := *globalMean
			if agg.Votes > 0 {
				mean := sums[name] / float64(agg.Votes)
				agg.Mean = &mean
				v := float64(agg.Votes)
				adjusted = v/(v+smoothing)*mean + smoothing/(v+smoothing)**globalMean
			}
			agg.Adjusted = &adjusted
		}
		aggregates = append(aggregates, agg)
	}

	sort.SliceStable(aggregates, func(i, j int) bool {
		ai, aj := aggregates[i], aggregates[j]
		switch {
		case ai.Adjusted == nil && aj.Adjusted == nil:
			return false
		case aj.Adjusted == nil:
			return true
		case ai.Adjusted == nil:
			return false
		case *ai.Adjusted != *aj.Adjusted:
			return *ai.Adjusted > *aj.Adjusted
		}
		return ai.Votes > aj.Votes
	})
	return aggregates
}
