package rank

import (
	"sort"

	"github.com/mquiroga/cafecerca/pkg/catalog"
	"github.com/mquiroga/cafecerca/pkg/geo"
)

// Result is a catalog record plus its distance from the reference
// point. DistanceKM keeps full precision; rounding happens only at
// presentation so radius comparisons and ordering are never distorted.
type Result struct {
	catalog.Record
	DistanceKM float64 `json:"distance_km"`
	Blocks     float64 `json:"blocks"`
}

// Filters narrows ranked results. All predicates are conjunctive.
type Filters struct {
	Roaster  string   // exact roaster match when non-empty
	MinScore *float64 // minimum record score when set
}

func (f Filters) match(r *catalog.Record) bool {
	if f.Roaster != "" && r.Roaster != f.Roaster {
		return false
	}
	if f.MinScore != nil {
		if r.Score == nil || *r.Score < *f.MinScore {
			return false
		}
	}
	return true
}

// Rank returns the records within radiusKM of ref that pass the
// filters, ordered by ascending distance. Records without usable
// coordinates are silently excluded; ties keep source order.
func Rank(records []catalog.Record, ref geo.Point, radiusKM float64, filters Filters) []Result {
	results := Index(records, ref)

	filtered := results[:0]
	for _, res := range results {
		if res.DistanceKM > radiusKM {
			continue
		}
		if !filters.match(&res.Record) {
			continue
		}
		filtered = append(filtered, res)
	}
	return filtered
}

// Index ranks every record with coordinates by distance from ref, with
// no radius or attribute filtering. This is the "full index" view: a
// record missing geodata is absent here too, but still present in the
// raw catalog listing.
func Index(records []catalog.Record, ref geo.Point) []Result {
	var results []Result
	for i := range records {
		p, ok := records[i].Coordinates()
		if !ok {
			continue
		}
		km := geo.DistanceKM(ref, p)
		results = append(results, Result{
			Record:     records[i],
			DistanceKM: km,
			Blocks:     geo.Blocks(km),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKM < results[j].DistanceKM
	})
	return results
}
