package rank

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquiroga/cafecerca/pkg/catalog"
	"github.com/mquiroga/cafecerca/pkg/geo"
)

func f(v float64) *float64 { return &v }

func record(name, roaster string, score *float64, lat, lon *float64) catalog.Record {
	return catalog.Record{Name: name, Roaster: roaster, Score: score, Lat: lat, Lon: lon}
}

var origin = geo.Point{Lat: -38.0055, Lon: -57.5426}

func testRecords() []catalog.Record {
	return []catalog.Record{
		record("Lejos", "Altura", f(9.0), f(-38.0453), f(-57.5334)),  // ~4.5 km
		record("Cerca", "Propio", f(7.0), f(-38.0060), f(-57.5430)),  // ~65 m
		record("Medio", "Altura", f(6.0), f(-38.0150), f(-57.5500)),  // ~1.2 km
		record("Sin Mapa", "Propio", f(8.0), nil, nil),               // no coordinates
		record("Exacto", "Propio", nil, f(origin.Lat), f(origin.Lon)), // distance 0
	}
}

func TestRankWithinRadius(t *testing.T) {
	results := Rank(testRecords(), origin, 2.0, Filters{})

	require.NotEmpty(t, results)
	for _, res := range results {
		assert.LessOrEqual(t, res.DistanceKM, 2.0, "%s beyond radius", res.Name)
	}

	names := make([]string, len(results))
	for i, res := range results {
		names[i] = res.Name
	}
	assert.Equal(t, []string{"Exacto", "Cerca", "Medio"}, names)
}

func TestRankSortedAscending(t *testing.T) {
	results := Rank(testRecords(), origin, 1000, Filters{})
	assert.True(t, sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].DistanceKM < results[j].DistanceKM
	}))

	// Re-ranking the same input yields the same order.
	again := Rank(testRecords(), origin, 1000, Filters{})
	require.Equal(t, len(results), len(again))
	for i := range results {
		assert.Equal(t, results[i].Name, again[i].Name)
	}
}

func TestRankZeroRadius(t *testing.T) {
	results := Rank(testRecords(), origin, 0, Filters{})
	require.Len(t, results, 1)
	assert.Equal(t, "Exacto", results[0].Name)
	assert.Equal(t, 0.0, results[0].DistanceKM)
}

func TestRankExcludesMissingCoordinates(t *testing.T) {
	results := Rank(testRecords(), origin, 1000, Filters{})
	for _, res := range results {
		assert.NotEqual(t, "Sin Mapa", res.Name)
	}
}

func TestRankAllMissingCoordinates(t *testing.T) {
	records := []catalog.Record{
		record("A", "", nil, nil, nil),
		record("B", "", nil, nil, nil),
	}
	assert.Empty(t, Rank(records, origin, 1000, Filters{}))
	assert.Empty(t, Index(records, origin))
}

func TestRankFiltersAreConjunctive(t *testing.T) {
	// Roaster filter alone.
	results := Rank(testRecords(), origin, 1000, Filters{Roaster: "Altura"})
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, "Altura", res.Roaster)
	}

	// Roaster AND min score: only the far Altura cafe scores 9.
	results = Rank(testRecords(), origin, 1000, Filters{Roaster: "Altura", MinScore: f(8.5)})
	require.Len(t, results, 1)
	assert.Equal(t, "Lejos", results[0].Name)

	// Min score excludes records with nil score.
	results = Rank(testRecords(), origin, 1000, Filters{MinScore: f(1.0)})
	for _, res := range results {
		assert.NotEqual(t, "Exacto", res.Name)
	}
}

func TestRankBlocksDerivedFromDistance(t *testing.T) {
	results := Rank(testRecords(), origin, 1000, Filters{})
	for _, res := range results {
		assert.InDelta(t, res.DistanceKM*1000/87, res.Blocks, 1e-9)
	}
}

func TestIndexIncludesBeyondRadius(t *testing.T) {
	index := Index(testRecords(), origin)
	require.Len(t, index, 4) // everything with coordinates

	names := make([]string, len(index))
	for i, res := range index {
		names[i] = res.Name
	}
	assert.Equal(t, []string{"Exacto", "Cerca", "Medio", "Lejos"}, names)
}

func TestRankStableOnEqualDistance(t *testing.T) {
	records := []catalog.Record{
		record("Primero", "", nil, f(-38.0100), f(-57.5400)),
		record("Segundo", "", nil, f(-38.0100), f(-57.5400)),
	}
	results := Rank(records, origin, 1000, Filters{})
	require.Len(t, results, 2)
	assert.Equal(t, "Primero", results[0].Name)
	assert.Equal(t, "Segundo", results[1].Name)
}
