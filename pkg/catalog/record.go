package catalog

import "github.com/mquiroga/cafecerca/pkg/geo"

// Record is a single cafe row from the dataset. Score and coordinates
// are nil when the source field was blank or unparseable.
type Record struct {
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Roaster  string   `json:"roaster"`
	Score    *float64 `json:"score"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
}

// Coordinates returns the record's position and whether it has one.
// Records without usable coordinates stay in the catalog but are
// excluded from distance ranking.
func (r *Record) Coordinates() (geo.Point, bool) {
	if r.Lat == nil || r.Lon == nil {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: *r.Lat, Lon: *r.Lon}
	if !p.Valid() {
		return geo.Point{}, false
	}
	return p, true
}
