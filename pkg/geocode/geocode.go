package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mquiroga/cafecerca/pkg/geo"
)

// ErrNotFound means the service resolved the request but matched no
// location. Callers prompt the user to refine the address; there is no
// retry.
var ErrNotFound = errors.New("address not found")

// Result is a resolved address.
type Result struct {
	Point       geo.Point `json:"point"`
	DisplayName string    `json:"display_name"`
}

// Geocoder resolves a free-text street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Nominatim is a Geocoder backed by a Nominatim-compatible endpoint.
// Every lookup is biased to a fixed city by appending CityBias to the
// query. Results are cached so repeat searches for the same address
// skip the network.
type Nominatim struct {
	baseURL  string
	cityBias string
	client   *http.Client
	cache    *cache.Cache
}

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// NewNominatim creates a geocoder. Empty baseURL uses the public
// Nominatim instance; zero timeout defaults to 10 seconds.
func NewNominatim(baseURL, cityBias string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Nominatim{
		baseURL:  baseURL,
		cityBias: cityBias,
		client:   &http.Client{Timeout: timeout},
		cache:    cache.New(1*time.Hour, 2*time.Hour),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (*Result, error) {
	query := address
	if n.cityBias != "" {
		query = address + ", " + n.cityBias
	}

	if cached, ok := n.cache.Get(query); ok {
		return cached.(*Result), nil
	}

	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", n.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "cafecerca/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: status %d", address, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, fmt.Errorf("geocode %q: bad coordinates in response", address)
	}

	res := &Result{
		Point:       geo.Point{Lat: lat, Lon: lon},
		DisplayName: results[0].DisplayName,
	}
	n.cache.Set(query, res, cache.DefaultExpiration)
	return res, nil
}
