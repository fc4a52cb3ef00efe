package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mquiroga/cafecerca/pkg/catalog"
	"github.com/mquiroga/cafecerca/pkg/geocode"
	"github.com/mquiroga/cafecerca/pkg/rank"
	"github.com/mquiroga/cafecerca/pkg/vote"
)

// voterCookie persists a session voter identity in the browser so
// re-votes land on the same ledger row.
const voterCookie = "voter_id"

// Server provides the HTTP API.
type Server struct {
	loader    *catalog.Loader
	geocoder  geocode.Geocoder
	ledger    vote.Ledger
	radiusKM  float64
	smoothing float64
	port      int
}

// New creates a new HTTP server.
func New(loader *catalog.Loader, geocoder geocode.Geocoder, ledger vote.Ledger, radiusKM, smoothing float64, port int) *Server {
	if port == 0 {
		port = 8080
	}
	if radiusKM <= 0 {
		radiusKM = 2.0
	}
	return &Server{
		loader:    loader,
		geocoder:  geocoder,
		ledger:    ledger,
		radiusKM:  radiusKM,
		smoothing: smoothing,
		port:      port,
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/cafes", s.handleCafes)
	mux.HandleFunc("/api/v1/search", s.handleSearch)
	mux.HandleFunc("/api/v1/votes", s.handleVotes)
	mux.HandleFunc("/api/v1/ranking", s.handleRanking)
	mux.HandleFunc("/api/v1/refresh", s.handleRefresh)
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("cafecerca server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCafes returns the raw catalog, including records that have no
// usable coordinates and therefore never show up in ranked output.
func (s *Server) handleCafes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	records, err := s.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, statusForLoadError(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"count": len(records),
	})
}

// handleSearch geocodes an address and returns cafes within the radius
// plus the full distance-sorted index.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "address parameter is required"})
		return
	}

	radiusKM := s.radiusKM
	if v := r.URL.Query().Get("radius_km"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid radius_km"})
			return
		}
		radiusKM = f
	}

	filters := rank.Filters{Roaster: r.URL.Query().Get("roaster")}
	if v := r.URL.Query().Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_score"})
			return
		}
		filters.MinScore = &f
	}

	loc, err := s.geocoder.Geocode(r.Context(), address)
	if errors.Is(err, geocode.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "could not locate the address, try street + number",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	records, err := s.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, statusForLoadError(err), map[string]string{"error": err.Error()})
		return
	}

	results := rank.Rank(records, loc.Point, radiusKM, filters)
	index := rank.Index(records, loc.Point)

	resp := map[string]any{
		"origin":    loc,
		"radius_km": radiusKM,
		"results":   results,
		"count":     len(results),
		"index":     index,
	}
	if len(results) == 0 {
		resp["message"] = "no cafes within the radius, try widening it"
	}
	writeJSON(w, http.StatusOK, resp)
}

type voteRequest struct {
	Cafe  string  `json:"cafe"`
	Score float64 `json:"score"`
}

// handleVotes records a 1-10 vote for a cafe, keyed by the caller's
// voter cookie. Repeat votes for the same cafe overwrite the old score.
func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Cafe == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cafe is required"})
		return
	}
	if err := vote.ValidateScore(req.Score); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	voterID := s.voterID(w, r)
	if err := s.ledger.UpsertVote(r.Context(), voterID, req.Cafe, req.Score); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "vote not saved: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"saved":    true,
		"voter_id": voterID,
		"cafe":     req.Cafe,
		"score":    req.Score,
	})
}

// handleRanking returns the smoothed vote ranking over the full
// catalog; cafes nobody voted for appear with zero votes.
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	records, err := s.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, statusForLoadError(err), map[string]string{"error": err.Error()})
		return
	}

	votes, err := s.ledger.LoadVotes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	names := make([]string, len(records))
	for i := range records {
		names[i] = records[i].Name
	}

	ranking := vote.ComputeRanking(names, votes, s.smoothing)
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  ranking,
		"votes": len(votes),
		"count": len(ranking),
	})
}

// handleRefresh drops the catalog cache and reloads the source.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	s.loader.Invalidate()
	records, err := s.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, statusForLoadError(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"refreshed": true,
		"count":     len(records),
	})
}

// voterID returns the caller's voter identity, minting and setting a
// new cookie when none is present.
func (s *Server) voterID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(voterCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     voterCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
	})
	return id
}

// statusForLoadError maps catalog failures: a broken schema is a server
// problem, anything else (unreachable export, bad file) is upstream.
func statusForLoadError(err error) int {
	var schemaErr *catalog.SchemaError
	if errors.As(err, &schemaErr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
