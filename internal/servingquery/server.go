// Package servingquery is a small read-only HTTP API over the serving KV
// store (§9 SPEC_FULL "Analytical read path"): it wraps the same RediSearch
// tag-field queries original_source/analysis/simple_counting.py issues by
// hand (`FT.SEARCH ... @Battalion:{...}`), following the teacher's chi
// router + handler-method layout (eval-engine/internal/ingestion/httpserver).
package servingquery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
)

// Server serves the read-only query API over a serving KV store.
type Server struct {
	store     kvstore.Store
	keyPrefix string
	indexID   string
}

// New constructs a Server bound to the serving stage's key prefix and index.
func New(store kvstore.Store, keyPrefix, indexID string) *Server {
	return &Server{store: store, keyPrefix: keyPrefix, indexID: indexID}
}

// Router builds the chi router for this API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/events/{incidentNumber}", s.handleLatest)
	r.Get("/events/{incidentNumber}/revisions", s.handleRevisions)
	r.Get("/search", s.handleSearch)
	return r
}

// handleLatest returns the highest-revision hash stored for an incident
// number (revision 0 when on_duplicate never produced a later one).
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	incidentNumber := chi.URLParam(r, "incidentNumber")
	base := fmt.Sprintf("%s:%s", s.keyPrefix, incidentNumber)

	keys, err := s.store.ScanKeys(r.Context(), base+":*")
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	latestKey, ok := highestRevisionKey(keys)
	if !ok {
		respondError(w, http.StatusNotFound, "incident not found")
		return
	}
	hash, err := s.store.HGetAll(r.Context(), latestKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, hash)
}

// handleRevisions returns every stored revision for an incident number,
// keyed by their integer revision number.
func (s *Server) handleRevisions(w http.ResponseWriter, r *http.Request) {
	incidentNumber := chi.URLParam(r, "incidentNumber")
	base := fmt.Sprintf("%s:%s", s.keyPrefix, incidentNumber)

	keys, err := s.store.ScanKeys(r.Context(), base+":*")
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := map[string]map[string]string{}
	for _, k := range keys {
		rev := k[strings.LastIndex(k, ":")+1:]
		hash, err := s.store.HGetAll(r.Context(), k)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out[rev] = hash
	}
	respondJSON(w, http.StatusOK, out)
}

// handleSearch wraps FT.SEARCH with a battalion/district tag query, the same
// shape as original_source's `@Battalion:{B09}` ad-hoc queries.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	battalion := r.URL.Query().Get("battalion")
	district := r.URL.Query().Get("district")
	if battalion == "" && district == "" {
		respondError(w, http.StatusBadRequest, "at least one of battalion or district is required")
		return
	}

	var clauses []string
	if battalion != "" {
		clauses = append(clauses, fmt.Sprintf("@Battalion:{%s}", battalion))
	}
	if district != "" {
		clauses = append(clauses, fmt.Sprintf("@neighborhood_district:{%s}", district))
	}
	query := strings.Join(clauses, " ")

	keys, err := s.store.Search(r.Context(), s.indexID, query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	docs := make([]map[string]string, 0, len(keys))
	for _, k := range keys {
		hash, err := s.store.HGetAll(r.Context(), k)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		docs = append(docs, hash)
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": docs})
}

// highestRevisionKey picks the key with the largest trailing integer suffix
// (§4.4 Latest-revision discovery, applied here for reads).
func highestRevisionKey(keys []string) (string, bool) {
	best := ""
	highest := -1
	for _, k := range keys {
		idx := strings.LastIndex(k, ":")
		if idx < 0 {
			continue
		}
		rev, err := strconv.Atoi(k[idx+1:])
		if err != nil {
			continue
		}
		if rev > highest {
			highest = rev
			best = k
		}
	}
	return best, highest >= 0
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
