package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"styleassets/internal/domain"
	"styleassets/internal/events"
)

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSchemes(w, r)
	case http.MethodPost:
		s.createScheme(w, r)
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPost}, ", "))
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// handleSchemeSubroutes dispatches /api/color-schemes/{name}. Names may be
// display names ("Academic Blue") or catalog IDs ("academic_blue").
func (s *Server) handleSchemeSubroutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/color-schemes/"), "/")
	if rest == "" || strings.Contains(rest, "/") {
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
		return
	}
	if r.Method != http.MethodGet {
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	s.getScheme(w, r, rest)
}

func (s *Server) listSchemes(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.schemes.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.writeStoreErr(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// getScheme returns one scheme and counts the fetch as a use.
func (s *Server) getScheme(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	scheme, ok, err := s.schemes.Get(ctx, name)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	if !ok {
		s.writeErr(ctx, w, http.StatusNotFound, "color scheme not found", "")
		return
	}
	if upd, ok, err := s.schemes.Use(ctx, scheme.ID); err == nil && ok {
		scheme = upd
	}
	writeJSON(w, http.StatusOK, scheme)
}

func (s *Server) createScheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in domain.CreateColorScheme
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	scheme, err := s.schemes.Create(ctx, in)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	s.publish(ctx, events.SubjectSchemeCreated, events.SchemeCreated{
		ID:        scheme.ID,
		Name:      scheme.Name,
		Category:  string(scheme.Category),
		Timestamp: time.Now().UTC(),
	})
	writeJSON(w, http.StatusCreated, scheme)
}
