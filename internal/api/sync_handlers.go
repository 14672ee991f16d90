package api

import (
	"encoding/json"
	"net/http"
	"time"

	"styleassets/internal/domain"
	"styleassets/internal/events"
)

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var req domain.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.SyncType != "" && !domain.IsValidSyncType(req.SyncType) {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid sync_type", string(req.SyncType))
		return
	}

	report := s.engine.Sync(ctx, req)
	s.publish(ctx, events.SubjectSyncCompleted, events.SyncCompleted{
		SyncType:    string(report.SyncType),
		Successful:  report.Summary.SuccessfulSyncs,
		Failed:      report.Summary.FailedSyncs,
		SuccessRate: report.Summary.SuccessRate,
		Timestamp:   time.Now().UTC(),
	})
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	manifest, err := s.buildManifest(ctx)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// importReceipt acknowledges a peer's manifest push. missing_locally lists
// the advertised IDs this catalog does not have, per asset kind.
type importReceipt struct {
	Accepted  bool                `json:"accepted"`
	Service   string              `json:"service"`
	Received  int                 `json:"assets_received"`
	Missing   map[string][]string `json:"missing_locally,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// handleImport receives a peer's asset manifest during a push sync. The
// catalog is not mutated; the receipt reports what the peer has that this
// service lacks.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var m domain.AssetManifest
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid manifest", err.Error())
		return
	}

	missing := make(map[string][]string)
	for _, id := range m.Fonts {
		if _, ok, err := s.store.GetFont(ctx, id); err == nil && !ok {
			missing["fonts"] = append(missing["fonts"], id)
		}
	}
	for _, id := range m.ColorSchemes {
		if _, ok, err := s.store.GetScheme(ctx, id); err == nil && !ok {
			missing["color_schemes"] = append(missing["color_schemes"], id)
		}
	}
	for _, id := range m.Templates {
		if _, ok, err := s.store.GetTemplate(ctx, id); err == nil && !ok {
			missing["templates"] = append(missing["templates"], id)
		}
	}
	if len(missing) == 0 {
		missing = nil
	}

	s.logger.InfoContext(ctx, "peer manifest received", appendRequestID(ctx, []any{
		"peer", m.Service,
		"assets", m.AssetTotal(),
	})...)
	writeJSON(w, http.StatusOK, importReceipt{
		Accepted:  true,
		Service:   m.Service,
		Received:  m.AssetTotal(),
		Missing:   missing,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var in domain.ValidateAssets
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.validator.Validate(ctx, in))
}
