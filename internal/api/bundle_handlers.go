package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"styleassets/internal/domain"
	"styleassets/internal/events"
)

func (s *Server) handleBundles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	bundles, err := s.store.ListBundles(r.Context())
	if err != nil {
		s.writeStoreErr(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bundles":     bundles,
		"total_count": len(bundles),
	})
}

// handleBundleSubroutes dispatches /api/bundles/{id} and
// /api/bundles/{id}/download.
func (s *Server) handleBundleSubroutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest := strings.TrimPrefix(r.URL.Path, "/api/bundles/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
		return
	}
	if r.Method != http.MethodGet {
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	id := parts[0]
	switch {
	case len(parts) == 1:
		s.getBundle(w, r, id)
	case len(parts) == 2 && parts[1] == "download":
		s.downloadBundle(w, r, id)
	default:
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
	}
}

func (s *Server) getBundle(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	bnd, ok, err := s.store.GetBundle(ctx, id)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	if !ok {
		s.writeErr(ctx, w, http.StatusNotFound, "bundle not found", "")
		return
	}
	writeJSON(w, http.StatusOK, bnd)
}

func (s *Server) downloadBundle(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	bnd, ok, err := s.store.GetBundle(ctx, id)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	if !ok {
		s.writeErr(ctx, w, http.StatusNotFound, "bundle not found", "")
		return
	}

	f, err := s.root.Open(bnd.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeErr(ctx, w, http.StatusNotFound, "bundle archive not found", "")
			return
		}
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read bundle archive", err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read bundle archive", err.Error())
		return
	}

	filename := path.Base(bnd.Path)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

// bundleCreated is the create response; the flat shape with per-kind counts
// predates the stored record and is what fleet clients parse.
type bundleCreated struct {
	Success     bool           `json:"success"`
	BundleID    string         `json:"bundle_id"`
	BundleName  string         `json:"bundle_name"`
	Style       string         `json:"style"`
	BundlePath  string         `json:"bundle_path"`
	BundleSize  int64          `json:"bundle_size"`
	Checksum    string         `json:"checksum"`
	AssetCount  map[string]int `json:"asset_count"`
	DownloadURL string         `json:"download_url"`
	MirrorURL   string         `json:"mirror_url,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

func (s *Server) handleBundleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var in domain.CreateBundle
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	bnd, err := s.builder.Build(ctx, in)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	s.publish(ctx, events.SubjectBundleCreated, events.BundleCreated{
		ID:        bnd.ID,
		Name:      bnd.Name,
		Style:     bnd.Style,
		Size:      bnd.Size,
		Checksum:  bnd.Checksum,
		Timestamp: time.Now().UTC(),
	})
	writeJSON(w, http.StatusCreated, bundleCreated{
		Success:     true,
		BundleID:    bnd.ID,
		BundleName:  bnd.Name,
		Style:       bnd.Style,
		BundlePath:  bnd.Path,
		BundleSize:  bnd.Size,
		Checksum:    bnd.Checksum,
		AssetCount:  bnd.AssetCount(),
		DownloadURL: "/api/bundles/" + bnd.ID + "/download",
		MirrorURL:   bnd.MirrorURL,
		Timestamp:   time.Now().UTC(),
	})
}
