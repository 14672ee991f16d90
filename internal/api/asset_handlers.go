package api

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"styleassets/internal/assets"
	"styleassets/internal/registry"
)

// handleAssets serves the service index at / and the static asset tree
// everywhere else. Every file request goes through the asset root's path
// confinement; a path that resolves outside the root is a client error,
// never a served file.
func (s *Server) handleAssets() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			s.handleIndex(w, r)
			return
		}
		s.serveAsset(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": registry.ServiceName,
		"version": s.version,
		"endpoints": map[string]string{
			"fonts":         "/api/fonts",
			"color_schemes": "/api/color-schemes",
			"templates":     "/api/templates",
			"assets":        "/api/assets",
		},
	})
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/")
	f, err := s.root.Open(rel)
	switch {
	case errors.Is(err, assets.ErrTraversal):
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid asset path", "")
		return
	case errors.Is(err, fs.ErrNotExist):
		s.writeErr(ctx, w, http.StatusNotFound, "asset not found", "")
		return
	case err != nil:
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read asset", err.Error())
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read asset", err.Error())
		return
	}
	if info.IsDir() {
		s.writeErr(ctx, w, http.StatusNotFound, "asset not found", "")
		return
	}

	w.Header().Set("Content-Type", assets.ContentTypeFor(rel))
	http.ServeContent(w, r, path.Base(rel), info.ModTime(), f)
}
