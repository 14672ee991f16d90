package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
)

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	q := r.URL.Query()
	catalog, err := s.templates.List(r.Context(), q.Get("category"), q.Get("style"))
	if err != nil {
		s.writeStoreErr(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// handleTemplateSubroutes dispatches /api/templates/{name} and
// /api/templates/{name}/download.
func (s *Server) handleTemplateSubroutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
		return
	}
	if r.Method != http.MethodGet {
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	name := parts[0]
	switch {
	case len(parts) == 1:
		s.getTemplate(w, r, name)
	case len(parts) == 2 && parts[1] == "download":
		s.downloadTemplate(w, r, name)
	default:
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
	}
}

// templateDetails is a catalog entry enriched with its download route.
type templateDetails struct {
	domain.Template
	DownloadURL string `json:"download_url"`
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	tmpl, ok, err := s.templates.Get(ctx, name)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	if !ok {
		s.writeErr(ctx, w, http.StatusNotFound, "template not found", "")
		return
	}
	writeJSON(w, http.StatusOK, templateDetails{
		Template:    tmpl,
		DownloadURL: "/api/templates/" + tmpl.ID + "/download",
	})
}

func (s *Server) downloadTemplate(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	_, rel, err := s.templates.ResolveDownload(ctx, name)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	f, err := s.root.Open(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeErr(ctx, w, http.StatusNotFound, "template file not found", "")
			return
		}
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read template file", err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read template file", err.Error())
		return
	}

	filename := path.Base(rel)
	w.Header().Set("Content-Type", assets.ContentTypeFor(rel))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeContent(w, r, filename, info.ModTime(), f)
}
