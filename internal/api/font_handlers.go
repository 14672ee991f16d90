package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/events"
)

// fontPreviewSample is the sample line rendered by catalog preview clients.
const fontPreviewSample = "The quick brown fox jumps over the lazy dog 0123456789"

func (s *Server) handleFonts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listFonts(w, r)
	case http.MethodPost:
		s.registerFont(w, r)
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPost}, ", "))
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// handleFontSubroutes dispatches /api/fonts/{name}, /api/fonts/{name}/download,
// /api/fonts/{name}/preview and /api/fonts/stats. Names may be display names
// ("Times New Roman") or catalog IDs ("times_new_roman").
func (s *Server) handleFontSubroutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rest := strings.TrimPrefix(r.URL.Path, "/api/fonts/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
		return
	}
	if r.Method != http.MethodGet {
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	if parts[0] == "stats" && len(parts) == 1 {
		s.fontStats(w, r)
		return
	}

	name := parts[0]
	switch {
	case len(parts) == 1:
		s.getFont(w, r, name)
	case len(parts) == 2 && parts[1] == "download":
		s.downloadFont(w, r, name)
	case len(parts) == 2 && parts[1] == "preview":
		s.previewFont(w, r, name)
	default:
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
	}
}

func (s *Server) listFonts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	catalog, err := s.fonts.List(r.Context(), q.Get("category"), q.Get("compatibility"))
	if err != nil {
		s.writeStoreErr(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// fontDetails is a catalog entry enriched with the routes a client needs to
// fetch or preview the font file.
type fontDetails struct {
	domain.Font
	DownloadURL string `json:"download_url"`
	PreviewURL  string `json:"preview_url"`
}

func (s *Server) getFont(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	font, ok, err := s.fonts.Get(ctx, name)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	if !ok {
		s.writeErr(ctx, w, http.StatusNotFound, "font not found", "")
		return
	}
	writeJSON(w, http.StatusOK, fontDetails{
		Font:        font,
		DownloadURL: "/api/fonts/" + font.ID + "/download",
		PreviewURL:  "/api/fonts/" + font.ID + "/preview",
	})
}

func (s *Server) registerFont(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in domain.RegisterFont
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	font, err := s.fonts.Register(ctx, in)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	s.publish(ctx, events.SubjectFontRegistered, events.FontRegistered{
		ID:        font.ID,
		Name:      font.Name,
		Category:  string(font.Category),
		Timestamp: time.Now().UTC(),
	})
	writeJSON(w, http.StatusCreated, font)
}

func (s *Server) downloadFont(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	_, rel, err := s.fonts.ResolveDownload(ctx, name)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	f, err := s.root.Open(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeErr(ctx, w, http.StatusNotFound, "font file not found", "")
			return
		}
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read font file", err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to read font file", err.Error())
		return
	}

	filename := path.Base(rel)
	w.Header().Set("Content-Type", assets.ContentTypeFor(rel))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

func (s *Server) previewFont(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	font, ok, err := s.fonts.Get(ctx, name)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	if !ok {
		s.writeErr(ctx, w, http.StatusNotFound, "font not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          font.ID,
		"name":        font.Name,
		"family":      font.Family,
		"category":    font.Category,
		"formats":     font.Formats,
		"sample_text": fontPreviewSample,
	})
}

func (s *Server) fontStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.fonts.Stats(r.Context())
	if err != nil {
		s.writeStoreErr(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
