package api

import (
	"context"
	"net/http"
	"testing"

	"styleassets/internal/assets"
	"styleassets/internal/registry"
	"styleassets/internal/storage"
)

// newTestServer builds a server over a seeded in-memory catalog and a
// temporary asset root, with all routes registered on the returned mux.
func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()
	store := storage.NewMemoryStore()
	root, err := assets.NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("new root: %v", err)
	}
	if err := registry.Seed(context.Background(), store, root); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mux := http.NewServeMux()
	srv := NewServerWithSlog(mux, store, root, newTestLogger())
	srv.RegisterRoutes()
	return srv, mux
}

// installFontFile writes a stand-in font file for a seeded catalog entry so
// download and bundle paths have bytes to serve.
func installFontFile(t *testing.T, srv *Server, name string) {
	t.Helper()
	if err := srv.root.WriteFile(assets.DirFonts+"/"+name, []byte("fake-font-bytes")); err != nil {
		t.Fatalf("install font file: %v", err)
	}
}
