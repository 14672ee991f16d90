package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveRejectsTraversal(t *testing.T) {
	root, err := NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("new root: %v", err)
	}

	bad := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"plain dotdot", ".."},
		{"leading dotdot", "../etc/passwd"},
		{"nested dotdot", "fonts/../../etc/passwd"},
		{"deep dotdot", "fonts/../../../../etc/passwd"},
		{"absolute", "/etc/passwd"},
		{"backslash separators", "fonts\\..\\secret.txt"},
		{"single backslash", "fonts\\arial.ttf"},
		{"nul byte", "fonts/a\x00b.ttf"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := root.Resolve(tt.path); err != ErrTraversal {
				t.Fatalf("Resolve(%q) = %v, want ErrTraversal", tt.path, err)
			}
		})
	}
}

func TestResolveValidPaths(t *testing.T) {
	root, err := NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("new root: %v", err)
	}

	good := []string{
		"fonts/arial.ttf",
		"color_schemes/default.json",
		"templates/ieee_article_html.html",
		"bundles/a1b2c3d4e5f6.zip",
		"fonts/./arial.ttf",
	}
	for _, p := range good {
		abs, err := root.Resolve(p)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", p, err)
		}
		if !strings.HasPrefix(abs, root.Dir()+string(filepath.Separator)) {
			t.Fatalf("Resolve(%q) = %q, escapes root %q", p, abs, root.Dir())
		}
	}
}

func TestRootLayoutAndFileAccess(t *testing.T) {
	root, err := NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("new root: %v", err)
	}
	if err := root.EnsureLayout(); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	for _, sub := range SubDirs() {
		info, err := os.Stat(filepath.Join(root.Dir(), sub))
		if err != nil || !info.IsDir() {
			t.Fatalf("expected layout dir %s, got err=%v", sub, err)
		}
	}
	if err := root.Healthy(); err != nil {
		t.Fatalf("healthy: %v", err)
	}

	if err := root.WriteFile("color_schemes/default.json", []byte(`{"name":"Academic Blue"}`)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !root.Exists("color_schemes/default.json") {
		t.Fatalf("expected file to exist after write")
	}
	data, err := root.ReadFile("color_schemes/default.json")
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != `{"name":"Academic Blue"}` {
		t.Fatalf("unexpected content: %s", data)
	}

	if err := root.Remove("color_schemes/default.json"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if root.Exists("color_schemes/default.json") {
		t.Fatalf("expected file gone after remove")
	}
	// Removing again is not an error.
	if err := root.Remove("color_schemes/default.json"); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
}

func TestHealthyFailsWhenRootMissing(t *testing.T) {
	dir := t.TempDir()
	root, err := NewRoot(filepath.Join(dir, "assets"))
	if err != nil {
		t.Fatalf("new root: %v", err)
	}
	if err := root.Healthy(); err == nil {
		t.Fatalf("expected Healthy to fail for missing directory")
	}
	if err := root.EnsureLayout(); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	if err := root.Healthy(); err != nil {
		t.Fatalf("healthy after layout: %v", err)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"fonts/arial.ttf", "font/ttf"},
		{"fonts/helvetica.otf", "font/otf"},
		{"fonts/inter.woff2", "font/woff2"},
		{"color_schemes/default.json", "application/json"},
		{"templates/latex_ieee_template.tex", "application/x-tex"},
		{"templates/markdown_academic.md", "text/markdown; charset=utf-8"},
		{"bundles/abc.zip", "application/zip"},
		{"mystery.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentTypeFor(tt.name); got != tt.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	// CSS and HTML come from the platform mime table; only assert the type
	// part since the charset suffix varies.
	if got := ContentTypeFor("templates/style.css"); !strings.HasPrefix(got, "text/css") {
		t.Errorf("ContentTypeFor(css) = %q, want text/css prefix", got)
	}
	if got := ContentTypeFor("templates/page.html"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("ContentTypeFor(html) = %q, want text/html prefix", got)
	}
}

func TestDefaultTemplateBody(t *testing.T) {
	body, ok := DefaultTemplateBody("ieee_article_html.html")
	if !ok || len(body) == 0 {
		t.Fatalf("expected embedded ieee_article_html.html")
	}
	if !strings.Contains(string(body), "<html") {
		t.Fatalf("expected HTML body, got %q", string(body[:40]))
	}
	if _, ok := DefaultTemplateBody("missing.html"); ok {
		t.Fatalf("expected missing template to be absent")
	}
}
