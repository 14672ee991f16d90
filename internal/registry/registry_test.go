package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

func seededCatalog(t *testing.T) (storage.Store, assets.Root) {
	t.Helper()
	store := storage.NewMemoryStore()
	root, err := assets.NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("new root: %v", err)
	}
	if err := Seed(context.Background(), store, root); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store, root
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, root := seededCatalog(t)

	// Second run must not duplicate or fail.
	if err := Seed(ctx, store, root); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	fonts, err := store.ListFonts(ctx)
	if err != nil || len(fonts) != 5 {
		t.Fatalf("expected 5 fonts, got %d (err=%v)", len(fonts), err)
	}
	schemes, err := store.ListSchemes(ctx)
	if err != nil || len(schemes) != 5 {
		t.Fatalf("expected 5 schemes, got %d (err=%v)", len(schemes), err)
	}
	templates, err := store.ListTemplates(ctx)
	if err != nil || len(templates) != 6 {
		t.Fatalf("expected 6 templates, got %d (err=%v)", len(templates), err)
	}

	// Scheme documents and the default alias are materialized.
	for _, name := range []string{"academic_blue", "nature_green", "modern_grayscale", "corporate_blue", "creative_palette"} {
		if !root.Exists(assets.DirSchemes + "/" + name + ".json") {
			t.Errorf("missing scheme document %s.json", name)
		}
	}
	data, err := root.ReadFile(assets.DirSchemes + "/default.json")
	if err != nil {
		t.Fatalf("read default.json: %v", err)
	}
	var doc domain.ColorScheme
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse default.json: %v", err)
	}
	if doc.Name != "Academic Blue" || doc.Colors["primary"] != "#003366" {
		t.Fatalf("default.json is not Academic Blue: %+v", doc)
	}

	// Template bodies are materialized.
	for _, tmpl := range DefaultTemplates() {
		rel := assets.DirTemplates + "/" + domain.AssetID(tmpl.Name) + "." + tmpl.FileExtension
		if !root.Exists(rel) {
			t.Errorf("missing template body %s", rel)
		}
	}
}

func TestFontsListFilters(t *testing.T) {
	ctx := context.Background()
	store, root := seededCatalog(t)
	fonts := NewFonts(store, root)

	all, err := fonts.List(ctx, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.TotalCount != 5 || len(all.Fonts) != 5 {
		t.Fatalf("expected 5 fonts, got %d", all.TotalCount)
	}
	if all.Categories["serif"] != 2 || all.Categories["sans_serif"] != 2 || all.Categories["monospace"] != 1 {
		t.Fatalf("unexpected category breakdown: %v", all.Categories)
	}
	if _, ok := all.Categories["decorative"]; !ok {
		t.Fatalf("standard categories should appear even when empty: %v", all.Categories)
	}

	serif, err := fonts.List(ctx, "serif", "")
	if err != nil {
		t.Fatalf("list serif: %v", err)
	}
	if serif.TotalCount != 2 {
		t.Fatalf("expected 2 serif fonts, got %d", serif.TotalCount)
	}
	if _, ok := serif.Fonts["times_new_roman"]; !ok {
		t.Fatalf("expected times_new_roman in serif list")
	}

	ieee, err := fonts.List(ctx, "", "ieee")
	if err != nil {
		t.Fatalf("list ieee: %v", err)
	}
	if ieee.TotalCount != 1 {
		t.Fatalf("expected 1 ieee-compatible font, got %d", ieee.TotalCount)
	}

	_, err = fonts.List(ctx, "gothic", "")
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCategoryError, got %v", err)
	}
	if !errors.Is(err, storage.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(unknown.Available) == 0 {
		t.Fatalf("expected available categories in error")
	}
}

func TestFontsResolveDownload(t *testing.T) {
	ctx := context.Background()
	store, root := seededCatalog(t)
	fonts := NewFonts(store, root)

	// Catalog entry without an installed file is a 404 case.
	_, _, err := fonts.ResolveDownload(ctx, "Arial")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without file, got %v", err)
	}

	if err := root.WriteFile("fonts/arial.ttf", []byte("fake font bytes")); err != nil {
		t.Fatalf("write font file: %v", err)
	}
	font, rel, err := fonts.ResolveDownload(ctx, "Arial")
	if err != nil {
		t.Fatalf("resolve download: %v", err)
	}
	if rel != "fonts/arial.ttf" {
		t.Fatalf("unexpected path: %s", rel)
	}
	if font.DownloadCount != 1 {
		t.Fatalf("expected download count 1, got %d", font.DownloadCount)
	}

	_, _, err = fonts.ResolveDownload(ctx, "No Such Font")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown font, got %v", err)
	}
}

func TestFontsStats(t *testing.T) {
	ctx := context.Background()
	store, root := seededCatalog(t)
	fonts := NewFonts(store, root)

	if err := root.WriteFile("fonts/arial.ttf", []byte("a")); err != nil {
		t.Fatalf("write font: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := fonts.ResolveDownload(ctx, "Arial"); err != nil {
			t.Fatalf("download: %v", err)
		}
	}

	stats, err := fonts.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalFonts != 5 {
		t.Fatalf("expected 5 fonts, got %d", stats.TotalFonts)
	}
	if len(stats.MostDownloaded) != 5 || stats.MostDownloaded[0].Name != "Arial" || stats.MostDownloaded[0].Downloads != 2 {
		t.Fatalf("unexpected most downloaded: %+v", stats.MostDownloaded)
	}
	if stats.LicenseBreakdown["commercial"] != 5 {
		t.Fatalf("unexpected license breakdown: %v", stats.LicenseBreakdown)
	}
}

func TestSchemesCreateWritesDocument(t *testing.T) {
	ctx := context.Background()
	store, root := seededCatalog(t)
	schemes := NewSchemes(store, root)

	created, err := schemes.Create(ctx, domain.CreateColorScheme{
		Name:     "Night Mode",
		Category: domain.SchemeCategoryModern,
		Colors:   map[string]string{"primary": "#101010", "background": "#000000"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	data, err := root.ReadFile(assets.DirSchemes + "/night_mode.json")
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var doc domain.ColorScheme
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse document: %v", err)
	}
	if doc.ID != created.ID || doc.Colors["primary"] != "#101010" {
		t.Fatalf("document does not match catalog entry: %+v", doc)
	}

	// Duplicate creation conflicts and leaves the document alone.
	_, err = schemes.Create(ctx, domain.CreateColorScheme{
		Name:     "night mode",
		Category: domain.SchemeCategoryModern,
		Colors:   map[string]string{"primary": "#FFFFFF"},
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestTemplatesListFilters(t *testing.T) {
	ctx := context.Background()
	store, root := seededCatalog(t)
	templates := NewTemplates(store, root)

	all, err := templates.List(ctx, "", "")
	if err != nil || all.TotalCount != 6 {
		t.Fatalf("expected 6 templates, got %d (err=%v)", all.TotalCount, err)
	}
	if all.Categories["html"] != 2 || all.Categories["css"] != 2 || all.Categories["latex"] != 1 || all.Categories["markdown"] != 1 {
		t.Fatalf("unexpected category breakdown: %v", all.Categories)
	}

	css, err := templates.List(ctx, "css", "")
	if err != nil || css.TotalCount != 2 {
		t.Fatalf("expected 2 css templates, got %d (err=%v)", css.TotalCount, err)
	}

	ieee, err := templates.List(ctx, "", "ieee")
	if err != nil || ieee.TotalCount != 3 {
		t.Fatalf("expected 3 ieee templates, got %d (err=%v)", ieee.TotalCount, err)
	}

	_, err = templates.List(ctx, "docx", "")
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCategoryError, got %v", err)
	}
}

func TestTemplatesResolveDownload(t *testing.T) {
	ctx := context.Background()
	store, root := seededCatalog(t)
	templates := NewTemplates(store, root)

	tmpl, rel, err := templates.ResolveDownload(ctx, "IEEE Article HTML")
	if err != nil {
		t.Fatalf("resolve download: %v", err)
	}
	if rel != "templates/ieee_article_html.html" {
		t.Fatalf("unexpected path: %s", rel)
	}
	if tmpl.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", tmpl.UsageCount)
	}

	_, _, err = templates.ResolveDownload(ctx, "No Such Template")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildManifest(t *testing.T) {
	ctx := context.Background()
	store, _ := seededCatalog(t)

	m, err := BuildManifest(ctx, store, "1.2.3")
	if err != nil {
		t.Fatalf("build manifest: %v", err)
	}
	if m.Service != ServiceName || m.Version != "1.2.3" {
		t.Fatalf("unexpected manifest header: %+v", m)
	}
	if len(m.Fonts) != 5 || len(m.ColorSchemes) != 5 || len(m.Templates) != 6 || len(m.Bundles) != 0 {
		t.Fatalf("unexpected manifest counts: fonts=%d schemes=%d templates=%d bundles=%d",
			len(m.Fonts), len(m.ColorSchemes), len(m.Templates), len(m.Bundles))
	}
	if m.AssetTotal() != 16 {
		t.Fatalf("expected asset total 16, got %d", m.AssetTotal())
	}
	if m.GeneratedAt.IsZero() {
		t.Fatalf("expected generated_at to be set")
	}
}
