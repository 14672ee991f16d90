//go:build postgres

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

// testDB holds a shared database connection for test suites.
// It's initialized once via TestMain and reused across test functions.
var testDB struct {
	connStr   string
	pool      *pgxpool.Pool
	store     *Store
	container testcontainers.Container
}

// TestMain sets up a PostgreSQL database for tests.
// It supports two modes:
//  1. DATABASE_URL env var - uses an existing PostgreSQL instance (CI/custom)
//  2. testcontainers-go - automatically starts a PostgreSQL container
func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("styleassets_test"),
			tcpostgres.WithUsername("styleassets"),
			tcpostgres.WithPassword("styleassets"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}
		testDB.container = container

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
			_ = container.Terminate(ctx)
			os.Exit(1)
		}
	}

	testDB.connStr = connStr

	// Create the store (runs migrations)
	store, err := New(connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create store: %v\n", err)
		if testDB.container != nil {
			_ = testDB.container.Terminate(ctx)
		}
		os.Exit(1)
	}
	testDB.store = store
	testDB.pool = store.Pool()

	code := m.Run()

	// Cleanup
	_ = store.Close()
	if testDB.container != nil {
		_ = testDB.container.Terminate(ctx)
	}

	os.Exit(code)
}

// resetDB truncates all catalog tables between tests to ensure isolation.
func resetDB(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"fonts", "color_schemes", "templates", "bundles"} {
		if _, err := testDB.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to reset table %s: %v", table, err)
		}
	}
}

func TestCreateFont(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	f, err := testDB.store.CreateFont(ctx, domain.RegisterFont{
		Name:          "Fira Code",
		Family:        "Fira",
		Category:      domain.FontCategoryMonospace,
		Formats:       []string{"ttf", "woff2"},
		Compatibility: []string{"code", "technical"},
		License:       "open_source",
	})
	if err != nil {
		t.Fatalf("create font: %v", err)
	}
	if f.ID != "fira_code" {
		t.Fatalf("expected id fira_code, got %q", f.ID)
	}
	if f.Status != domain.AssetStatusAvailable {
		t.Fatalf("expected status available, got %q", f.Status)
	}

	got, ok, err := testDB.store.GetFont(ctx, "fira_code")
	if err != nil || !ok {
		t.Fatalf("get font: ok=%v err=%v", ok, err)
	}
	if len(got.Formats) != 2 || got.Formats[1] != "woff2" {
		t.Fatalf("formats did not round-trip: %v", got.Formats)
	}
	if len(got.Compatibility) != 2 {
		t.Fatalf("compatibility did not round-trip: %v", got.Compatibility)
	}
}

func TestCreateFontConflict(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	in := domain.RegisterFont{Name: "Inter", Family: "Inter", Category: domain.FontCategorySansSerif}
	if _, err := testDB.store.CreateFont(ctx, in); err != nil {
		t.Fatalf("create font: %v", err)
	}
	if _, err := testDB.store.CreateFont(ctx, in); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateFontValidation(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	if _, err := testDB.store.CreateFont(ctx, domain.RegisterFont{Name: "No Family"}); !errors.Is(err, storage.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIncrementFontDownloads(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	if _, err := testDB.store.CreateFont(ctx, domain.RegisterFont{Name: "Inter", Family: "Inter", Category: domain.FontCategorySansSerif}); err != nil {
		t.Fatalf("create font: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, ok, err := testDB.store.IncrementFontDownloads(ctx, "inter"); err != nil || !ok {
			t.Fatalf("increment: ok=%v err=%v", ok, err)
		}
	}
	got, _, _ := testDB.store.GetFont(ctx, "inter")
	if got.DownloadCount != 3 {
		t.Fatalf("expected 3 downloads, got %d", got.DownloadCount)
	}

	if _, ok, err := testDB.store.IncrementFontDownloads(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected ok=false for missing font, got ok=%v err=%v", ok, err)
	}
}

func TestListFonts(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	for _, name := range []string{"Zilla Slab", "Arvo", "Merriweather"} {
		if _, err := testDB.store.CreateFont(ctx, domain.RegisterFont{Name: name, Family: name, Category: domain.FontCategorySerif}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	fonts, err := testDB.store.ListFonts(ctx)
	if err != nil {
		t.Fatalf("list fonts: %v", err)
	}
	if len(fonts) != 3 {
		t.Fatalf("expected 3 fonts, got %d", len(fonts))
	}
	// Ordered by id
	if fonts[0].ID != "arvo" || fonts[2].ID != "zilla_slab" {
		t.Fatalf("unexpected order: %v, %v, %v", fonts[0].ID, fonts[1].ID, fonts[2].ID)
	}
}

func TestSchemeRoundTrip(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	created, err := testDB.store.CreateScheme(ctx, domain.CreateColorScheme{
		Name:        "Ocean Teal",
		Category:    domain.SchemeCategoryCreative,
		Description: "Cool palette for presentations",
		Colors: map[string]string{
			"primary":   "#006666",
			"secondary": "rgb(0, 128, 128)",
			"accent":    "rgba(0, 150, 150, 0.8)",
		},
		Compatibility: []string{"web", "print"},
		Accessibility: &domain.Accessibility{WCAGAACompliant: true, ContrastRatio: 6.1},
	})
	if err != nil {
		t.Fatalf("create scheme: %v", err)
	}

	got, ok, err := testDB.store.GetScheme(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("get scheme: ok=%v err=%v", ok, err)
	}
	if got.Colors["primary"] != "#006666" || len(got.Colors) != 3 {
		t.Fatalf("palette did not round-trip: %v", got.Colors)
	}
	if !got.Accessibility.WCAGAACompliant || got.Accessibility.ContrastRatio != 6.1 {
		t.Fatalf("accessibility did not round-trip: %+v", got.Accessibility)
	}

	if _, err := testDB.store.CreateScheme(ctx, domain.CreateColorScheme{
		Name:     "Bad Palette",
		Category: domain.SchemeCategoryModern,
		Colors:   map[string]string{"primary": "blue-ish"},
	}); !errors.Is(err, storage.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad color, got %v", err)
	}
}

func TestIncrementSchemeUsage(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	if _, err := testDB.store.CreateScheme(ctx, domain.CreateColorScheme{
		Name:     "Slate",
		Category: domain.SchemeCategoryModern,
		Colors:   map[string]string{"primary": "#334155"},
	}); err != nil {
		t.Fatalf("create scheme: %v", err)
	}
	upd, ok, err := testDB.store.IncrementSchemeUsage(ctx, "slate")
	if err != nil || !ok {
		t.Fatalf("increment: ok=%v err=%v", ok, err)
	}
	if upd.UsageCount != 1 {
		t.Fatalf("expected usage_count 1, got %d", upd.UsageCount)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	created, err := testDB.store.CreateTemplate(ctx, domain.CreateTemplate{
		Name:               "Thesis LaTeX",
		Category:           domain.TemplateCategoryLaTeX,
		FileExtension:      "tex",
		StyleCompatibility: []string{"academic"},
		Variables:          []string{"title", "author"},
		Features:           []string{"bibliography"},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if created.Filename() != "thesis_latex.tex" {
		t.Fatalf("unexpected filename %q", created.Filename())
	}

	if _, ok, err := testDB.store.IncrementTemplateUsage(ctx, created.ID); err != nil || !ok {
		t.Fatalf("increment: ok=%v err=%v", ok, err)
	}
	got, ok, err := testDB.store.GetTemplate(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("get template: ok=%v err=%v", ok, err)
	}
	if got.UsageCount != 1 || len(got.Variables) != 2 {
		t.Fatalf("template did not round-trip: %+v", got)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	resetDB(t)
	ctx := context.Background()

	in := domain.Bundle{
		ID:       "fedcba987654",
		Name:     "press_kit",
		Style:    "nature",
		Path:     "bundles/fedcba987654.zip",
		Size:     4096,
		Checksum: "9e107d9d372bb6826bd81d3542a419d6",
		Manifest: domain.BundleManifest{
			BundleID:   "fedcba987654",
			BundleName: "press_kit",
			Style:      "nature",
			Created:    time.Now().UTC(),
			Assets: domain.BundleAssets{
				Templates: []domain.BundleAsset{{Name: "Nature Article HTML", Filename: "nature_article_html.html", Path: "templates/nature_article_html.html"}},
			},
		},
	}
	if _, err := testDB.store.CreateBundle(ctx, in); err != nil {
		t.Fatalf("create bundle: %v", err)
	}
	got, ok, err := testDB.store.GetBundle(ctx, "fedcba987654")
	if err != nil || !ok {
		t.Fatalf("get bundle: ok=%v err=%v", ok, err)
	}
	if len(got.Manifest.Assets.Templates) != 1 {
		t.Fatalf("manifest did not round-trip: %+v", got.Manifest)
	}

	list, err := testDB.store.ListBundles(ctx)
	if err != nil {
		t.Fatalf("list bundles: %v", err)
	}
	if len(list) != 1 || list[0].ID != "fedcba987654" {
		t.Fatalf("unexpected bundle list: %+v", list)
	}

	if _, err := testDB.store.CreateBundle(ctx, in); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	if err := testDB.store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	stats := testDB.store.Stats()
	if stats == nil || stats.MaxOpenConnections == 0 {
		t.Fatalf("expected pool stats, got %+v", stats)
	}
}
