package registry

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

// Fonts is the font catalog service.
type Fonts struct {
	store storage.Store
	root  assets.Root
}

func NewFonts(store storage.Store, root assets.Root) *Fonts {
	return &Fonts{store: store, root: root}
}

// List returns the font catalog, optionally filtered by category and style
// compatibility. The category breakdown always covers the whole catalog.
func (s *Fonts) List(ctx context.Context, category, compatibility string) (domain.FontCatalog, error) {
	fonts, err := s.store.ListFonts(ctx)
	if err != nil {
		return domain.FontCatalog{}, err
	}

	// Standard categories always appear in the breakdown, custom ones as
	// they are registered.
	counts := make(map[string]int, len(domain.ValidFontCategories))
	for _, c := range domain.ValidFontCategories {
		counts[string(c)] = 0
	}
	for _, f := range fonts {
		counts[string(f.Category)]++
	}

	if category != "" {
		if _, ok := counts[category]; !ok {
			return domain.FontCatalog{}, &UnknownCategoryError{Category: category, Available: sortedKeys(counts)}
		}
	}

	out := domain.FontCatalog{
		Fonts:      make(map[string]domain.Font, len(fonts)),
		Categories: counts,
	}
	for _, f := range fonts {
		if category != "" && string(f.Category) != category {
			continue
		}
		if compatibility != "" && !slices.Contains(f.Compatibility, compatibility) {
			continue
		}
		out.Fonts[f.ID] = f
	}
	out.TotalCount = len(out.Fonts)
	return out, nil
}

// Get looks up a font by ID or display name.
func (s *Fonts) Get(ctx context.Context, nameOrID string) (domain.Font, bool, error) {
	return s.store.GetFont(ctx, domain.AssetID(nameOrID))
}

// Register adds a custom font to the catalog.
func (s *Fonts) Register(ctx context.Context, in domain.RegisterFont) (domain.Font, error) {
	return s.store.CreateFont(ctx, in)
}

// ResolveDownload locates the font file for a catalog entry and increments
// its download counter. Both a missing catalog entry and a missing file
// resolve to storage.ErrNotFound.
func (s *Fonts) ResolveDownload(ctx context.Context, nameOrID string) (domain.Font, string, error) {
	font, ok, err := s.Get(ctx, nameOrID)
	if err != nil {
		return domain.Font{}, "", err
	}
	if !ok {
		return domain.Font{}, "", fmt.Errorf("font %q not found: %w", nameOrID, storage.ErrNotFound)
	}

	for _, format := range font.Formats {
		rel := assets.DirFonts + "/" + font.ID + "." + format
		if s.root.Exists(rel) {
			if upd, ok, err := s.store.IncrementFontDownloads(ctx, font.ID); err == nil && ok {
				font = upd
			}
			return font, rel, nil
		}
	}
	return domain.Font{}, "", fmt.Errorf("font file for %q not installed: %w", nameOrID, storage.ErrNotFound)
}

// Stats summarizes catalog usage.
func (s *Fonts) Stats(ctx context.Context) (domain.FontStats, error) {
	fonts, err := s.store.ListFonts(ctx)
	if err != nil {
		return domain.FontStats{}, err
	}

	stats := domain.FontStats{
		TotalFonts:        len(fonts),
		CategoryBreakdown: make(map[string]int, len(domain.ValidFontCategories)),
		LicenseBreakdown:  make(map[string]int),
	}
	for _, c := range domain.ValidFontCategories {
		stats.CategoryBreakdown[string(c)] = 0
	}
	for _, f := range fonts {
		stats.CategoryBreakdown[string(f.Category)]++
		lic := f.License
		if lic == "" {
			lic = "unknown"
		}
		stats.LicenseBreakdown[lic]++
	}

	byDownloads := make([]domain.Font, len(fonts))
	copy(byDownloads, fonts)
	sort.SliceStable(byDownloads, func(i, j int) bool {
		if byDownloads[i].DownloadCount != byDownloads[j].DownloadCount {
			return byDownloads[i].DownloadCount > byDownloads[j].DownloadCount
		}
		return byDownloads[i].Name < byDownloads[j].Name
	})
	top := byDownloads
	if len(top) > 5 {
		top = top[:5]
	}
	stats.MostDownloaded = make([]domain.FontDownloads, 0, len(top))
	for _, f := range top {
		stats.MostDownloaded = append(stats.MostDownloaded, domain.FontDownloads{Name: f.Name, Downloads: f.DownloadCount})
	}
	return stats, nil
}
