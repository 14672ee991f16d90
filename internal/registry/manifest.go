package registry

import (
	"context"
	"time"

	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

// ServiceName identifies this service to peers and health probes.
const ServiceName = "style-assets"

// BuildManifest assembles the service's asset manifest: the catalog IDs per
// asset kind, as exchanged with peers during synchronization.
func BuildManifest(ctx context.Context, store storage.Store, version string) (domain.AssetManifest, error) {
	m := domain.AssetManifest{
		Service:     ServiceName,
		Version:     version,
		GeneratedAt: time.Now().UTC(),
	}

	fonts, err := store.ListFonts(ctx)
	if err != nil {
		return domain.AssetManifest{}, err
	}
	for _, f := range fonts {
		m.Fonts = append(m.Fonts, f.ID)
	}

	schemes, err := store.ListSchemes(ctx)
	if err != nil {
		return domain.AssetManifest{}, err
	}
	for _, s := range schemes {
		m.ColorSchemes = append(m.ColorSchemes, s.ID)
	}

	templates, err := store.ListTemplates(ctx)
	if err != nil {
		return domain.AssetManifest{}, err
	}
	for _, t := range templates {
		m.Templates = append(m.Templates, t.ID)
	}

	bundles, err := store.ListBundles(ctx)
	if err != nil {
		return domain.AssetManifest{}, err
	}
	for _, b := range bundles {
		m.Bundles = append(m.Bundles, b.ID)
	}
	return m, nil
}
