package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

// Schemes is the color scheme catalog service.
type Schemes struct {
	store storage.Store
	root  assets.Root
}

func NewSchemes(store storage.Store, root assets.Root) *Schemes {
	return &Schemes{store: store, root: root}
}

// List returns the scheme catalog, optionally filtered by category.
func (s *Schemes) List(ctx context.Context, category string) (domain.SchemeCatalog, error) {
	schemes, err := s.store.ListSchemes(ctx)
	if err != nil {
		return domain.SchemeCatalog{}, err
	}

	counts := make(map[string]int, len(domain.ValidSchemeCategories))
	for _, c := range domain.ValidSchemeCategories {
		counts[string(c)] = 0
	}
	for _, sc := range schemes {
		counts[string(sc.Category)]++
	}

	if category != "" {
		if _, ok := counts[category]; !ok {
			return domain.SchemeCatalog{}, &UnknownCategoryError{Category: category, Available: sortedKeys(counts)}
		}
	}

	out := domain.SchemeCatalog{
		ColorSchemes: make(map[string]domain.ColorScheme, len(schemes)),
		Categories:   counts,
	}
	for _, sc := range schemes {
		if category != "" && string(sc.Category) != category {
			continue
		}
		out.ColorSchemes[sc.ID] = sc
	}
	out.TotalCount = len(out.ColorSchemes)
	return out, nil
}

// Get looks up a scheme by ID or display name.
func (s *Schemes) Get(ctx context.Context, nameOrID string) (domain.ColorScheme, bool, error) {
	return s.store.GetScheme(ctx, domain.AssetID(nameOrID))
}

// Create records a new scheme in the catalog and materializes its JSON
// document under color_schemes/ so the static surface can serve it.
func (s *Schemes) Create(ctx context.Context, in domain.CreateColorScheme) (domain.ColorScheme, error) {
	scheme, err := s.store.CreateScheme(ctx, in)
	if err != nil {
		return domain.ColorScheme{}, err
	}
	if err := s.writeDocument(scheme); err != nil {
		return domain.ColorScheme{}, err
	}
	return scheme, nil
}

// Use bumps the scheme's usage counter and returns the updated record.
// Fetching a scheme through the catalog counts as a use.
func (s *Schemes) Use(ctx context.Context, id string) (domain.ColorScheme, bool, error) {
	return s.store.IncrementSchemeUsage(ctx, id)
}

// DocumentPath returns the scheme's JSON document path under the asset root.
func (s *Schemes) DocumentPath(scheme domain.ColorScheme) string {
	return assets.DirSchemes + "/" + scheme.ID + ".json"
}

func (s *Schemes) writeDocument(scheme domain.ColorScheme) error {
	data, err := json.MarshalIndent(scheme, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scheme document: %w", err)
	}
	if err := s.root.WriteFile(s.DocumentPath(scheme), data); err != nil {
		return fmt.Errorf("persist scheme document: %w", err)
	}
	return nil
}
