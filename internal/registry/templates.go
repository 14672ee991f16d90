package registry

import (
	"context"
	"fmt"
	"slices"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

// Templates is the document template catalog service.
type Templates struct {
	store storage.Store
	root  assets.Root
}

func NewTemplates(store storage.Store, root assets.Root) *Templates {
	return &Templates{store: store, root: root}
}

// List returns the template catalog, optionally filtered by category and
// target style.
func (s *Templates) List(ctx context.Context, category, style string) (domain.TemplateCatalog, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return domain.TemplateCatalog{}, err
	}

	counts := make(map[string]int, len(domain.ValidTemplateCategories))
	for _, c := range domain.ValidTemplateCategories {
		counts[string(c)] = 0
	}
	for _, t := range templates {
		counts[string(t.Category)]++
	}

	if category != "" {
		if _, ok := counts[category]; !ok {
			return domain.TemplateCatalog{}, &UnknownCategoryError{Category: category, Available: sortedKeys(counts)}
		}
	}

	out := domain.TemplateCatalog{
		Templates:  make(map[string]domain.Template, len(templates)),
		Categories: counts,
	}
	for _, t := range templates {
		if category != "" && string(t.Category) != category {
			continue
		}
		if style != "" && !slices.Contains(t.StyleCompatibility, style) {
			continue
		}
		out.Templates[t.ID] = t
	}
	out.TotalCount = len(out.Templates)
	return out, nil
}

// Get looks up a template by ID or display name.
func (s *Templates) Get(ctx context.Context, nameOrID string) (domain.Template, bool, error) {
	return s.store.GetTemplate(ctx, domain.AssetID(nameOrID))
}

// ResolveDownload locates the template file for a catalog entry and counts
// the usage. Both a missing catalog entry and a missing file resolve to
// storage.ErrNotFound.
func (s *Templates) ResolveDownload(ctx context.Context, nameOrID string) (domain.Template, string, error) {
	tmpl, ok, err := s.Get(ctx, nameOrID)
	if err != nil {
		return domain.Template{}, "", err
	}
	if !ok {
		return domain.Template{}, "", fmt.Errorf("template %q not found: %w", nameOrID, storage.ErrNotFound)
	}

	rel := assets.DirTemplates + "/" + tmpl.Filename()
	if !s.root.Exists(rel) {
		return domain.Template{}, "", fmt.Errorf("template file for %q not installed: %w", nameOrID, storage.ErrNotFound)
	}
	if upd, ok, err := s.store.IncrementTemplateUsage(ctx, tmpl.ID); err == nil && ok {
		tmpl = upd
	}
	return tmpl, rel, nil
}
