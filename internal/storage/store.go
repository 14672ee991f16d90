package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"styleassets/internal/domain"
)

// Store is the persistence interface for the asset catalog.
type Store interface {
	// Fonts
	ListFonts(ctx context.Context) ([]domain.Font, error)
	CreateFont(ctx context.Context, in domain.RegisterFont) (domain.Font, error)
	GetFont(ctx context.Context, id string) (domain.Font, bool, error)
	// IncrementFontDownloads bumps the download counter and returns the updated record.
	IncrementFontDownloads(ctx context.Context, id string) (domain.Font, bool, error)
	// Color schemes
	ListSchemes(ctx context.Context) ([]domain.ColorScheme, error)
	CreateScheme(ctx context.Context, in domain.CreateColorScheme) (domain.ColorScheme, error)
	GetScheme(ctx context.Context, id string) (domain.ColorScheme, bool, error)
	IncrementSchemeUsage(ctx context.Context, id string) (domain.ColorScheme, bool, error)
	// Templates
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	CreateTemplate(ctx context.Context, in domain.CreateTemplate) (domain.Template, error)
	GetTemplate(ctx context.Context, id string) (domain.Template, bool, error)
	IncrementTemplateUsage(ctx context.Context, id string) (domain.Template, bool, error)
	// Bundles. CreateBundle persists a fully built record (the builder
	// computes the ID, checksum and manifest before storing).
	ListBundles(ctx context.Context) ([]domain.Bundle, error)
	CreateBundle(ctx context.Context, b domain.Bundle) (domain.Bundle, error)
	GetBundle(ctx context.Context, id string) (domain.Bundle, bool, error)
	// Close releases resources held by the store
	Close() error
}

// MemoryStore is an in-memory implementation for quick start and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	fonts     map[string]domain.Font
	schemes   map[string]domain.ColorScheme
	templates map[string]domain.Template
	bundles   map[string]domain.Bundle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fonts:     make(map[string]domain.Font),
		schemes:   make(map[string]domain.ColorScheme),
		templates: make(map[string]domain.Template),
		bundles:   make(map[string]domain.Bundle),
	}
}

func (m *MemoryStore) ListFonts(ctx context.Context) ([]domain.Font, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Font, 0, len(m.fonts))
	for _, f := range m.fonts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateFont(ctx context.Context, in domain.RegisterFont) (domain.Font, error) {
	if in.Name == "" || in.Family == "" || in.Category == "" {
		return domain.Font{}, fmt.Errorf("name, family and category required: %w", ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := in.Font(time.Now().UTC())
	if _, exists := m.fonts[f.ID]; exists {
		return domain.Font{}, fmt.Errorf("font %q already exists: %w", in.Name, ErrConflict)
	}
	m.fonts[f.ID] = f
	return f, nil
}

func (m *MemoryStore) GetFont(ctx context.Context, id string) (domain.Font, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.fonts[id]
	return f, ok, nil
}

func (m *MemoryStore) IncrementFontDownloads(ctx context.Context, id string) (domain.Font, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fonts[id]
	if !ok {
		return domain.Font{}, false, nil
	}
	f.DownloadCount++
	m.fonts[id] = f
	return f, true, nil
}

func (m *MemoryStore) ListSchemes(ctx context.Context) ([]domain.ColorScheme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ColorScheme, 0, len(m.schemes))
	for _, s := range m.schemes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateScheme(ctx context.Context, in domain.CreateColorScheme) (domain.ColorScheme, error) {
	if in.Name == "" || in.Category == "" || len(in.Colors) == 0 {
		return domain.ColorScheme{}, fmt.Errorf("name, category and colors required: %w", ErrValidation)
	}
	if bad := domain.InvalidColors(in.Colors); len(bad) > 0 {
		return domain.ColorScheme{}, fmt.Errorf("%s: %w", strings.Join(bad, "; "), ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := in.Scheme(time.Now().UTC())
	if _, exists := m.schemes[s.ID]; exists {
		return domain.ColorScheme{}, fmt.Errorf("color scheme %q already exists: %w", in.Name, ErrConflict)
	}
	m.schemes[s.ID] = s
	return s, nil
}

func (m *MemoryStore) GetScheme(ctx context.Context, id string) (domain.ColorScheme, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schemes[id]
	return s, ok, nil
}

func (m *MemoryStore) IncrementSchemeUsage(ctx context.Context, id string) (domain.ColorScheme, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemes[id]
	if !ok {
		return domain.ColorScheme{}, false, nil
	}
	s.UsageCount++
	m.schemes[id] = s
	return s, true, nil
}

func (m *MemoryStore) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateTemplate(ctx context.Context, in domain.CreateTemplate) (domain.Template, error) {
	if in.Name == "" || in.Category == "" || in.FileExtension == "" {
		return domain.Template{}, fmt.Errorf("name, category and file_extension required: %w", ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := in.Template(time.Now().UTC())
	if _, exists := m.templates[t.ID]; exists {
		return domain.Template{}, fmt.Errorf("template %q already exists: %w", in.Name, ErrConflict)
	}
	m.templates[t.ID] = t
	return t, nil
}

func (m *MemoryStore) GetTemplate(ctx context.Context, id string) (domain.Template, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	return t, ok, nil
}

func (m *MemoryStore) IncrementTemplateUsage(ctx context.Context, id string) (domain.Template, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return domain.Template{}, false, nil
	}
	t.UsageCount++
	m.templates[id] = t
	return t, true, nil
}

func (m *MemoryStore) ListBundles(ctx context.Context) ([]domain.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Bundle, 0, len(m.bundles))
	for _, b := range m.bundles {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateBundle(ctx context.Context, b domain.Bundle) (domain.Bundle, error) {
	if b.ID == "" || b.Name == "" {
		return domain.Bundle{}, fmt.Errorf("bundle id and name required: %w", ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bundles[b.ID]; exists {
		return domain.Bundle{}, fmt.Errorf("bundle %q already exists: %w", b.ID, ErrConflict)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.bundles[b.ID] = b
	return b, nil
}

func (m *MemoryStore) GetBundle(ctx context.Context, id string) (domain.Bundle, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bundles[id]
	return b, ok, nil
}

// Close is a no-op for MemoryStore as it holds no external resources.
func (m *MemoryStore) Close() error {
	return nil
}
