package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

// DefaultFonts returns the stock font catalog registered at startup.
func DefaultFonts() []domain.RegisterFont {
	return []domain.RegisterFont{
		{
			Name:          "Times New Roman",
			Family:        "Times",
			Category:      domain.FontCategorySerif,
			Weight:        "normal",
			Style:         "normal",
			Formats:       []string{"ttf"},
			Usage:         "Academic papers, formal documents",
			Compatibility: []string{"ieee", "nature", "apa"},
			FileSize:      "1.2MB",
			CharacterSet:  "latin_extended",
			License:       "commercial",
		},
		{
			Name:          "Arial",
			Family:        "Arial",
			Category:      domain.FontCategorySansSerif,
			Weight:        "normal",
			Style:         "normal",
			Formats:       []string{"ttf"},
			Usage:         "Modern documents, presentations",
			Compatibility: []string{"modern", "web"},
			FileSize:      "1.1MB",
			CharacterSet:  "latin_extended",
			License:       "commercial",
		},
		{
			Name:          "Helvetica",
			Family:        "Helvetica",
			Category:      domain.FontCategorySansSerif,
			Weight:        "normal",
			Style:         "normal",
			Formats:       []string{"ttf", "otf"},
			Usage:         "Professional documents, branding",
			Compatibility: []string{"modern", "corporate"},
			FileSize:      "1.3MB",
			CharacterSet:  "latin_extended",
			License:       "commercial",
		},
		{
			Name:          "Courier New",
			Family:        "Courier",
			Category:      domain.FontCategoryMonospace,
			Weight:        "normal",
			Style:         "normal",
			Formats:       []string{"ttf"},
			Usage:         "Code blocks, technical documentation",
			Compatibility: []string{"technical", "code"},
			FileSize:      "0.8MB",
			CharacterSet:  "latin_basic",
			License:       "commercial",
		},
		{
			Name:          "Georgia",
			Family:        "Georgia",
			Category:      domain.FontCategorySerif,
			Weight:        "normal",
			Style:         "normal",
			Formats:       []string{"ttf"},
			Usage:         "Web content, readable documents",
			Compatibility: []string{"web", "modern"},
			FileSize:      "1.0MB",
			CharacterSet:  "latin_extended",
			License:       "commercial",
		},
	}
}

// DefaultSchemes returns the stock color schemes registered at startup.
func DefaultSchemes() []domain.CreateColorScheme {
	return []domain.CreateColorScheme{
		{
			Name:        "Academic Blue",
			Category:    domain.SchemeCategoryAcademic,
			Description: "Professional blue tones for academic publications",
			Colors: map[string]string{
				"primary":        "#003366",
				"secondary":      "#0066CC",
				"accent":         "#3399FF",
				"background":     "#FFFFFF",
				"text":           "#000000",
				"text_secondary": "#333333",
				"border":         "#CCCCCC",
				"highlight":      "#FFFF99",
				"error":          "#CC0000",
				"success":        "#006600",
			},
			Usage:         "IEEE papers, technical documents",
			Compatibility: []string{"ieee", "technical"},
			Accessibility: &domain.Accessibility{WCAGAACompliant: true, ContrastRatio: 4.5},
		},
		{
			Name:        "Nature Green",
			Category:    domain.SchemeCategoryAcademic,
			Description: "Natural green palette for scientific publications",
			Colors: map[string]string{
				"primary":        "#2D5016",
				"secondary":      "#4A7C28",
				"accent":         "#6FA83B",
				"background":     "#FFFFFF",
				"text":           "#000000",
				"text_secondary": "#2D2D2D",
				"border":         "#B8D4A5",
				"highlight":      "#E8F5E8",
				"error":          "#B71C1C",
				"success":        "#2E7D32",
			},
			Usage:         "Nature journal style, environmental studies",
			Compatibility: []string{"nature", "environmental"},
			Accessibility: &domain.Accessibility{WCAGAACompliant: true, ContrastRatio: 4.8},
		},
		{
			Name:        "Modern Grayscale",
			Category:    domain.SchemeCategoryModern,
			Description: "Clean grayscale palette for contemporary designs",
			Colors: map[string]string{
				"primary":        "#2C2C2C",
				"secondary":      "#4A4A4A",
				"accent":         "#007ACC",
				"background":     "#FFFFFF",
				"text":           "#1A1A1A",
				"text_secondary": "#666666",
				"border":         "#E0E0E0",
				"highlight":      "#F5F5F5",
				"error":          "#E53E3E",
				"success":        "#38A169",
			},
			Usage:         "Modern documents, presentations",
			Compatibility: []string{"modern", "minimal"},
			Accessibility: &domain.Accessibility{WCAGAACompliant: true, ContrastRatio: 7.2},
		},
		{
			Name:        "Corporate Blue",
			Category:    domain.SchemeCategoryCorporate,
			Description: "Professional corporate color scheme",
			Colors: map[string]string{
				"primary":        "#1E3A8A",
				"secondary":      "#3B82F6",
				"accent":         "#60A5FA",
				"background":     "#FFFFFF",
				"text":           "#111827",
				"text_secondary": "#4B5563",
				"border":         "#D1D5DB",
				"highlight":      "#EBF8FF",
				"error":          "#DC2626",
				"success":        "#059669",
			},
			Usage:         "Business reports, corporate documents",
			Compatibility: []string{"corporate", "business"},
			Accessibility: &domain.Accessibility{WCAGAACompliant: true, ContrastRatio: 5.1},
		},
		{
			Name:        "Creative Palette",
			Category:    domain.SchemeCategoryCreative,
			Description: "Vibrant colors for creative projects",
			Colors: map[string]string{
				"primary":        "#7C3AED",
				"secondary":      "#A855F7",
				"accent":         "#C084FC",
				"background":     "#FEFEFE",
				"text":           "#1F2937",
				"text_secondary": "#374151",
				"border":         "#E5E7EB",
				"highlight":      "#FDF4FF",
				"error":          "#F87171",
				"success":        "#34D399",
			},
			Usage:         "Creative presentations, artistic documents",
			Compatibility: []string{"creative", "artistic"},
			Accessibility: &domain.Accessibility{WCAGAACompliant: false, ContrastRatio: 3.8},
		},
	}
}

// DefaultTemplates returns the stock document templates registered at
// startup.
func DefaultTemplates() []domain.CreateTemplate {
	return []domain.CreateTemplate{
		{
			Name:               "IEEE Article HTML",
			Category:           domain.TemplateCategoryHTML,
			Description:        "HTML template for IEEE style articles",
			FileExtension:      "html",
			StyleCompatibility: []string{"ieee"},
			Variables:          []string{"title", "authors", "abstract", "content"},
			Features:           []string{"two_column", "citations", "figures"},
		},
		{
			Name:               "Nature Article HTML",
			Category:           domain.TemplateCategoryHTML,
			Description:        "HTML template for Nature style articles",
			FileExtension:      "html",
			StyleCompatibility: []string{"nature"},
			Variables:          []string{"title", "authors", "abstract", "content"},
			Features:           []string{"single_column", "large_figures", "author_affiliations"},
		},
		{
			Name:               "IEEE CSS Stylesheet",
			Category:           domain.TemplateCategoryCSS,
			Description:        "CSS stylesheet for IEEE formatting",
			FileExtension:      "css",
			StyleCompatibility: []string{"ieee"},
			Variables:          []string{"primary_color", "font_family", "font_size"},
			Features:           []string{"two_column_layout", "academic_styling"},
		},
		{
			Name:               "Modern CSS Framework",
			Category:           domain.TemplateCategoryCSS,
			Description:        "Modern CSS framework for publications",
			FileExtension:      "css",
			StyleCompatibility: []string{"modern", "web"},
			Variables:          []string{"color_scheme", "typography", "spacing"},
			Features:           []string{"responsive", "dark_mode", "accessibility"},
		},
		{
			Name:               "LaTeX IEEE Template",
			Category:           domain.TemplateCategoryLaTeX,
			Description:        "LaTeX template for IEEE conferences",
			FileExtension:      "tex",
			StyleCompatibility: []string{"ieee"},
			Variables:          []string{"title", "authors", "abstract", "keywords"},
			Features:           []string{"ieee_format", "bibliography", "figures"},
		},
		{
			Name:               "Markdown Academic",
			Category:           domain.TemplateCategoryMarkdown,
			Description:        "Markdown template for academic papers",
			FileExtension:      "md",
			StyleCompatibility: []string{"academic", "github"},
			Variables:          []string{"title", "authors", "date", "abstract"},
			Features:           []string{"pandoc_compatible", "citations", "tables"},
		},
	}
}

// DefaultSchemeAlias is the scheme whose document doubles as
// color_schemes/default.json.
const DefaultSchemeAlias = "academic_blue"

// Seed registers the stock catalog and materializes scheme documents and
// template bodies under the asset root. It is idempotent: entries that
// already exist are left alone, files are rewritten in place.
func Seed(ctx context.Context, store storage.Store, root assets.Root) error {
	if err := root.EnsureLayout(); err != nil {
		return err
	}

	for _, in := range DefaultFonts() {
		if _, err := store.CreateFont(ctx, in); err != nil && !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("seed font %s: %w", in.Name, err)
		}
	}

	for _, in := range DefaultSchemes() {
		scheme, err := store.CreateScheme(ctx, in)
		if err != nil {
			if !errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("seed scheme %s: %w", in.Name, err)
			}
			existing, ok, gerr := store.GetScheme(ctx, domain.AssetID(in.Name))
			if gerr != nil || !ok {
				return fmt.Errorf("seed scheme %s: %w", in.Name, gerr)
			}
			scheme = existing
		}
		data, err := json.MarshalIndent(scheme, "", "  ")
		if err != nil {
			return fmt.Errorf("encode scheme %s: %w", in.Name, err)
		}
		if err := root.WriteFile(assets.DirSchemes+"/"+scheme.ID+".json", data); err != nil {
			return fmt.Errorf("materialize scheme %s: %w", in.Name, err)
		}
		if scheme.ID == DefaultSchemeAlias {
			if err := root.WriteFile(assets.DirSchemes+"/default.json", data); err != nil {
				return fmt.Errorf("materialize default scheme: %w", err)
			}
		}
	}

	for _, in := range DefaultTemplates() {
		tmpl, err := store.CreateTemplate(ctx, in)
		if err != nil {
			if !errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("seed template %s: %w", in.Name, err)
			}
			existing, ok, gerr := store.GetTemplate(ctx, domain.AssetID(in.Name))
			if gerr != nil || !ok {
				return fmt.Errorf("seed template %s: %w", in.Name, gerr)
			}
			tmpl = existing
		}
		body, ok := assets.DefaultTemplateBody(tmpl.Filename())
		if !ok {
			continue
		}
		if err := root.WriteFile(assets.DirTemplates+"/"+tmpl.Filename(), body); err != nil {
			return fmt.Errorf("materialize template %s: %w", in.Name, err)
		}
	}
	return nil
}
