package domain

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// SchemeCategory groups color schemes by intended use.
type SchemeCategory string

const (
	SchemeCategoryAcademic  SchemeCategory = "academic"
	SchemeCategoryModern    SchemeCategory = "modern"
	SchemeCategoryCorporate SchemeCategory = "corporate"
	SchemeCategoryCreative  SchemeCategory = "creative"
)

// ValidSchemeCategories contains all valid scheme categories.
var ValidSchemeCategories = []SchemeCategory{
	SchemeCategoryAcademic,
	SchemeCategoryModern,
	SchemeCategoryCorporate,
	SchemeCategoryCreative,
}

// IsValidSchemeCategory checks if a scheme category is valid.
func IsValidSchemeCategory(c SchemeCategory) bool {
	for _, valid := range ValidSchemeCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// Accessibility captures the contrast audit for a scheme's palette.
type Accessibility struct {
	WCAGAACompliant bool    `json:"wcag_aa_compliant"`
	ContrastRatio   float64 `json:"contrast_ratio"`
}

// ColorScheme is a named palette with usage metadata. The scheme document
// is also materialized as color_schemes/<id>.json for static serving.
type ColorScheme struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Category      SchemeCategory    `json:"category"`
	Description   string            `json:"description,omitempty"`
	Colors        map[string]string `json:"colors"`
	Usage         string            `json:"usage,omitempty"`
	Compatibility []string          `json:"compatibility,omitempty"`
	Accessibility Accessibility     `json:"accessibility"`
	Status        string            `json:"status"`
	UsageCount    int64             `json:"usage_count"`
	CreatedAt     time.Time         `json:"created_at"`
}

// CreateColorScheme is the input for creating a scheme. Name, category and
// at least one color are required.
type CreateColorScheme struct {
	Name          string            `json:"name"`
	Category      SchemeCategory    `json:"category"`
	Description   string            `json:"description,omitempty"`
	Colors        map[string]string `json:"colors"`
	Usage         string            `json:"usage,omitempty"`
	Compatibility []string          `json:"compatibility,omitempty"`
	Accessibility *Accessibility    `json:"accessibility,omitempty"`
}

// Scheme materializes a catalog entry from the input. The palette map is
// copied to avoid shared references.
func (in CreateColorScheme) Scheme(now time.Time) ColorScheme {
	colors := make(map[string]string, len(in.Colors))
	for k, v := range in.Colors {
		colors[k] = v
	}
	s := ColorScheme{
		ID:            AssetID(in.Name),
		Name:          in.Name,
		Category:      in.Category,
		Description:   in.Description,
		Colors:        colors,
		Usage:         in.Usage,
		Compatibility: append([]string(nil), in.Compatibility...),
		Status:        AssetStatusAvailable,
		CreatedAt:     now,
	}
	if in.Accessibility != nil {
		s.Accessibility = *in.Accessibility
	}
	if s.Usage == "" {
		s.Usage = "General purpose"
	}
	return s
}

var (
	hexColorRe  = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	rgbColorRe  = regexp.MustCompile(`^rgb\(\s*\d+\s*,\s*\d+\s*,\s*\d+\s*\)$`)
	rgbaColorRe = regexp.MustCompile(`^rgba\(\s*\d+\s*,\s*\d+\s*,\s*\d+\s*,\s*[\d.]+\s*\)$`)
)

// IsValidColor reports whether v is a hex, rgb() or rgba() color literal.
func IsValidColor(v string) bool {
	return hexColorRe.MatchString(v) || rgbColorRe.MatchString(v) || rgbaColorRe.MatchString(v)
}

// InvalidColors returns one message per palette entry whose value is not a
// recognized color literal, sorted for stable output.
func InvalidColors(colors map[string]string) []string {
	var bad []string
	for name, value := range colors {
		if !IsValidColor(value) {
			bad = append(bad, fmt.Sprintf("invalid color format for %s: %s", name, value))
		}
	}
	sort.Strings(bad)
	return bad
}

// SchemeCatalog is the listing response for the color scheme catalog.
type SchemeCatalog struct {
	ColorSchemes map[string]ColorScheme `json:"color_schemes"`
	Categories   map[string]int         `json:"categories"`
	TotalCount   int                    `json:"total_count"`
}
