package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

var fontExtensions = map[string]bool{
	".ttf":   true,
	".otf":   true,
	".woff":  true,
	".woff2": true,
}

var templateExtensions = map[string]bool{
	".html": true,
	".css":  true,
	".js":   true,
	".tex":  true,
	".md":   true,
}

// Validator checks that named assets exist on disk and are structurally
// sound. It never mutates anything.
type Validator struct {
	store storage.Store
	root  assets.Root
}

func NewValidator(store storage.Store, root assets.Root) *Validator {
	return &Validator{store: store, root: root}
}

// Validate runs an integrity check over the named assets. Inputs may be
// catalog names/IDs or literal filenames (anything with an extension is
// treated as a filename).
func (v *Validator) Validate(ctx context.Context, in domain.ValidateAssets) domain.ValidationReport {
	report := domain.ValidationReport{
		Valid:           true,
		Checked:         []domain.AssetCheck{},
		Issues:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
		Timestamp:       time.Now().UTC(),
	}

	serifNamed := false
	for _, name := range in.Fonts {
		check, serif := v.checkFont(ctx, name, &report)
		serifNamed = serifNamed || serif
		report.Checked = append(report.Checked, check)
	}
	for _, name := range in.ColorSchemes {
		report.Checked = append(report.Checked, v.checkScheme(ctx, name, &report))
	}
	for _, name := range in.Templates {
		report.Checked = append(report.Checked, v.checkTemplate(ctx, name, &report))
	}

	if serifNamed && in.Style == "modern" {
		report.Warnings = append(report.Warnings, "Serif fonts may not be optimal for modern style designs")
		report.Recommendations = append(report.Recommendations, "Consider using sans-serif fonts for modern designs")
	}

	report.Valid = len(report.Issues) == 0
	return report
}

func (v *Validator) checkFont(ctx context.Context, name string, report *domain.ValidationReport) (domain.AssetCheck, bool) {
	check := domain.AssetCheck{Name: name, Kind: "font"}
	serif := false

	var candidates []string
	if ext := path.Ext(name); ext != "" {
		candidates = []string{assets.DirFonts + "/" + name}
	} else if font, ok, err := v.store.GetFont(ctx, domain.AssetID(name)); err == nil && ok {
		serif = font.Category == domain.FontCategorySerif
		for _, format := range font.Formats {
			candidates = append(candidates, assets.DirFonts+"/"+font.ID+"."+format)
		}
	}

	for _, rel := range candidates {
		info, err := v.root.Stat(rel)
		if err != nil || info.IsDir() {
			continue
		}
		check.Exists = true
		check.Size = info.Size()
		valid := fontExtensions[strings.ToLower(path.Ext(rel))]
		check.ValidFormat = &valid
		if !valid {
			report.Issues = append(report.Issues, fmt.Sprintf("Invalid font format: %s", rel))
		}
		break
	}
	if !check.Exists {
		report.Issues = append(report.Issues, fmt.Sprintf("Font file not found: %s", name))
	}
	return check, serif
}

func (v *Validator) checkScheme(ctx context.Context, name string, report *domain.ValidationReport) domain.AssetCheck {
	check := domain.AssetCheck{Name: name, Kind: "color_scheme"}

	rel := assets.DirSchemes + "/" + domain.AssetID(name) + ".json"
	if path.Ext(name) != "" {
		rel = assets.DirSchemes + "/" + name
	}

	data, err := v.root.ReadFile(rel)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("Color scheme file not found: %s", name))
		return check
	}
	check.Exists = true

	var doc struct {
		Colors map[string]string `json:"colors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		valid := false
		check.ValidJSON = &valid
		report.Issues = append(report.Issues, fmt.Sprintf("Invalid JSON in color scheme: %s", rel))
		return check
	}
	valid := true
	check.ValidJSON = &valid
	check.ColorCount = len(doc.Colors)
	return check
}

func (v *Validator) checkTemplate(ctx context.Context, name string, report *domain.ValidationReport) domain.AssetCheck {
	check := domain.AssetCheck{Name: name, Kind: "template"}

	rel := ""
	if ext := path.Ext(name); ext != "" {
		rel = assets.DirTemplates + "/" + name
	} else if tmpl, ok, err := v.store.GetTemplate(ctx, domain.AssetID(name)); err == nil && ok {
		rel = assets.DirTemplates + "/" + tmpl.Filename()
	}

	if rel != "" {
		if info, err := v.root.Stat(rel); err == nil && !info.IsDir() {
			check.Exists = true
			check.Size = info.Size()
			valid := templateExtensions[strings.ToLower(path.Ext(rel))]
			check.ValidFormat = &valid
			if !valid {
				// Unknown document formats are flagged but not fatal.
				report.Warnings = append(report.Warnings, fmt.Sprintf("Unknown template format: %s", rel))
			}
		}
	}
	if !check.Exists {
		report.Issues = append(report.Issues, fmt.Sprintf("Template file not found: %s", name))
	}
	return check
}
