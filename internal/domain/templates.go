package domain

import "time"

// TemplateCategory identifies the document format of a template.
type TemplateCategory string

const (
	TemplateCategoryHTML     TemplateCategory = "html"
	TemplateCategoryCSS      TemplateCategory = "css"
	TemplateCategoryLaTeX    TemplateCategory = "latex"
	TemplateCategoryMarkdown TemplateCategory = "markdown"
)

// ValidTemplateCategories contains all valid template categories.
var ValidTemplateCategories = []TemplateCategory{
	TemplateCategoryHTML,
	TemplateCategoryCSS,
	TemplateCategoryLaTeX,
	TemplateCategoryMarkdown,
}

// IsValidTemplateCategory checks if a template category is valid.
func IsValidTemplateCategory(c TemplateCategory) bool {
	for _, valid := range ValidTemplateCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// Template is a catalog entry for a document template. The body is opaque
// bytes to this service and lives under templates/ on disk.
type Template struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Category           TemplateCategory `json:"category"`
	Description        string           `json:"description,omitempty"`
	FileExtension      string           `json:"file_extension"`
	StyleCompatibility []string         `json:"style_compatibility,omitempty"`
	Variables          []string         `json:"variables,omitempty"`
	Features           []string         `json:"features,omitempty"`
	Status             string           `json:"status"`
	UsageCount         int64            `json:"usage_count"`
	CreatedAt          time.Time        `json:"created_at"`
}

// Filename returns the on-disk file name for the template body.
func (t Template) Filename() string { return t.ID + "." + t.FileExtension }

// CreateTemplate is the input for adding a template to the catalog.
type CreateTemplate struct {
	Name               string           `json:"name"`
	Category           TemplateCategory `json:"category"`
	Description        string           `json:"description,omitempty"`
	FileExtension      string           `json:"file_extension"`
	StyleCompatibility []string         `json:"style_compatibility,omitempty"`
	Variables          []string         `json:"variables,omitempty"`
	Features           []string         `json:"features,omitempty"`
}

// Template materializes a catalog entry from the input.
func (in CreateTemplate) Template(now time.Time) Template {
	return Template{
		ID:                 AssetID(in.Name),
		Name:               in.Name,
		Category:           in.Category,
		Description:        in.Description,
		FileExtension:      in.FileExtension,
		StyleCompatibility: append([]string(nil), in.StyleCompatibility...),
		Variables:          append([]string(nil), in.Variables...),
		Features:           append([]string(nil), in.Features...),
		Status:             AssetStatusAvailable,
		CreatedAt:          now,
	}
}

// TemplateCatalog is the listing response for the template catalog.
type TemplateCatalog struct {
	Templates  map[string]Template `json:"templates"`
	Categories map[string]int      `json:"categories"`
	TotalCount int                 `json:"total_count"`
}
