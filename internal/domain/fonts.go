package domain

import "time"

// AssetStatusAvailable marks catalog entries that are ready to serve.
const AssetStatusAvailable = "available"

// FontCategory classifies a font by its typographic family.
type FontCategory string

const (
	FontCategorySerif      FontCategory = "serif"
	FontCategorySansSerif  FontCategory = "sans_serif"
	FontCategoryMonospace  FontCategory = "monospace"
	FontCategoryDecorative FontCategory = "decorative"
)

// ValidFontCategories contains all valid font categories.
var ValidFontCategories = []FontCategory{
	FontCategorySerif,
	FontCategorySansSerif,
	FontCategoryMonospace,
	FontCategoryDecorative,
}

// IsValidFontCategory checks if a font category is valid.
func IsValidFontCategory(c FontCategory) bool {
	for _, valid := range ValidFontCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// Font is a catalog entry describing one font asset. The font file itself,
// when installed, lives under fonts/ named <id>.<format>.
type Font struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Family        string       `json:"family"`
	Category      FontCategory `json:"category"`
	Weight        string       `json:"weight"`
	Style         string       `json:"style"`
	Formats       []string     `json:"formats"`
	Usage         string       `json:"usage"`
	Compatibility []string     `json:"compatibility,omitempty"`
	FileSize      string       `json:"file_size,omitempty"`
	CharacterSet  string       `json:"character_set,omitempty"`
	License       string       `json:"license,omitempty"`
	Status        string       `json:"status"`
	DownloadCount int64        `json:"download_count"`
	RegisteredAt  time.Time    `json:"registered_at"`
}

// RegisterFont is the input for registering a custom font. Name, family and
// category are required; the remaining fields fall back to defaults.
type RegisterFont struct {
	Name          string       `json:"name"`
	Family        string       `json:"family"`
	Category      FontCategory `json:"category"`
	Weight        string       `json:"weight,omitempty"`
	Style         string       `json:"style,omitempty"`
	Formats       []string     `json:"formats,omitempty"`
	Usage         string       `json:"usage,omitempty"`
	Compatibility []string     `json:"compatibility,omitempty"`
	FileSize      string       `json:"file_size,omitempty"`
	CharacterSet  string       `json:"character_set,omitempty"`
	License       string       `json:"license,omitempty"`
}

// Font materializes a catalog entry from the input, applying defaults for
// the optional fields. Slices are copied to avoid shared references.
func (in RegisterFont) Font(now time.Time) Font {
	f := Font{
		ID:            AssetID(in.Name),
		Name:          in.Name,
		Family:        in.Family,
		Category:      in.Category,
		Weight:        in.Weight,
		Style:         in.Style,
		Formats:       append([]string(nil), in.Formats...),
		Usage:         in.Usage,
		Compatibility: append([]string(nil), in.Compatibility...),
		FileSize:      in.FileSize,
		CharacterSet:  in.CharacterSet,
		License:       in.License,
		Status:        AssetStatusAvailable,
		RegisteredAt:  now,
	}
	if f.Weight == "" {
		f.Weight = "normal"
	}
	if f.Style == "" {
		f.Style = "normal"
	}
	if len(f.Formats) == 0 {
		f.Formats = []string{"ttf"}
	}
	if f.Usage == "" {
		f.Usage = "General purpose"
	}
	if f.CharacterSet == "" {
		f.CharacterSet = "latin_basic"
	}
	if f.License == "" {
		f.License = "custom"
	}
	return f
}

// FontCatalog is the listing response for the font catalog.
type FontCatalog struct {
	Fonts      map[string]Font `json:"fonts"`
	Categories map[string]int  `json:"categories"`
	TotalCount int             `json:"total_count"`
}

// FontDownloads pairs a font name with its download tally.
type FontDownloads struct {
	Name      string `json:"name"`
	Downloads int64  `json:"downloads"`
}

// FontStats aggregates catalog usage statistics.
type FontStats struct {
	TotalFonts        int             `json:"total_fonts"`
	CategoryBreakdown map[string]int  `json:"category_breakdown"`
	MostDownloaded    []FontDownloads `json:"most_downloaded"`
	LicenseBreakdown  map[string]int  `json:"license_breakdown"`
}
