package domain

import "time"

// ValidateAssets is the input for an asset integrity check. Each list names
// catalog IDs (or display names) of assets to verify on disk.
type ValidateAssets struct {
	Style        string   `json:"style,omitempty"`
	Fonts        []string `json:"fonts,omitempty"`
	ColorSchemes []string `json:"color_schemes,omitempty"`
	Templates    []string `json:"templates,omitempty"`
}

// AssetCheck is the per-asset result of a validation run. ValidFormat is
// reported for fonts and templates, ValidJSON for color schemes; the
// pointer fields stay null for the kinds they do not apply to.
type AssetCheck struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Exists      bool   `json:"exists"`
	ValidFormat *bool  `json:"valid_format,omitempty"`
	ValidJSON   *bool  `json:"valid_json,omitempty"`
	ColorCount  int    `json:"color_count,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// ValidationReport summarizes an asset validation run. Issues mark the
// report invalid; warnings and recommendations do not.
type ValidationReport struct {
	Valid           bool         `json:"valid"`
	Checked         []AssetCheck `json:"checked"`
	Issues          []string     `json:"issues"`
	Warnings        []string     `json:"warnings"`
	Recommendations []string     `json:"recommendations"`
	Timestamp       time.Time    `json:"timestamp"`
}
