package domain

import "time"

// BundleAsset is one file packed into a bundle archive.
type BundleAsset struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Type     string `json:"type,omitempty"`
}

// BundleAssets groups packed files by asset kind.
type BundleAssets struct {
	Fonts        []BundleAsset `json:"fonts"`
	ColorSchemes []BundleAsset `json:"color_schemes"`
	Templates    []BundleAsset `json:"templates"`
}

// BundleManifest is the manifest.json document written into every archive.
type BundleManifest struct {
	BundleID   string            `json:"bundle_id"`
	BundleName string            `json:"bundle_name"`
	Style      string            `json:"style"`
	Created    time.Time         `json:"created"`
	Assets     BundleAssets      `json:"assets"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Bundle is the stored record for a built archive under bundles/.
type Bundle struct {
	ID        string         `json:"bundle_id"`
	Name      string         `json:"bundle_name"`
	Style     string         `json:"style"`
	Path      string         `json:"path"`
	Size      int64          `json:"size"`
	Checksum  string         `json:"checksum"`
	Manifest  BundleManifest `json:"manifest"`
	MirrorURL string         `json:"mirror_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AssetCount reports how many files of each kind went into the archive.
func (b Bundle) AssetCount() map[string]int {
	return map[string]int{
		"fonts":         len(b.Manifest.Assets.Fonts),
		"color_schemes": len(b.Manifest.Assets.ColorSchemes),
		"templates":     len(b.Manifest.Assets.Templates),
	}
}

// CreateBundle is the input for building a bundle. When the per-kind ID
// lists are empty the builder falls back to the style presets.
type CreateBundle struct {
	Name         string            `json:"bundle_name"`
	Style        string            `json:"style,omitempty"`
	Fonts        []string          `json:"fonts,omitempty"`
	ColorSchemes []string          `json:"color_schemes,omitempty"`
	Templates    []string          `json:"templates,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
