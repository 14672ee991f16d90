// Package bundle assembles distributable ZIP archives of catalog assets
// with an embedded manifest.
package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"styleassets/internal/assets"
	"styleassets/internal/domain"
	"styleassets/internal/storage"
)

// Mirror uploads a finished bundle to an object store and returns the URL
// it can be fetched from.
type Mirror interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Fonts packed when a style names no fonts of its own.
var stylePresetFonts = map[string][]string{
	"ieee":   {"times_new_roman"},
	"nature": {"times_new_roman"},
	"apa":    {"times_new_roman"},
	"modern": {"arial"},
}

var defaultPresetFonts = []string{"times_new_roman", "arial"}

// Builder creates asset bundles. Mirroring is best effort: an upload
// failure is logged and the bundle is kept local.
type Builder struct {
	store  storage.Store
	root   assets.Root
	mirror Mirror
	logger *slog.Logger
}

func NewBuilder(store storage.Store, root assets.Root, mirror Mirror, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, root: root, mirror: mirror, logger: logger}
}

// Build assembles a ZIP bundle from the requested assets and records it in
// the catalog. Empty selections fall back to the style presets (fonts), the
// whole catalog (schemes) or the style-compatible set (templates). Assets
// whose files are not on disk are skipped, not errors.
func (b *Builder) Build(ctx context.Context, in domain.CreateBundle) (domain.Bundle, error) {
	name := in.Name
	if name == "" {
		name = "default_bundle"
	}
	style := in.Style
	if style == "" {
		style = "default"
	}
	now := time.Now().UTC()
	id := bundleID(name, style, now)

	manifest := domain.BundleManifest{
		BundleID:   id,
		BundleName: name,
		Style:      style,
		Created:    now,
		Metadata:   in.Metadata,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fonts, err := b.selectFonts(ctx, style, in.Fonts)
	if err != nil {
		return domain.Bundle{}, err
	}
	for _, f := range fonts {
		rel, ok := b.fontFile(f)
		if !ok {
			continue
		}
		filename := rel[len(assets.DirFonts)+1:]
		if err := b.addFile(zw, "fonts/"+filename, rel); err != nil {
			return domain.Bundle{}, err
		}
		manifest.Assets.Fonts = append(manifest.Assets.Fonts, domain.BundleAsset{
			Name:     f.Name,
			Filename: filename,
			Path:     rel,
			Type:     string(f.Category),
		})
	}

	schemes, err := b.selectSchemes(ctx, in.ColorSchemes)
	if err != nil {
		return domain.Bundle{}, err
	}
	for _, s := range schemes {
		filename := s.ID + ".json"
		rel := assets.DirSchemes + "/" + filename
		if !b.root.Exists(rel) {
			continue
		}
		if err := b.addFile(zw, "color_schemes/"+filename, rel); err != nil {
			return domain.Bundle{}, err
		}
		manifest.Assets.ColorSchemes = append(manifest.Assets.ColorSchemes, domain.BundleAsset{
			Name:     s.Name,
			Filename: filename,
			Path:     rel,
			Type:     string(s.Category),
		})
		b.recordSchemeUsage(ctx, s.ID)
	}

	templates, err := b.selectTemplates(ctx, style, in.Templates)
	if err != nil {
		return domain.Bundle{}, err
	}
	for _, t := range templates {
		filename := t.Filename()
		rel := assets.DirTemplates + "/" + filename
		if !b.root.Exists(rel) {
			continue
		}
		if err := b.addFile(zw, "templates/"+filename, rel); err != nil {
			return domain.Bundle{}, err
		}
		manifest.Assets.Templates = append(manifest.Assets.Templates, domain.BundleAsset{
			Name:     t.Name,
			Filename: filename,
			Path:     rel,
			Type:     string(t.Category),
		})
		b.recordTemplateUsage(ctx, t.ID)
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("encode manifest: %w", err)
	}
	mw, err := zw.Create("manifest.json")
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := mw.Write(manifestJSON); err != nil {
		return domain.Bundle{}, fmt.Errorf("write manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return domain.Bundle{}, fmt.Errorf("finalize bundle: %w", err)
	}

	path := assets.DirBundles + "/" + id + ".zip"
	data := buf.Bytes()
	if err := b.root.WriteFile(path, data); err != nil {
		return domain.Bundle{}, fmt.Errorf("write bundle: %w", err)
	}

	bnd := domain.Bundle{
		ID:        id,
		Name:      name,
		Style:     style,
		Path:      path,
		Size:      int64(len(data)),
		Checksum:  fmt.Sprintf("%x", md5.Sum(data)),
		Manifest:  manifest,
		CreatedAt: now,
	}

	if b.mirror != nil {
		url, err := b.mirror.Upload(ctx, path, data, "application/zip")
		if err != nil {
			b.logger.Warn("bundle mirror upload failed", "bundle_id", id, "error", err)
		} else {
			bnd.MirrorURL = url
		}
	}

	return b.store.CreateBundle(ctx, bnd)
}

func (b *Builder) selectFonts(ctx context.Context, style string, names []string) ([]domain.Font, error) {
	ids := make([]string, 0, len(names))
	if len(names) > 0 {
		for _, n := range names {
			ids = append(ids, domain.AssetID(n))
		}
	} else if preset, ok := stylePresetFonts[style]; ok {
		ids = preset
	} else {
		ids = defaultPresetFonts
	}

	out := make([]domain.Font, 0, len(ids))
	for _, id := range ids {
		f, ok, err := b.store.GetFont(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (b *Builder) selectSchemes(ctx context.Context, names []string) ([]domain.ColorScheme, error) {
	if len(names) == 0 {
		return b.store.ListSchemes(ctx)
	}
	out := make([]domain.ColorScheme, 0, len(names))
	for _, n := range names {
		s, ok, err := b.store.GetScheme(ctx, domain.AssetID(n))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *Builder) selectTemplates(ctx context.Context, style string, names []string) ([]domain.Template, error) {
	if len(names) > 0 {
		out := make([]domain.Template, 0, len(names))
		for _, n := range names {
			t, ok, err := b.store.GetTemplate(ctx, domain.AssetID(n))
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, t)
			}
		}
		return out, nil
	}

	all, err := b.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if style == "default" {
		return all, nil
	}
	out := make([]domain.Template, 0, len(all))
	for _, t := range all {
		if slices.Contains(t.StyleCompatibility, style) {
			out = append(out, t)
		}
	}
	return out, nil
}

// fontFile returns the first installed file for the font's formats.
func (b *Builder) fontFile(f domain.Font) (string, bool) {
	for _, format := range f.Formats {
		rel := assets.DirFonts + "/" + f.ID + "." + format
		if b.root.Exists(rel) {
			return rel, true
		}
	}
	return "", false
}

func (b *Builder) addFile(zw *zip.Writer, zipPath, rel string) error {
	data, err := b.root.ReadFile(rel)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	w, err := zw.Create(zipPath)
	if err != nil {
		return fmt.Errorf("add %s: %w", zipPath, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", zipPath, err)
	}
	return nil
}

func (b *Builder) recordSchemeUsage(ctx context.Context, id string) {
	_, _, _ = b.store.IncrementSchemeUsage(ctx, id)
}

func (b *Builder) recordTemplateUsage(ctx context.Context, id string) {
	_, _, _ = b.store.IncrementTemplateUsage(ctx, id)
}

func bundleID(name, style string, ts time.Time) string {
	base := fmt.Sprintf("%s_%s_%s", name, style, ts.Format(time.RFC3339Nano))
	return fmt.Sprintf("%x", md5.Sum([]byte(base)))[:12]
}
