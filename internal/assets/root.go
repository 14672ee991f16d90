// Package assets manages the on-disk asset tree the service serves from.
// All file access goes through Root so request paths can never escape it.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned when a requested path would resolve outside the
// asset root. Callers map it to a client error, never a server error.
var ErrTraversal = errors.New("path escapes asset root")

// Layout directories created under the asset root.
const (
	DirFonts     = "fonts"
	DirSchemes   = "color_schemes"
	DirTemplates = "templates"
	DirBundles   = "bundles"
)

// SubDirs returns the standard layout directories in a stable order.
func SubDirs() []string {
	return []string{DirFonts, DirSchemes, DirTemplates, DirBundles}
}

// Root is a confined view of the asset directory.
type Root struct {
	dir string
}

// NewRoot resolves dir to an absolute path. The directory does not have to
// exist yet; call EnsureLayout to create it and the standard subdirectories.
func NewRoot(dir string) (Root, error) {
	if strings.TrimSpace(dir) == "" {
		return Root{}, errors.New("asset root directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve asset root: %w", err)
	}
	return Root{dir: abs}, nil
}

// Dir returns the absolute asset root directory.
func (r Root) Dir() string { return r.dir }

// EnsureLayout creates the root and its standard subdirectories.
func (r Root) EnsureLayout() error {
	for _, sub := range SubDirs() {
		if err := os.MkdirAll(filepath.Join(r.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", sub, err)
		}
	}
	return nil
}

// Healthy reports whether the asset root is currently readable. It probes
// the filesystem on every call rather than caching the result.
func (r Root) Healthy() error {
	if _, err := os.ReadDir(r.dir); err != nil {
		return fmt.Errorf("asset root unreadable: %w", err)
	}
	return nil
}

// Resolve maps a slash-separated request path to an absolute file path under
// the root. Any traversal attempt (".." elements, absolute paths, backslash
// separators, NUL bytes) yields ErrTraversal.
func (r Root) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrTraversal
	}
	if strings.ContainsRune(name, '\x00') || strings.ContainsRune(name, '\\') {
		return "", ErrTraversal
	}
	if path.IsAbs(name) || filepath.IsAbs(name) {
		return "", ErrTraversal
	}
	for _, el := range strings.Split(name, "/") {
		if el == ".." {
			return "", ErrTraversal
		}
	}
	clean := path.Clean(name)
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", ErrTraversal
	}
	return filepath.Join(r.dir, filepath.FromSlash(clean)), nil
}

// Stat stats a file under the root.
func (r Root) Stat(name string) (fs.FileInfo, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// Open opens a file under the root for reading.
func (r Root) Open(name string) (*os.File, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// ReadFile reads a file under the root.
func (r Root) ReadFile(name string) ([]byte, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// WriteFile writes a file under the root, creating parent directories as
// needed.
func (r Root) WriteFile(name string, data []byte) error {
	p, err := r.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}

// Remove deletes a file under the root. Missing files are not an error.
func (r Root) Remove(name string) error {
	p, err := r.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether a file exists under the root. Traversal attempts
// count as absent.
func (r Root) Exists(name string) bool {
	info, err := r.Stat(name)
	return err == nil && !info.IsDir()
}

// Font and document types the platform mime table does not always know.
var contentTypes = map[string]string{
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".tex":   "application/x-tex",
	".md":    "text/markdown; charset=utf-8",
	".zip":   "application/zip",
	".json":  "application/json",
}

// ContentTypeFor derives a Content-Type from the file extension alone.
// Unknown extensions fall back to application/octet-stream.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
