// Package registry implements the asset catalogs: fonts, color schemes
// and templates, backed by a storage.Store for metadata and an assets.Root
// for the files themselves.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"styleassets/internal/storage"
)

// UnknownCategoryError is returned when a list filter names a category the
// catalog does not have. It unwraps to storage.ErrValidation so callers can
// map it to a client error uniformly.
type UnknownCategoryError struct {
	Category  string
	Available []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category: %s (available: %s)", e.Category, strings.Join(e.Available, ", "))
}

func (e *UnknownCategoryError) Unwrap() error { return storage.ErrValidation }

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
