package domain

import "strings"

var idReplacer = strings.NewReplacer(" ", "_", "-", "_")

// AssetID derives the catalog identifier for a named asset: the lowercased
// name with spaces and hyphens mapped to underscores, so "Times New Roman"
// and "times-new-roman" address the same record.
func AssetID(name string) string {
	return idReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}
