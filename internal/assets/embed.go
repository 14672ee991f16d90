package assets

import "embed"

//go:embed defaults/templates
var defaultTemplates embed.FS

// DefaultTemplateBody returns the built-in body for one of the stock
// template files, keyed by filename (for example "ieee_article_html.html").
func DefaultTemplateBody(filename string) ([]byte, bool) {
	data, err := defaultTemplates.ReadFile("defaults/templates/" + filename)
	if err != nil {
		return nil, false
	}
	return data, true
}
