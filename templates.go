package fklookup

import (
	"io/fs"

	"github.com/goliatone/go-fklookup/components/lookup"
)

// EmbeddedTemplates exposes the built-in panel, widget and add form templates
// so callers can reuse or extend them without importing the lookup component
// directly.
func EmbeddedTemplates() fs.FS {
	return lookup.TemplatesFS()
}
