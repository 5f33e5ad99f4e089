package lookup

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	gotemplate "github.com/goliatone/go-template"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

const templateExt = ".tpl"

// Partial keys a theme may override. Their values name template files inside
// the component templates FS.
const (
	PartialPanel  = "lookup.panel"
	PartialWidget = "lookup.widget"
	PartialAdd    = "lookup.add"
)

// DefaultPartials maps every partial key to its embedded template.
func DefaultPartials() map[string]string {
	return map[string]string{
		PartialPanel:  "panel" + templateExt,
		PartialWidget: "widget" + templateExt,
		PartialAdd:    "add" + templateExt,
	}
}

// TemplatesFS exposes the embedded templates so callers can copy and extend
// them before passing their own set through WithTemplates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// templateEngine is the subset of the go-template engine the component uses.
type templateEngine interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// renderer resolves partials through the active theme and executes them with
// the go-template engine.
type renderer struct {
	engine templateEngine
	err    error
	theme  themeView
}

func newRenderer(fsys fs.FS, theme themeView) *renderer {
	if fsys == nil {
		fsys = TemplatesFS()
	}
	r := &renderer{theme: theme}
	engine, err := gotemplate.NewRenderer(
		gotemplate.WithFS(fsys),
		gotemplate.WithExtension(templateExt),
	)
	if err != nil {
		r.err = fmt.Errorf("lookup: template engine: %w", err)
		return r
	}
	r.engine = engine
	return r
}

func (r *renderer) render(partial string, data map[string]any) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.engine == nil {
		return "", errors.New("lookup: template engine not configured")
	}
	name := r.theme.partial(partial)
	if name == "" {
		return "", fmt.Errorf("lookup: unknown partial %q", partial)
	}
	if data == nil {
		data = map[string]any{}
	}
	data["theme"] = r.theme.context()
	out, err := r.engine.RenderTemplate(name, data)
	if err != nil {
		return "", fmt.Errorf("lookup: render %s (%s): %w", partial, name, err)
	}
	return out, nil
}
