// Package msgtemplate renders notification message bodies from templates
// embedded in the binary.
package msgtemplate

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/renderer"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders named notification templates. The template set is parsed
// once at construction; Render is safe for concurrent use.
type Renderer struct {
	set *template.Template
}

func NewRenderer() (*Renderer, error) {
	set, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse message templates: %w", err)
	}
	return &Renderer{set: set}, nil
}

func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl := r.set.Lookup(name + ".tmpl")
	if tmpl == nil {
		return "", &renderer.TemplateError{Name: name, Err: fmt.Errorf("unknown template")}
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", &renderer.TemplateError{Name: name, Err: err}
	}
	return b.String(), nil
}
