package renderer

import "fmt"

// Renderer renders a named message template against a context value.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// TemplateError indicates the template identifier is unknown or rendering
// failed.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }
