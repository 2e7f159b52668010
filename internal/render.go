package intake

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is what a page template can reference. Form pages embed the
// session's current anti-forgery token.
type PageData struct {
	CSRFToken string
}

// Renderer produces the HTML for a named page. The handlers only promise to
// pass a freshly issued token for pages that contain a form.
type Renderer interface {
	Render(w io.Writer, page string, data PageData) error
}

// TemplateRenderer serves the embedded html/template pages.
type TemplateRenderer struct {
	templates *template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, page string, data PageData) error {
	return r.templates.ExecuteTemplate(w, page+".html", data)
}
