// Package web provides the embedded HTML templates for the upload and
// result pages so the binary ships self contained.
package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Renderer implements echo.Renderer on top of the embedded templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates. It panics on parse errors
// because a broken template set is a build defect, not a runtime state.
func NewRenderer() *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(templateFiles, "templates/*.html")),
	}
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
