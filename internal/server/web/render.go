package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templatesFS embed.FS

// inputField is the argument of the "input" template.
type inputField struct {
	ID           string
	Label        string
	Type         string
	Value        string
	Autocomplete string
	Error        string
}

var templateFuncs = template.FuncMap{
	"field": func(id, label, typ, value, autocomplete, errMsg string) inputField {
		return inputField{ID: id, Label: label, Type: typ, Value: value, Autocomplete: autocomplete, Error: errMsg}
	},
	"passwordType": func(show bool) string {
		if show {
			return "text"
		}
		return "password"
	},
}

// templateRenderer implements echo.Renderer over the embedded templates.
type templateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &templateRenderer{templates: tmpl}, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return nil
}
