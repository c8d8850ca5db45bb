// Package prompts renders the embedded prompt templates sent to the model.
//
// Every template starts with a "### tastegate:<name>" header line, so a
// prompt's purpose can be recognised from its text alone.
package prompts

// #region imports
import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"
)

// #endregion

// #region names

const (
	Interpret = "interpret"
	Plan      = "plan"
	Generate  = "generate"
	Screen    = "screen"
	Defense   = "defense"
	Rubric    = "rubric"
	Technical = "technical"
	Simplify  = "simplify"
)

// #endregion

// #region templates

//go:embed templates/*.tmpl
var files embed.FS

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
	"truncate": func(s string, n int) string {
		if len(s) <= n {
			return s
		}
		return s[:n]
	},
}

var templates = template.Must(template.New("prompts").Funcs(funcs).ParseFS(files, "templates/*.tmpl"))

// #endregion

// #region render

// Marker returns the header line that identifies a rendered prompt.
func Marker(name string) string {
	return "### tastegate:" + name
}

// Render executes the named template with data.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

// #endregion
