package ollama

import (
	"bytes"
	"text/template"
)

// RenderTemplate executes a text/template prompt against data. Referencing a
// key missing from data is an error.
func RenderTemplate(tmpl string, data any) (string, error) {
	tpl, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
