package mail

import (
	"embed"
	"fmt"
	"html"
	"io/fs"
	"regexp"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateAdoptionAccepted  = "adoption_accepted.html"
	TemplateAdoptionRejected  = "adoption_rejected.html"
	TemplateAppointmentBooked = "appointment_booked.html"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Renderer fills {{name}} placeholders in HTML email templates.
type Renderer struct {
	templates map[string]string
}

// NewRenderer loads every .html file of fsys's templates directory. A nil
// fsys selects the embedded templates.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	if fsys == nil {
		fsys = templateFS
	}
	entries, err := fs.ReadDir(fsys, "templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	r := &Renderer{templates: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		b, err := fs.ReadFile(fsys, "templates/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", e.Name(), err)
		}
		r.templates[e.Name()] = string(b)
	}
	return r, nil
}

// Render replaces every {{name}} in template name with values[name].
// Placeholders without a value key are left verbatim; a nil value (or nil
// *string) renders as "null". Values are HTML-escaped.
func (r *Renderer) Render(name string, values map[string]any) (string, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		key := m[2 : len(m)-2]
		v, ok := values[key]
		if !ok {
			return m
		}
		return html.EscapeString(stringify(v))
	}), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case *string:
		if t == nil {
			return "null"
		}
		return *t
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
