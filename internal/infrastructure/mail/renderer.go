package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

const (
	TemplateNewUser         = "new-user"
	TemplateRecoverPassword = "recover-password"

	dateTimeLayout = "2 Jan 2006 a las 15:04 hs"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateData is the data every mail template receives.
type TemplateData struct {
	Name     string // business name of the recipient
	Username string
	URL      string
	Date     time.Time
}

// Renderer renders the embedded mail templates, each wrapped in the shared
// base layout.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"datetime": func(t time.Time) string { return t.Format(dateTimeLayout) },
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range []string{TemplateNewUser, TemplateRecoverPassword} {
		tpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tpl
	}
	return r, nil
}

// Render executes template name with data. A zero Date is replaced by the
// current time.
func (r *Renderer) Render(name string, data TemplateData) (string, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	if data.Date.IsZero() {
		data.Date = time.Now()
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
