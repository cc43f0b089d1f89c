package echoapi

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cutm/results/core/result"
)

//go:embed templates
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"inc":        func(i int) int { return i + 1 },
	"percent":    func(p float64) string { return strconv.FormatFloat(p, 'f', -1, 64) },
	"gradeClass": gradeClass,
}

func gradeClass(g result.Grade) string {
	switch {
	case g.IsTop():
		return "grade-top"
	case g.IsFail():
		return "grade-fail"
	default:
		return "grade-mid"
	}
}

// htmlRenderer is an echo.Renderer executing each page within the shared layout.
type htmlRenderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*htmlRenderer)(nil)

func newHTMLRenderer() (*htmlRenderer, error) {
	fps, err := fs.Glob(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing page templates")
	}

	r := &htmlRenderer{pages: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		name := strings.TrimSuffix(path.Base(fp), ".gohtml")
		if name == "layout" {
			continue
		}
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.gohtml", fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing page template %s", name)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *htmlRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("page template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
