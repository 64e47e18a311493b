package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"os"
	"sync"
)

// ErrTemplateNotFound is returned when a named template does not exist.
var ErrTemplateNotFound = errors.New("email: template not found")

// funcs are available to every template. escape applies the minimal HTML
// escaping of &, <, >, ' and " and marks the result safe, so values such as
// plus-addresses reach the output (and the stripped plain text) unchanged.
var funcs = template.FuncMap{
	"escape": func(v any) template.HTML {
		return template.HTML(html.EscapeString(fmt.Sprint(v)))
	},
}

//go:embed templates
var embedded embed.FS

// Renderer renders named HTML templates. Parsed templates are cached.
type Renderer struct {
	fsys fs.FS

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewRenderer loads templates from root, or from the templates compiled into
// the binary when root is empty.
func NewRenderer(root string) *Renderer {
	if root == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			panic(err) // embedded directory is fixed at build time
		}
		return NewRendererFS(sub)
	}
	return NewRendererFS(os.DirFS(root))
}

// NewRendererFS loads templates from fsys
func NewRendererFS(fsys fs.FS) *Renderer {
	return &Renderer{
		fsys:  fsys,
		cache: make(map[string]*template.Template),
	}
}

// Render executes template name with data. A key used by the template but
// missing from data is an error.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("email: render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	src, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("email: read template %s: %w", name, err)
	}

	tmpl, err = template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("email: parse template %s: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}
