// Package vanilla renders patient forms as server-side HTML.
package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/render/template"
	"github.com/goliatone/go-kardex/pkg/render/template/gotemplate"
)

const (
	// Name is the registry name of this renderer.
	Name = "vanilla"

	entryTemplate = "templates/form.tmpl"
)

type Option func(*Renderer)

// WithTemplatesFS replaces the bundled templates. The bundle must hold
// templates/form.tmpl and the files it includes.
func WithTemplatesFS(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.files = files
		}
	}
}

// WithTemplatesDir is WithTemplatesFS over a directory on disk.
func WithTemplatesDir(dir string) Option {
	return func(r *Renderer) {
		if dir != "" {
			r.files = os.DirFS(dir)
		}
	}
}

// WithExecutor runs templates through exec instead of the pongo2 engine.
func WithExecutor(exec template.Executor) Option {
	return func(r *Renderer) {
		r.exec = exec
	}
}

// WithStylesheet links a stylesheet from the rendered markup.
func WithStylesheet(href string) Option {
	return func(r *Renderer) {
		r.stylesheet = strings.TrimSpace(href)
	}
}

// Renderer writes a <form> with one fieldset per section. Disabled and
// required attributes are read from the view, so the markup matches the last
// rule evaluation.
type Renderer struct {
	files      fs.FS
	exec       template.Executor
	stylesheet string
}

var _ render.Renderer = (*Renderer)(nil)

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{files: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.exec == nil {
		engine, err := gotemplate.New(r.files)
		if err != nil {
			return nil, fmt.Errorf("vanilla: %w", err)
		}
		r.exec = engine
	}
	return r, nil
}

func (r *Renderer) Name() string        { return Name }
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

func (r *Renderer) Render(_ context.Context, form render.Form, options render.RenderOptions) ([]byte, error) {
	method := strings.ToLower(strings.TrimSpace(options.Method))
	if method == "" {
		method = "post"
	}

	var buf bytes.Buffer
	err := r.exec.Execute(&buf, entryTemplate, map[string]any{
		"name":          form.Name,
		"action":        options.Action,
		"method":        method,
		"stylesheet":    r.stylesheet,
		"hidden_fields": render.SortedHiddenFields(options.Hidden),
		"form_errors":   render.MergeFormErrors(nil, options.FormErrors...),
		"sections":      form.WithOptions(options).Sections(),
		"summary":       form.Summary,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla: %w", err)
	}
	return buf.Bytes(), nil
}
