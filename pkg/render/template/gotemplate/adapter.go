// Package gotemplate runs Django style templates with pongo2.
package gotemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/render/template"
)

// DefaultExtension is appended to names passed without one.
const DefaultExtension = ".tmpl"

// Option configures an Engine.
type Option func(*Engine)

// WithGlobals makes values visible to every template.
func WithGlobals(values map[string]any) Option {
	return func(e *Engine) {
		e.set.Globals.Update(pongo2.Context(values))
	}
}

// Engine executes templates from one fs.FS. Compiled templates are cached
// and output is autoescaped. Includes resolve relative to the including file.
type Engine struct {
	set *pongo2.TemplateSet
	ext string

	mu    sync.Mutex
	cache map[string]*pongo2.Template
}

var _ template.Executor = (*Engine)(nil)

// New builds an engine over fsys.
func New(fsys fs.FS, options ...Option) (*Engine, error) {
	if fsys == nil {
		return nil, errors.New("gotemplate: templates fs is required")
	}
	e := &Engine{
		set:   pongo2.NewSet("kardex", pongo2.NewFSLoader(fsys)),
		ext:   DefaultExtension,
		cache: make(map[string]*pongo2.Template),
	}
	e.set.Globals = pongo2.Context{}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if err := registerFilters(); err != nil {
		return nil, err
	}
	return e, nil
}

// Execute renders the template name, adding the extension when missing.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}
	tmpl, err := e.load(name)
	if err != nil {
		return err
	}
	return e.run(w, tmpl, name, data)
}

// ExecuteString renders inline template source.
func (e *Engine) ExecuteString(w io.Writer, source string, data any) error {
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return e.run(w, tmpl, "inline", data)
}

// RegisterFilter adds fn as a pongo2 filter. Filters are global to the
// process, so each name can be registered once.
func RegisterFilter(name string, fn func(in, param any) (any, error)) error {
	return installFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		out, err := fn(in.Interface(), param.Interface())
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	})
}

func installFilter(name string, fn pongo2.FilterFunction) error {
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already registered", name)
	}
	return pongo2.RegisterFilter(name, fn)
}

func (e *Engine) load(name string) (*pongo2.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %s: %w", name, err)
	}
	e.cache[name] = tmpl
	return tmpl, nil
}

func (e *Engine) run(w io.Writer, tmpl *pongo2.Template, name string, data any) error {
	ctx, err := toContext(data)
	if err != nil {
		return fmt.Errorf("gotemplate: %s data: %w", name, err)
	}
	if err := tmpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("gotemplate: execute %s: %w", name, err)
	}
	return nil
}

// toContext sends data through JSON so nested struct fields are addressed by
// their json names.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var ctx pongo2.Context
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, errors.New("data is not an object")
	}
	return ctx, nil
}

var (
	filtersOnce sync.Once
	filtersErr  error
)

// registerFilters installs the filters the bundled templates use. A name
// already taken by another filter fails every New.
func registerFilters() error {
	filtersOnce.Do(func() {
		filtersErr = installFilter("fechahora", fechaHora)
	})
	return filtersErr
}

func fechaHora(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(form.FormatFechaHora(in.String())), nil
}
