// Package kardex exposes the patient form layer from the module root: the
// field rules, the form controller and the rendering pipeline.
package kardex

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/orchestrator"
	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/renderers/vanilla"
	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/schema"
)

// RenderOptions aliases render.RenderOptions for callers that only import the
// root package.
type RenderOptions = render.RenderOptions

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewPacienteController builds the patient form from the embedded catalogue
// with the rules already applied. A nil engine uses the embedded table.
func NewPacienteController(engine *rules.Engine, options ...form.ControllerOption) *form.Controller {
	if engine == nil {
		engine = rules.Default()
	}
	cat := schema.Default()
	opts := append([]form.ControllerOption{
		form.WithTriggers(form.TriggersFromCatalogue(cat)...),
	}, options...)
	return form.NewController(engine, form.NewState(cat.Fields()), opts...)
}

// GenerateHTML renders the patient form for values with the default
// pipeline.
func GenerateHTML(ctx context.Context, values map[string]any, options RenderOptions) ([]byte, error) {
	result, err := orchestrator.New().Generate(ctx, orchestrator.Request{
		Values:        values,
		Renderer:      "vanilla",
		RenderOptions: options,
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the stylesheet served next to rendered forms.
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
