package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-kardex/pkg/binding"
	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/renderers/jsonstate"
	"github.com/goliatone/go-kardex/pkg/renderers/vanilla"
	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/schema"
)

const (
	defaultRendererName = vanilla.Name
	// FormName is the name rendered forms carry.
	FormName = "paciente"
)

// ErrNoSource is returned when a request names a RUT but no lookup source is
// configured.
var ErrNoSource = errors.New("orchestrator: no paciente source configured")

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEngine injects the rule engine.
func WithEngine(engine *rules.Engine) Option {
	return func(o *Orchestrator) {
		o.engine = engine
	}
}

// WithCatalogue injects the field catalogue.
func WithCatalogue(cat *schema.Catalogue) Option {
	return func(o *Orchestrator) {
		o.catalogue = cat
	}
}

// WithRegistry replaces the default vanilla+json registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer names the renderer for requests that leave it empty.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSource configures where patients are looked up by RUT.
func WithSource(source binding.PacienteSource) Option {
	return func(o *Orchestrator) {
		o.source = source
	}
}

// WithLogger attaches a logger passed on to controllers and binders.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator coordinates the pipeline from field catalogue to rendered
// output. Missing dependencies fall back to the embedded rule table, the
// embedded catalogue and a registry holding the vanilla and JSON renderers.
// It is safe for concurrent use; every request gets its own controller.
type Orchestrator struct {
	engine          *rules.Engine
	catalogue       *schema.Catalogue
	registry        *render.Registry
	defaultRenderer string
	source          binding.PacienteSource
	logger          zerolog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

// Engine returns the rule engine in use.
func (o *Orchestrator) Engine() *rules.Engine { return o.engine }

// Catalogue returns the field catalogue in use.
func (o *Orchestrator) Catalogue() *schema.Catalogue { return o.catalogue }

// Registry returns the renderer registry.
func (o *Orchestrator) Registry() *render.Registry { return o.registry }

// NewController builds a fresh form from the catalogue with the rules applied.
func (o *Orchestrator) NewController() *form.Controller {
	return form.NewController(
		o.engine,
		form.NewState(o.catalogue.Fields()),
		form.WithTriggers(form.TriggersFromCatalogue(o.catalogue)...),
		form.WithLogger(o.logger),
	)
}

// Request describes one form rendering.
type Request struct {
	// Rut, when set, binds the patient found by the lookup source first.
	Rut string

	// Values overlay the bound patient, usually a submitted form.
	Values map[string]any

	// Validate runs the submission checks and attaches the violations to the
	// rendered fields, focusing the blocking one.
	Validate bool

	// Renderer is a registry name; empty selects the default.
	Renderer string

	RenderOptions render.RenderOptions
}

// Result is the outcome of Generate.
type Result struct {
	Output      []byte
	ContentType string
	Renderer    string
	Controls    []form.Control
	Flags       rules.FlagSet
	Violations  []rules.Violation
	Summary     *binding.Summary
}

// Generate executes bind → overlay → rules → render and returns the rendered
// bytes along with the final form state.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	ctrl := o.NewController()

	var summary *binding.Summary
	if rut := strings.TrimSpace(req.Rut); rut != "" {
		if o.source == nil {
			return nil, ErrNoSource
		}
		binder := binding.NewPaciente(o.source, ctrl, binding.WithLogger(o.logger))
		summary, err = binder.Load(ctx, rut)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: bind paciente: %w", err)
		}
	}
	if len(req.Values) > 0 {
		ctrl.Load(req.Values)
	}

	options := req.RenderOptions
	var violations []rules.Violation
	if req.Validate {
		violations = ctrl.Violations()
		options = render.MapViolations(violations).Options(options)
	}

	controls := ctrl.Snapshot()
	view := render.FromControls(FormName, controls)
	if summary != nil {
		view.Summary = summary
	}

	output, err := renderer.Render(ctx, view, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}

	return &Result{
		Output:      output,
		ContentType: renderer.ContentType(),
		Renderer:    renderer.Name(),
		Controls:    controls,
		Flags:       ctrl.Flags(),
		Violations:  violations,
		Summary:     summary,
	}, nil
}

// rendererFor resolves name, then the configured default, then whatever the
// registry registered first.
func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if name == "" && o.registry.Has(o.defaultRenderer) {
		name = o.defaultRenderer
	}
	renderer, err := o.registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.engine == nil {
		o.engine = rules.Default()
	}
	if o.catalogue == nil {
		o.catalogue = schema.Default()
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(renderer)
		o.registry.MustRegister(jsonstate.New())
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
