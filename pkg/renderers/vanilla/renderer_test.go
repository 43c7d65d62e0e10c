package vanilla_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/renderers/vanilla"
	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/schema"
)

func newController(t *testing.T) *form.Controller {
	t.Helper()
	cat := schema.Default()
	return form.NewController(rules.Default(), form.NewState(cat.Fields()),
		form.WithTriggers(form.TriggersFromCatalogue(cat)...))
}

func renderHTML(t *testing.T, f render.Form, opts render.RenderOptions) string {
	t.Helper()
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(context.Background(), f, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func TestRenderer_DisabledAndRequiredFromRules(t *testing.T) {
	t.Parallel()

	ctrl := newController(t)
	html := renderHTML(t, render.FromControls("paciente", ctrl.Snapshot()), render.RenderOptions{})

	for _, want := range []string{
		`<form class="kardex-form" id="paciente" name="paciente" action="" method="post" novalidate>`,
		`id="rut" name="rut" value="" required>`,
		`id="nie" name="nie" value="" disabled>`,
		`id="fecha_fallecimiento" name="fecha_fallecimiento" value="" disabled>`,
		`type="date" id="fecha_nacimiento"`,
		`<input type="checkbox" id="fallecido" name="fallecido" value="on">`,
		`<fieldset class="kardex-section" data-section="identificacion">`,
		`<input type="hidden" id="paciente_id" name="paciente_id" value="">`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
}

func TestRenderer_ReflectsFlagChange(t *testing.T) {
	t.Parallel()

	ctrl := newController(t)
	if _, err := ctrl.Change("fallecido", true); err != nil {
		t.Fatalf("change: %v", err)
	}
	html := renderHTML(t, render.FromControls("paciente", ctrl.Snapshot()), render.RenderOptions{})

	if !strings.Contains(html, `id="fecha_fallecimiento" name="fecha_fallecimiento" value="" required>`) {
		t.Fatalf("fecha_fallecimiento should be enabled and required:\n%s", html)
	}
	if !strings.Contains(html, `name="fallecido" value="on" checked>`) {
		t.Fatalf("fallecido should be checked:\n%s", html)
	}
}

func TestRenderer_ErrorsFocusAndHidden(t *testing.T) {
	t.Parallel()

	f := render.Form{
		Name: "paciente",
		Fields: []render.Field{
			{ID: "rut", Label: "RUT", Kind: schema.ControlText, Section: "identificacion", Required: true},
			{ID: "sexo", Label: "Sexo", Kind: schema.ControlSelect, Section: "identificacion", Value: "FEMENINO", Options: []string{"MASCULINO", "FEMENINO"}},
		},
	}
	opts := render.RenderOptions{
		Action:     "/pacientes/guardar",
		Method:     "POST",
		Hidden:     map[string]string{render.CSRFFieldName: "tok<en>"},
		Errors:     map[string][]string{"rut": {"RUT inválido"}},
		FormErrors: []string{"Revise el formulario", "Revise el formulario"},
		Focus:      "rut",
	}
	html := renderHTML(t, f, opts)

	for _, want := range []string{
		`action="/pacientes/guardar" method="post"`,
		`<input type="hidden" name="csrfmiddlewaretoken" value="tok&lt;en&gt;">`,
		`<p class="kardex-field__error">RUT inválido</p>`,
		`value="" required autofocus data-focus="true">`,
		`<option value="FEMENINO" selected>FEMENINO</option>`,
		`<div class="kardex-field is-required has-error" data-field="rut">`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
	if got := strings.Count(html, "Revise el formulario"); got != 1 {
		t.Fatalf("form error rendered %d times, want 1", got)
	}
}

func TestRenderer_Summary(t *testing.T) {
	t.Parallel()

	f := render.Form{
		Name: "paciente",
		Summary: map[string]any{
			"rut":              "11.111.111-1",
			"fecha_creacion":   "01-02-2024 10:00",
			"usuario_anterior": "SIN INFORMACIÓN",
			"fichas": []map[string]any{
				{"establecimiento": "HOSPITAL", "numero": "123", "actual": true},
			},
			"ubicacion": map[string]any{"servicio": "URGENCIA", "profesional": "Dra. Soto", "fecha_envio": "—"},
		},
	}
	html := renderHTML(t, f, render.RenderOptions{})

	for _, want := range []string{
		`<dd data-summary="rut">11.111.111-1</dd>`,
		`<tr class="is-current"><td>HOSPITAL</td><td>123</td></tr>`,
		`<span data-summary="servicio">URGENCIA</span>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
}

func TestRenderer_CustomTemplates(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"templates/form.tmpl": {Data: []byte(`{% for s in sections %}{% for f in s.fields %}{{ f.id }};{% endfor %}{% endfor %}`)},
	}
	renderer, err := vanilla.New(vanilla.WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(context.Background(), render.Form{Fields: []render.Field{{ID: "a", Section: "x"}, {ID: "b"}}}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "a;b;" {
		t.Fatalf("output = %q", out)
	}
}

func TestAssetsFS(t *testing.T) {
	t.Parallel()

	if _, err := vanilla.AssetsFS().Open(vanilla.StylesheetName); err != nil {
		t.Fatalf("stylesheet missing: %v", err)
	}
}
