package jsonstate_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/renderers/jsonstate"
	"github.com/goliatone/go-kardex/pkg/schema"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	f := render.Form{
		Name: "paciente",
		Fields: []render.Field{
			{ID: "rut", Kind: schema.ControlText, Value: "11.111.111-1", Required: true},
			{ID: "nie", Kind: schema.ControlText, Disabled: true},
			{ID: "fallecido", Kind: schema.ControlCheckbox, Checked: true},
		},
	}
	got := jsonstate.Build(f, render.RenderOptions{
		Errors: map[string][]string{"rut": {"RUT inválido"}},
		Focus:  "rut",
	})

	want := jsonstate.Payload{
		Form: "paciente",
		Fields: map[string]jsonstate.FieldState{
			"rut":       {Enabled: true, Required: true, Value: "11.111.111-1", Errors: []string{"RUT inválido"}},
			"nie":       {Enabled: false, Value: ""},
			"fallecido": {Enabled: true, Value: true},
		},
		Focus: "rut",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_Shape(t *testing.T) {
	t.Parallel()

	r := jsonstate.New()
	if r.ContentType() != "application/json" {
		t.Fatalf("content type = %q", r.ContentType())
	}
	out, err := r.Render(context.Background(), render.Form{
		Fields: []render.Field{{ID: "telefono2", Kind: schema.ControlText, Disabled: true}},
	}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"fields": map[string]any{
			"telefono2": map[string]any{"enabled": false, "required": false, "value": ""},
		},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}
