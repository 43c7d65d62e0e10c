package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/rules"
)

func testForm() render.Form {
	return render.Form{
		Name: "paciente",
		Fields: []render.Field{
			{ID: "rut", Section: "identificacion"},
			{ID: "nie", Section: "identificacion"},
			{ID: "fecha_fallecimiento", Section: "estado"},
			{ID: "observacion"},
		},
	}
}

func TestMapErrorPayload_DjangoPayloads(t *testing.T) {
	payload := map[string][]string{
		"rut":                          {"Este campo es requerido."},
		"/body/nie":                    {"NIP inválido"},
		"paciente.fecha_fallecimiento": {"Fecha futura"},
		"values[0].rut":                {"RUT duplicado"},
		"non_field_errors":             {"Ficha ya existe"},
		"__all__":                      {" Ficha ya existe "},
		"detail":                       {"Sin permisos"},
		"campo_desconocido":            {"Se muestra arriba"},
	}

	mapped := render.MapErrorPayload(testForm(), payload)

	wantFields := map[string][]string{
		"rut":                 {"Este campo es requerido.", "RUT duplicado"},
		"nie":                 {"NIP inválido"},
		"fecha_fallecimiento": {"Fecha futura"},
	}
	sortStrings := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	if diff := cmp.Diff(wantFields, mapped.Fields, sortStrings); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Ficha ya existe", "Se muestra arriba", "Sin permisos"}
	if diff := cmp.Diff(wantForm, mapped.Form, sortStrings); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizePayload(t *testing.T) {
	got := render.NormalizePayload(map[string]any{
		"detail": "No encontrado",
		"rut":    []any{"Requerido", "Formato"},
		"ficha":  map[string]any{"numero": []any{"Duplicado"}},
		"count":  3.0,
	})
	want := map[string][]string{
		"detail":       {"No encontrado"},
		"rut":          {"Requerido", "Formato"},
		"ficha.numero": {"Duplicado"},
		"count":        {"3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestMapViolations(t *testing.T) {
	mapped := render.MapViolations([]rules.Violation{
		{Field: rules.FechaFallecimiento, Message: rules.MsgFechaFallecimiento},
		{Field: rules.RutResponsableTemporal, Message: rules.MsgResponsableFaltante},
	})
	if mapped.Focus != "fecha_fallecimiento" {
		t.Fatalf("focus = %q", mapped.Focus)
	}
	if got := mapped.Fields["rut_responsable_temporal"]; len(got) != 1 {
		t.Fatalf("responsable errors = %v", got)
	}

	opts := mapped.Options(render.RenderOptions{FormErrors: []string{"Revise el formulario"}})
	if opts.Focus != "fecha_fallecimiento" || len(opts.Errors) != 2 || len(opts.FormErrors) != 1 {
		t.Fatalf("options = %+v", opts)
	}

	if empty := render.MapViolations(nil); empty.Fields != nil || empty.Focus != "" {
		t.Fatalf("empty mapping = %+v", empty)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFormSectionsAndOptions(t *testing.T) {
	form := testForm().WithOptions(render.RenderOptions{
		Errors: map[string][]string{"nie": {" NIP inválido ", ""}},
		Focus:  "nie",
	})

	sections := form.Sections()
	var names []string
	for _, s := range sections {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"identificacion", "estado", ""}, names); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
	nie := sections[0].Fields[1]
	if !nie.Focus || len(nie.Errors) != 1 || nie.Errors[0] != "NIP inválido" {
		t.Fatalf("nie = %+v", nie)
	}
	if sections[0].Fields[0].Focus {
		t.Fatalf("rut should not have focus")
	}
}
