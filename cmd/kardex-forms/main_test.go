package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/schema"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	envFile := filepath.Join(t.TempDir(), "missing.env")
	cmd.SetArgs(append(args, "--env-file", envFile))
	err := cmd.Execute()
	return out.String(), err
}

func TestRutCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "rut", "123456785")
	if err != nil {
		t.Fatalf("rut: %v", err)
	}
	if strings.TrimSpace(out) != "12.345.678-5" {
		t.Fatalf("output = %q", out)
	}
	if _, err := execute(t, "rut", "12.345.678-0"); err == nil {
		t.Fatalf("expected an error for a wrong check digit")
	}
}

func TestRulesCommand_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "rules", "--fallecido", "--json")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	var got struct {
		Flags  rules.FlagSet `json:"flags"`
		States rules.States  `json:"states"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !got.Flags.Fallecido {
		t.Fatalf("flags = %+v", got.Flags)
	}
	if s := got.States[rules.FechaFallecimiento]; !s.Enabled || !s.Required {
		t.Fatalf("fecha_fallecimiento = %+v", s)
	}
	if s := got.States[rules.NIE]; s.Enabled {
		t.Fatalf("nie = %+v", s)
	}
}

func TestRulesCommand_Text(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "rules", "--extranjero", "--sin-telefono")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if !strings.Contains(out, "flags: --/EX/--/ST") {
		t.Fatalf("missing flags line:\n%s", out)
	}
	if !strings.Contains(out, "FIELD") || !strings.Contains(out, "nie") {
		t.Fatalf("missing table:\n%s", out)
	}
}

func TestTableCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "table", "--json")
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	var combos []rules.Combination
	if err := json.Unmarshal([]byte(out), &combos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(combos) != len(rules.Default().Combinations()) {
		t.Fatalf("got %d combinations", len(combos))
	}
}

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "render", "--renderer", "json", "--value", "fallecido", "--value", "nombre=ANA", "--validate")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, rules.MsgFechaFallecimiento) {
		t.Fatalf("violation not rendered:\n%s", out)
	}
	if !strings.Contains(out, `"ANA"`) {
		t.Fatalf("value not rendered:\n%s", out)
	}

	html, err := execute(t, "render")
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(html, `<form class="kardex-form"`) {
		t.Fatalf("unexpected html:\n%s", html)
	}
}

func TestLookupCommand_RequiresBaseURL(t *testing.T) {
	t.Setenv("KARDEX_BASE_URL", "")

	if _, err := execute(t, "lookup", "12.345.678-5"); err == nil || !strings.Contains(err.Error(), "KARDEX_BASE_URL") {
		t.Fatalf("expected base url error, got %v", err)
	}
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	got, err := parseValues([]string{"extranjero", "nie=N-1", "nombre="})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got["extranjero"] != true || got["nie"] != "N-1" || got["nombre"] != "" {
		t.Fatalf("values = %v", got)
	}
	if _, err := parseValues([]string{"=x"}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestCheckFlags(t *testing.T) {
	t.Parallel()

	if err := checkFlags(schema.Default()); err != nil {
		t.Fatalf("default catalogue: %v", err)
	}

	partial := `
openapi: 3.0.3
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    PacienteForm:
      type: object
      properties:
        fallecido:
          type: boolean
          x-kardex: {label: Fallecido, flag: true}
`
	cat, err := schema.Load(context.Background(), []byte(partial))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := checkFlags(cat); err == nil || !strings.Contains(err.Error(), "must be declared as a flag") {
		t.Fatalf("expected missing flag error, got %v", err)
	}
}
