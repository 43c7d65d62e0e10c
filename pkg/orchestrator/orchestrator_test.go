package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-kardex/pkg/lookup"
	"github.com/goliatone/go-kardex/pkg/orchestrator"
	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/rules"
)

type stubSource struct {
	found *lookup.FichaPaciente
	err   error
	ruts  []string
}

func (s *stubSource) FichaPaciente(_ context.Context, rut string) (*lookup.FichaPaciente, error) {
	s.ruts = append(s.ruts, rut)
	return s.found, s.err
}

func TestGenerate_DefaultsToVanilla(t *testing.T) {
	t.Parallel()

	result, err := orchestrator.New().Generate(context.Background(), orchestrator.Request{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Renderer != "vanilla" || !strings.HasPrefix(result.ContentType, "text/html") {
		t.Fatalf("renderer = %s (%s)", result.Renderer, result.ContentType)
	}
	if !strings.Contains(string(result.Output), `id="nie" name="nie" value="" disabled>`) {
		t.Fatalf("nie should render disabled:\n%s", result.Output)
	}
	if result.Flags != (rules.FlagSet{}) {
		t.Fatalf("flags = %+v", result.Flags)
	}
}

func TestGenerate_ValuesAndValidation(t *testing.T) {
	t.Parallel()

	result, err := orchestrator.New().Generate(context.Background(), orchestrator.Request{
		Values:   map[string]any{"fallecido": "on", "rut": "11.111.111-1", "nie": "X-1"},
		Validate: true,
		Renderer: "json",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(result.Violations) != 1 || result.Violations[0].Field != rules.FechaFallecimiento {
		t.Fatalf("violations = %+v", result.Violations)
	}

	var payload struct {
		Fields map[string]struct {
			Enabled  bool     `json:"enabled"`
			Required bool     `json:"required"`
			Value    any      `json:"value"`
			Errors   []string `json:"errors"`
		} `json:"fields"`
		Focus string `json:"focus"`
	}
	if err := json.Unmarshal(result.Output, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Focus != "fecha_fallecimiento" {
		t.Fatalf("focus = %q", payload.Focus)
	}
	fecha := payload.Fields["fecha_fallecimiento"]
	if !fecha.Enabled || !fecha.Required || len(fecha.Errors) != 1 {
		t.Fatalf("fecha_fallecimiento = %+v", fecha)
	}
	if nie := payload.Fields["nie"]; nie.Enabled || nie.Value != "" {
		t.Fatalf("nie should be disabled and cleared, got %+v", nie)
	}
}

func TestGenerate_BindsPaciente(t *testing.T) {
	t.Parallel()

	source := &stubSource{found: &lookup.FichaPaciente{
		Paciente: &lookup.Paciente{ID: "7", Nombre: "ANA", Extranjero: true, Pasaporte: "P-9"},
		Ficha:    &lookup.Ficha{NumeroFichaSistema: "501"},
	}}
	result, err := orchestrator.New(orchestrator.WithSource(source)).Generate(context.Background(), orchestrator.Request{
		Rut:      "123456785",
		Renderer: "json",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if diff := cmp.Diff([]string{"12.345.678-5"}, source.ruts); diff != "" {
		t.Fatalf("lookup calls mismatch (-want +got):\n%s", diff)
	}
	if result.Summary == nil || result.Summary.Ficha != "501" {
		t.Fatalf("summary = %+v", result.Summary)
	}
	if !result.Flags.Extranjero {
		t.Fatalf("extranjero flag not bound")
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, err := orchestrator.New().Generate(ctx, orchestrator.Request{Rut: "1-9"}); !errors.Is(err, orchestrator.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}

	source := &stubSource{err: lookup.ErrNotFound}
	_, err := orchestrator.New(orchestrator.WithSource(source)).Generate(ctx, orchestrator.Request{Rut: "12.345.678-5"})
	if !errors.Is(err, lookup.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := orchestrator.New().Generate(ctx, orchestrator.Request{Renderer: "pdf"}); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := orchestrator.New().Generate(cancelled, orchestrator.Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
