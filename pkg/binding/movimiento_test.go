package binding_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-kardex/pkg/binding"
	"github.com/goliatone/go-kardex/pkg/lookup"
)

type fakeMovements struct {
	kinds  []lookup.MovementKind
	detail string
	err    error
}

func (f *fakeMovements) MovementByRut(ctx context.Context, kind lookup.MovementKind, rut string) (*lookup.MovimientoDetalle, error) {
	f.kinds = append(f.kinds, kind)
	if f.err != nil {
		return nil, f.err
	}
	var out lookup.MovimientoDetalle
	if err := json.Unmarshal([]byte(f.detail), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

const traspasoJSON = `{
  "id": 3,
  "ficha": {"numero_ficha_sistema": 77, "paciente": {"rut": "12.345.678-5", "nombre": "ANA", "apellido_paterno": "SOTO"}},
  "servicio_clinico_envio_nombre": "URGENCIA",
  "servicio_clinico_traspaso": "PEDIATRIA"
}`

func TestMovimientoFillByRut(t *testing.T) {
	t.Parallel()

	source := &fakeMovements{detail: traspasoJSON}
	m := binding.NewMovimiento(source, lookup.Traspaso)
	m.Set(binding.MovimientoFields{Observacion: "previa"})

	found, err := m.FillByRut(context.Background(), "12.345.678-5")
	if err != nil || !found {
		t.Fatalf("fill: found=%v err=%v", found, err)
	}
	want := binding.MovimientoFields{
		Rut:           "12.345.678-5",
		Nombre:        "ANA SOTO",
		Ficha:         "77",
		ServicioEnvio: "URGENCIA",
		Servicio:      "PEDIATRIA",
		Observacion:   "previa",
	}
	if got := m.Fields(); got != want {
		t.Fatalf("fields = %+v, want %+v", got, want)
	}
	if source.kinds[0] != lookup.Traspaso {
		t.Fatalf("kind = %s", source.kinds[0])
	}
}

func TestMovimientoFillByRut_MissKeepsService(t *testing.T) {
	t.Parallel()

	m := binding.NewMovimiento(&fakeMovements{err: lookup.ErrNotFound}, lookup.Recepcion)
	m.Set(binding.MovimientoFields{Nombre: "X", Ficha: "1", Servicio: "PEDIATRIA"})

	found, err := m.FillByRut(context.Background(), "1-9")
	if err != nil || found {
		t.Fatalf("fill: found=%v err=%v", found, err)
	}
	got := m.Fields()
	if got.Nombre != "" || got.Ficha != "" || got.Servicio != "PEDIATRIA" {
		t.Fatalf("fields = %+v", got)
	}
}

func TestMovimientoEnsureLoaded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	complete := binding.NewMovimiento(&fakeMovements{err: errors.New("unused")}, lookup.Recepcion)
	complete.Set(binding.MovimientoFields{Rut: "1-9", Nombre: "ANA", Ficha: "3"})
	if err := complete.EnsureLoaded(ctx); err != nil {
		t.Fatalf("complete form: %v", err)
	}

	empty := binding.NewMovimiento(&fakeMovements{}, lookup.Recepcion)
	if err := empty.EnsureLoaded(ctx); !errors.Is(err, binding.ErrIncomplete) {
		t.Fatalf("empty form: expected ErrIncomplete, got %v", err)
	}

	lookedUp := binding.NewMovimiento(&fakeMovements{detail: traspasoJSON}, lookup.Recepcion)
	lookedUp.Set(binding.MovimientoFields{Rut: "12.345.678-5"})
	if err := lookedUp.EnsureLoaded(ctx); err != nil {
		t.Fatalf("lookup form: %v", err)
	}

	missing := binding.NewMovimiento(&fakeMovements{err: lookup.ErrNotFound}, lookup.Recepcion)
	missing.Set(binding.MovimientoFields{Rut: "1-9"})
	if err := missing.EnsureLoaded(ctx); !errors.Is(err, binding.ErrIncomplete) {
		t.Fatalf("missing: expected ErrIncomplete, got %v", err)
	}

	failing := binding.NewMovimiento(&fakeMovements{err: errors.New("boom")}, lookup.Recepcion)
	failing.Set(binding.MovimientoFields{Rut: "1-9"})
	if err := failing.EnsureLoaded(ctx); !errors.Is(err, binding.ErrIncomplete) {
		t.Fatalf("failing: expected ErrIncomplete, got %v", err)
	}
}
