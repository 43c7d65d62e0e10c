package binding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-kardex/pkg/lookup"
)

// ErrIncomplete is returned when a movement form still lacks the patient's
// name or record after a lookup.
var ErrIncomplete = errors.New("binding: ingrese un RUT válido para completar automáticamente los datos antes de guardar")

// MovementSource resolves a movement from a RUT.
type MovementSource interface {
	MovementByRut(ctx context.Context, kind lookup.MovementKind, rut string) (*lookup.MovimientoDetalle, error)
}

// MovimientoFields are the controls of a recepción or traspaso form that a
// lookup fills.
type MovimientoFields struct {
	Rut           string `json:"rut"`
	Nombre        string `json:"nombre"`
	Ficha         string `json:"ficha"`
	ServicioEnvio string `json:"servicio_clinico_envio"`
	Servicio      string `json:"servicio_clinico"`
	Observacion   string `json:"observacion"`
}

// Complete reports whether the form carries what a submission needs.
func (f MovimientoFields) Complete() bool {
	return strings.TrimSpace(f.Rut) != "" &&
		strings.TrimSpace(f.Nombre) != "" &&
		strings.TrimSpace(f.Ficha) != ""
}

// Movimiento binds a recepción or traspaso form to its movement endpoint.
type Movimiento struct {
	source MovementSource
	kind   lookup.MovementKind
	logger zerolog.Logger

	mu     sync.Mutex
	fields MovimientoFields
}

// NewMovimiento binds a movement form of kind to source.
func NewMovimiento(source MovementSource, kind lookup.MovementKind, opts ...Option) *Movimiento {
	cfg := buildOptions(opts)
	return &Movimiento{source: source, kind: kind, logger: cfg.logger}
}

// Fields returns the current values.
func (m *Movimiento) Fields() MovimientoFields {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fields
}

// Set replaces the current values, as when a form is posted back.
func (m *Movimiento) Set(fields MovimientoFields) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = fields
}

// FillByRut looks the RUT up and fills the form. It reports whether a
// movement was found. An empty RUT or a miss clears the name and record but
// keeps any service the user picked.
func (m *Movimiento) FillByRut(ctx context.Context, rut string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fill(ctx, rut)
}

// EnsureLoaded makes sure the form is complete before it is submitted,
// looking the RUT up when needed.
func (m *Movimiento) EnsureLoaded(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fields.Complete() {
		return nil
	}
	if strings.TrimSpace(m.fields.Rut) == "" {
		return ErrIncomplete
	}
	if _, err := m.fill(ctx, m.fields.Rut); err != nil {
		return fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	if !m.fields.Complete() {
		return ErrIncomplete
	}
	return nil
}

func (m *Movimiento) fill(ctx context.Context, rut string) (bool, error) {
	rut = strings.TrimSpace(rut)
	m.fields.Rut = rut
	if rut == "" {
		m.clear()
		return false, nil
	}

	detalle, err := m.source.MovementByRut(ctx, m.kind, rut)
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		m.clear()
		return false, nil
	case err != nil:
		m.logger.Warn().Err(err).Str("kind", string(m.kind)).Str("rut", rut).Msg("movement lookup failed")
		return false, fmt.Errorf("binding: %s %s: %w", m.kind, rut, err)
	}

	p := detalle.Paciente()
	m.fields.Nombre = clean(p.NombreCompleto())
	if p.Rut != "" {
		m.fields.Rut = clean(p.Rut)
	}
	if n := detalle.Ficha.NumeroFichaSistema.String(); n != "" {
		m.fields.Ficha = n
	}
	if s := clean(detalle.Servicio("servicio_clinico_envio")); s != "" {
		m.fields.ServicioEnvio = s
	}
	if s := clean(detalle.Servicio(m.kind.ServicioKey())); s != "" {
		m.fields.Servicio = s
	}
	if detalle.Has(m.kind.ObservacionKey()) {
		m.fields.Observacion = clean(detalle.Field(m.kind.ObservacionKey()))
	}
	return true, nil
}

func (m *Movimiento) clear() {
	m.fields.Nombre = ""
	m.fields.Ficha = ""
}
