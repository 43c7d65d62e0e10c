// Package binding fills forms from lookup answers.
package binding

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/lookup"
	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/rut"
)

var (
	// ErrUnchanged is returned when the RUT equals the last one consulted.
	ErrUnchanged = errors.New("binding: rut already consulted")
	// ErrEmptyRut is returned when there is nothing to look up.
	ErrEmptyRut = errors.New("binding: rut is empty")
)

const (
	sinEstablecimiento = "SIN ESTABLECIMIENTO"
	sinInformacion     = "SIN INFORMACIÓN"
)

// PacienteSource fetches a patient and its records by RUT.
type PacienteSource interface {
	FichaPaciente(ctx context.Context, rut string) (*lookup.FichaPaciente, error)
}

var (
	_ PacienteSource = (*lookup.Client)(nil)
	_ MovementSource = (*lookup.Client)(nil)
)

// FichaRow is one line of the patient's record table.
type FichaRow struct {
	Establecimiento string `json:"establecimiento"`
	Numero          string `json:"numero"`
	Actual          bool   `json:"actual"`
}

// Ubicacion is where the physical record was last sent.
type Ubicacion struct {
	Servicio    string `json:"servicio"`
	Profesional string `json:"profesional"`
	FechaEnvio  string `json:"fecha_envio"`
}

// Summary holds the read-only panels shown next to the patient form.
type Summary struct {
	Rut             string     `json:"rut"`
	PacienteID      string     `json:"paciente_id"`
	Ficha           string     `json:"ficha,omitempty"`
	Observacion     string     `json:"observacion,omitempty"`
	FechaCreacion   string     `json:"fecha_creacion"`
	UsuarioAnterior string     `json:"usuario_anterior"`
	Fichas          []FichaRow `json:"fichas"`
	Ubicacion       Ubicacion  `json:"ubicacion"`
}

// Option configures a binder.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	cfg := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Paciente binds the patient form to the ficha-paciente lookup.
type Paciente struct {
	source PacienteSource
	ctrl   *form.Controller
	last   lookup.LastQuery
	busy   sync.Mutex
	logger zerolog.Logger
}

// NewPaciente binds ctrl to source.
func NewPaciente(source PacienteSource, ctrl *form.Controller, opts ...Option) *Paciente {
	cfg := buildOptions(opts)
	return &Paciente{source: source, ctrl: ctrl, logger: cfg.logger}
}

// Load formats raw into the RUT control and, unless it is the RUT consulted
// last, looks the patient up and fills the form. A RUT with a wrong check
// digit returns rut.ErrInvalid and leaves the form untouched. The form is cleared except
// for the RUT first, and the rules run once the values are in. A failed lookup
// leaves the cleared form and lets the same RUT be consulted again.
func (b *Paciente) Load(ctx context.Context, raw string) (*Summary, error) {
	formatted := rut.Format(raw)
	if formatted == "" {
		return nil, ErrEmptyRut
	}
	if err := rut.Validate(formatted); err != nil {
		return nil, fmt.Errorf("binding: paciente %q: %w", raw, err)
	}

	b.busy.Lock()
	defer b.busy.Unlock()

	b.ctrl.Update(func(s *form.State) {
		_ = s.SetValue(string(rules.Rut), formatted)
	})
	if !b.last.Begin(formatted) {
		return nil, ErrUnchanged
	}

	found, err := b.source.FichaPaciente(ctx, formatted)
	if err != nil {
		b.ctrl.Reset(string(rules.Rut))
		b.last.Forget()
		b.logger.Info().Err(err).Str("rut", formatted).Msg("paciente lookup failed")
		return nil, fmt.Errorf("binding: paciente %s: %w", formatted, err)
	}

	values := pacienteValues(found.Paciente)
	b.ctrl.Update(func(s *form.State) {
		s.Reset(string(rules.Rut))
		s.Load(values)
	})

	summary := buildSummary(formatted, found)
	b.logger.Debug().Str("rut", formatted).Str("ficha", summary.Ficha).Msg("paciente bound")
	return summary, nil
}

// Reload forgets the last RUT and loads raw again.
func (b *Paciente) Reload(ctx context.Context, raw string) (*Summary, error) {
	b.last.Forget()
	return b.Load(ctx, raw)
}

func pacienteValues(p *lookup.Paciente) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return map[string]any{
		"paciente_id":                     p.Key(),
		"nombre":                          clean(p.Nombre),
		"apellido_paterno":                clean(p.ApellidoPaterno),
		"apellido_materno":                clean(p.ApellidoMaterno),
		"nombre_social":                   clean(p.NombreSocial),
		"pasaporte":                       clean(p.Pasaporte),
		"nie":                             clean(p.Nip),
		"fecha_nacimiento":                datePart(p.FechaNacimiento),
		"sexo":                            clean(p.Sexo),
		"estado_civil":                    clean(p.EstadoCivil),
		"recien_nacido":                   p.RecienNacido,
		"extranjero":                      p.Extranjero,
		"pueblo_indigena":                 p.PuebloIndigena,
		"fallecido":                       p.Fallecido,
		"fecha_fallecimiento":             datePart(p.FechaFallecimiento),
		"rut_madre":                       clean(p.RutMadre),
		"nombres_madre":                   clean(p.NombresMadre),
		"nombres_padre":                   clean(p.NombresPadre),
		"nombre_pareja":                   clean(p.NombrePareja),
		"representante_legal":             clean(p.RepresentanteLegal),
		"rut_responsable_temporal":        clean(p.RutResponsableTemporal),
		"usar_rut_madre_como_responsable": p.UsarRutMadreComoResponsable,
		"direccion":                       clean(p.Direccion),
		"ocupacion":                       clean(p.Ocupacion),
		"sin_telefono":                    p.SinTelefono,
		"telefono_personal":               clean(p.NumeroTelefono1),
		"telefono2":                       clean(p.NumeroTelefono2),
	}
}

func buildSummary(formatted string, found *lookup.FichaPaciente) *Summary {
	s := &Summary{
		Rut:             formatted,
		FechaCreacion:   form.NoDate,
		UsuarioAnterior: form.NoDate,
		Ubicacion: Ubicacion{
			Servicio:    sinInformacion,
			Profesional: sinInformacion,
			FechaEnvio:  form.NoDate,
		},
	}
	if p := found.Paciente; p != nil {
		s.PacienteID = p.Key()
		if u := clean(p.UsuarioAnterior); u != "" {
			s.UsuarioAnterior = u
		}
	}

	if f := found.Ficha; f != nil {
		s.Ficha = f.NumeroFichaSistema.String()
		s.Observacion = clean(f.Observacion)
		s.FechaCreacion = form.FormatFechaHora(f.FechaReferencia())
		if s.Ficha != "" {
			s.Fichas = append(s.Fichas, FichaRow{
				Establecimiento: establecimiento(f.Establecimiento),
				Numero:          s.Ficha,
				Actual:          true,
			})
		}
		if len(f.Movimientos) > 0 {
			m := f.Movimientos[0]
			s.Ubicacion = Ubicacion{
				Servicio:    clean(m.Destino),
				Profesional: clean(m.Responsable()),
				FechaEnvio:  form.FormatFechaHora(m.FechaEnvio),
			}
		}
	}
	for _, ref := range found.Otras() {
		s.Fichas = append(s.Fichas, FichaRow{
			Establecimiento: establecimiento(ref.Establecimiento),
			Numero:          ref.NumeroFichaSistema.String(),
		})
	}
	return s
}

func establecimiento(name string) string {
	if n := clean(name); n != "" {
		return n
	}
	return sinEstablecimiento
}

var policy = bluemonday.StrictPolicy()

// clean strips markup from a lookup string. bluemonday escapes what it keeps,
// so the result is unescaped back to plain text for the renderers to escape.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// datePart keeps the yyyy-mm-dd prefix of a timestamp.
func datePart(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}
