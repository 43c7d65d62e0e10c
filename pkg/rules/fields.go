package rules

import "sort"

// FieldID is the stable identifier of a patient form control.
type FieldID string

// Fields governed by the rule table.
const (
	Rut                    FieldID = "rut"
	NIE                    FieldID = "nie"
	Pasaporte              FieldID = "pasaporte"
	Ocupacion              FieldID = "ocupacion"
	NombrePareja           FieldID = "nombre_pareja"
	RutResponsableTemporal FieldID = "rut_responsable_temporal"
	UsarRutMadre           FieldID = "usar_rut_madre_como_responsable"
	RutMadre               FieldID = "rut_madre"
	FechaFallecimiento     FieldID = "fecha_fallecimiento"
	TelefonoPersonal       FieldID = "telefono_personal"
	Telefono2              FieldID = "telefono2"
)

// Flag controls. They are checkboxes on the form and the inputs of the table.
const (
	FlagRecienNacido FieldID = "recien_nacido"
	FlagExtranjero   FieldID = "extranjero"
	FlagFallecido    FieldID = "fallecido"
	FlagSinTelefono  FieldID = "sin_telefono"
)

// FieldState is the enabled/required pair of a single control. A disabled
// control is never required.
type FieldState struct {
	Enabled  bool `json:"enabled" yaml:"enabled"`
	Required bool `json:"required" yaml:"required"`
}

// Disabled reports the inverse of Enabled.
func (s FieldState) Disabled() bool {
	return !s.Enabled
}

// States maps every field the table governs to its computed state.
type States map[FieldID]FieldState

// Disabled lists the disabled fields, sorted.
func (s States) Disabled() []FieldID {
	return s.collect(func(state FieldState) bool { return !state.Enabled })
}

// Required lists the required fields, sorted.
func (s States) Required() []FieldID {
	return s.collect(func(state FieldState) bool { return state.Required })
}

// State returns the state of a field, defaulting to enabled and optional for
// fields the table does not know.
func (s States) State(id FieldID) FieldState {
	if state, ok := s[id]; ok {
		return state
	}
	return FieldState{Enabled: true}
}

func (s States) collect(keep func(FieldState) bool) []FieldID {
	out := make([]FieldID, 0, len(s))
	for id, state := range s {
		if keep(state) {
			out = append(out, id)
		}
	}
	sortFieldIDs(out)
	return out
}

func sortFieldIDs(ids []FieldID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
