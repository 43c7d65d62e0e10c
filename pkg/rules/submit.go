package rules

import (
	"fmt"
	"strings"
)

// Values gives the submission checks read access to the form.
type Values interface {
	Text(id FieldID) string
	Checked(id FieldID) bool
}

// Violation is a failed submission check. Field is the control that should
// receive focus.
type Violation struct {
	Field   FieldID `json:"field"`
	Message string  `json:"message"`
}

func (v *Violation) Error() string {
	return fmt.Sprintf("rules: %s: %s", v.Field, v.Message)
}

// Messages shown when a submission is blocked.
const (
	MsgFechaFallecimiento  = "Debe ingresar la fecha de fallecimiento."
	MsgResponsableFaltante = `Debe ingresar RUT responsable temporal o activar "Usar RUT de la madre como responsable".`
	MsgResponsableDoble    = `Ingrese RUT responsable temporal o active "Usar RUT de la madre como responsable", no ambos.`
	MsgDocumentoExtranjero = "Para pacientes extranjeros, debe ingresar al menos NIP o Pasaporte."
	MsgRutObligatorio      = "El campo RUT es obligatorio para pacientes estándar."
)

// Check runs the cross-field submission checks in order and returns every
// failure. The first entry is the one that blocks the submission.
func (e *Engine) Check(flags FlagSet, values Values) []Violation {
	var out []Violation

	if flags.Fallecido && blank(values.Text(FechaFallecimiento)) {
		out = append(out, Violation{Field: FechaFallecimiento, Message: MsgFechaFallecimiento})
	}

	if flags.RecienNacido {
		hasTemp := !blank(values.Text(RutResponsableTemporal))
		useMadre := values.Checked(UsarRutMadre)
		switch {
		case !hasTemp && !useMadre:
			out = append(out, Violation{Field: RutResponsableTemporal, Message: MsgResponsableFaltante})
		case hasTemp && useMadre:
			out = append(out, Violation{Field: RutResponsableTemporal, Message: MsgResponsableDoble})
		}
	}

	if flags.Extranjero && !flags.RecienNacido {
		if blank(values.Text(NIE)) && blank(values.Text(Pasaporte)) {
			out = append(out, Violation{Field: NIE, Message: MsgDocumentoExtranjero})
		}
	}

	if flags.None() && blank(values.Text(Rut)) {
		out = append(out, Violation{Field: Rut, Message: MsgRutObligatorio})
	}

	return out
}

// Validate returns the blocking violation, or nil when the form may be
// submitted.
func (e *Engine) Validate(flags FlagSet, values Values) error {
	violations := e.Check(flags, values)
	if len(violations) == 0 {
		return nil
	}
	v := violations[0]
	return &v
}

// MapValues adapts a plain map of submitted values to Values.
type MapValues map[string]any

func (m MapValues) Text(id FieldID) string {
	switch v := m[string(id)].(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[len(v)-1]
	default:
		return fmt.Sprint(v)
	}
}

func (m MapValues) Checked(id FieldID) bool {
	return truthy(m[string(id)])
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
