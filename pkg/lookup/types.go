package lookup

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text decodes a JSON string, number or null into a string. The clinic API is
// not consistent about ids and record numbers.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = Text(data)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(n.String())
		return nil
	}
}

func (t Text) String() string { return string(t) }

// Paciente is the patient block of the ficha-paciente answer.
type Paciente struct {
	ID                          Text   `json:"id"`
	Codigo                      Text   `json:"codigo"`
	Rut                         string `json:"rut"`
	Nip                         string `json:"nip"`
	Pasaporte                   string `json:"pasaporte"`
	Nombre                      string `json:"nombre"`
	ApellidoPaterno             string `json:"apellido_paterno"`
	ApellidoMaterno             string `json:"apellido_materno"`
	NombreSocial                string `json:"nombre_social"`
	Genero                      string `json:"genero"`
	Sexo                        string `json:"sexo"`
	EstadoCivil                 string `json:"estado_civil"`
	FechaNacimiento             string `json:"fecha_nacimiento"`
	PuebloIndigena              bool   `json:"pueblo_indigena"`
	RecienNacido                bool   `json:"recien_nacido"`
	Extranjero                  bool   `json:"extranjero"`
	Fallecido                   bool   `json:"fallecido"`
	SinTelefono                 bool   `json:"sin_telefono"`
	FechaFallecimiento          string `json:"fecha_fallecimiento"`
	RutMadre                    string `json:"rut_madre"`
	NombresMadre                string `json:"nombres_madre"`
	NombresPadre                string `json:"nombres_padre"`
	NombrePareja                string `json:"nombre_pareja"`
	RepresentanteLegal          string `json:"representante_legal"`
	RutResponsableTemporal      string `json:"rut_responsable_temporal"`
	UsarRutMadreComoResponsable bool   `json:"usar_rut_madre_como_responsable"`
	Direccion                   string `json:"direccion"`
	Ocupacion                   string `json:"ocupacion"`
	NumeroTelefono1             string `json:"numero_telefono1"`
	NumeroTelefono2             string `json:"numero_telefono2"`
	AlergicoA                   string `json:"alergico_a"`
	Comuna                      string `json:"comuna"`
	Prevision                   string `json:"prevision"`
	UsuarioCreador              string `json:"usuario_creador"`
	UsuarioAnterior             string `json:"usuario_anterior"`
}

// Key returns the patient's id, falling back to its code.
func (p Paciente) Key() string {
	if p.ID != "" {
		return p.ID.String()
	}
	return p.Codigo.String()
}

// NombreCompleto joins the given names and both surnames.
func (p Paciente) NombreCompleto() string {
	return strings.Join(strings.Fields(strings.Join([]string{p.Nombre, p.ApellidoPaterno, p.ApellidoMaterno}, " ")), " ")
}

// Movimiento is one transfer of a physical record.
type Movimiento struct {
	FechaEnvio        string `json:"fecha_envio"`
	Origen            string `json:"origen"`
	Destino           string `json:"destino"`
	Observacion       string `json:"observacion"`
	Profesional       Text   `json:"profesional"`
	ProfesionalNombre string `json:"profesional_nombre"`
}

// Responsable returns the professional's display name.
func (m Movimiento) Responsable() string {
	if m.ProfesionalNombre != "" {
		return m.ProfesionalNombre
	}
	return m.Profesional.String()
}

// FichaRef is a short reference to another record of the same patient.
type FichaRef struct {
	NumeroFichaSistema Text   `json:"numero_ficha_sistema"`
	Establecimiento    string `json:"establecimiento"`
}

// Ficha is a patient record.
type Ficha struct {
	ID                    Text         `json:"id"`
	NumeroFichaSistema    Text         `json:"numero_ficha_sistema"`
	NumeroFichaTarjeta    Text         `json:"numero_ficha_tarjeta"`
	NumeroFicha           Text         `json:"numero_ficha"`
	Pasivado              bool         `json:"pasivado"`
	Observacion           string       `json:"observacion"`
	FechaCreacion         string       `json:"fecha_creacion"`
	FechaModificacion     string       `json:"fecha_modificacion"`
	FechaCreacionAnterior string       `json:"fecha_creacion_anterior"`
	Usuario               string       `json:"usuario"`
	Establecimiento       string       `json:"establecimiento"`
	Sector                string       `json:"sector"`
	Movimientos           []Movimiento `json:"movimientos"`
	OtrasFichas           []FichaRef   `json:"otras_fichas"`
	Paciente              *Paciente    `json:"paciente"`
}

// Numero returns the system record number, falling back to the other numbering
// fields and finally the id.
func (f Ficha) Numero() string {
	for _, v := range []Text{f.NumeroFichaSistema, f.NumeroFicha, f.ID} {
		if v != "" {
			return v.String()
		}
	}
	return ""
}

// FechaReferencia is the creation date shown to users: the migrated date when
// present, otherwise the record's own.
func (f Ficha) FechaReferencia() string {
	if f.FechaCreacionAnterior != "" {
		return f.FechaCreacionAnterior
	}
	return f.FechaCreacion
}

// FichaPaciente is the answer of the ficha-paciente endpoint.
type FichaPaciente struct {
	Paciente    *Paciente  `json:"paciente"`
	Ficha       *Ficha     `json:"ficha"`
	OtrasFichas []FichaRef `json:"otras_fichas"`
}

// Otras lists the patient's other records, accepting them either at the top
// level or nested in the ficha, and dropping the current one.
func (fp FichaPaciente) Otras() []FichaRef {
	refs := fp.OtrasFichas
	if len(refs) == 0 && fp.Ficha != nil {
		refs = fp.Ficha.OtrasFichas
	}
	current := ""
	if fp.Ficha != nil {
		current = fp.Ficha.NumeroFichaSistema.String()
	}
	out := make([]FichaRef, 0, len(refs))
	for _, r := range refs {
		if current != "" && r.NumeroFichaSistema.String() == current {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SearchResult is one hit of a select2 style search.
type SearchResult struct {
	ID                 Text   `json:"id"`
	Text               string `json:"text"`
	Rut                string `json:"rut"`
	NumeroFichaSistema Text   `json:"numero_ficha_sistema"`
	NumeroFicha        Text   `json:"numero_ficha"`
}

// FichaLabel is the picker label for a record hit.
func (r SearchResult) FichaLabel() string {
	for _, v := range []Text{r.NumeroFichaSistema, r.NumeroFicha, r.ID} {
		if v != "" {
			return "Ficha: " + v.String()
		}
	}
	return "Ficha"
}

// MovimientoDetalle is the detail of a recepción or traspaso movement. Service
// fields vary by endpoint, so the raw payload is kept for Servicio and Field.
type MovimientoDetalle struct {
	ID    Text  `json:"id"`
	Ficha Ficha `json:"ficha"`

	raw map[string]json.RawMessage
}

func (m *MovimientoDetalle) UnmarshalJSON(data []byte) error {
	type plain MovimientoDetalle
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MovimientoDetalle(p)
	m.raw = raw
	return nil
}

// Paciente returns the patient nested in the movement's record.
func (m MovimientoDetalle) Paciente() Paciente {
	if m.Ficha.Paciente == nil {
		return Paciente{}
	}
	return *m.Ficha.Paciente
}

// Field returns a top-level string or number field of the payload.
func (m MovimientoDetalle) Field(key string) string {
	msg, ok := m.raw[key]
	if !ok {
		return ""
	}
	var t Text
	if err := json.Unmarshal(msg, &t); err != nil {
		return ""
	}
	return t.String()
}

// Has reports whether the payload carries key at all.
func (m MovimientoDetalle) Has(key string) bool {
	_, ok := m.raw[key]
	return ok
}

// Servicio resolves a service name for prefix (for example
// "servicio_clinico_recepcion"): the _nombre, _text, _label and _name
// variants first, then the field itself as a string or as an object with a
// nombre.
func (m MovimientoDetalle) Servicio(prefix string) string {
	for _, suffix := range []string{"_nombre", "_text", "_label", "_name"} {
		if v := m.Field(prefix + suffix); v != "" {
			return v
		}
	}
	msg, ok := m.raw[prefix]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	var obj struct {
		Nombre string `json:"nombre"`
	}
	if err := json.Unmarshal(msg, &obj); err == nil {
		return obj.Nombre
	}
	return ""
}

// Choice is an id/label pair for pickers.
type Choice struct {
	ID   Text   `json:"id"`
	Text string `json:"text"`
}

// AutoCreateResult is the answer of the auto-create endpoint.
type AutoCreateResult struct {
	RedirectURL string `json:"redirect_url"`
	Message     string `json:"message"`
	Ficha       Text   `json:"ficha_id"`
}

// decodeResults accepts {"results": [...]} or a bare array.
func decodeResults[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
