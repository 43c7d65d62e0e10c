// Package schema loads the patient form field catalogue from the embedded
// OpenAPI document. Each property of the PacienteForm schema becomes a Field;
// presentation hints live under the x-kardex extension.
package schema

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed paciente.openapi.yaml
var defaultDocument []byte

const (
	// FormSchema is the component holding the patient form properties.
	FormSchema = "PacienteForm"

	extensionKey = "x-kardex"
)

// Control is the kind of input a field renders as.
type Control string

const (
	ControlText     Control = "text"
	ControlDate     Control = "date"
	ControlCheckbox Control = "checkbox"
	ControlSelect   Control = "select"
	ControlHidden   Control = "hidden"
)

// Field describes one control of the patient form.
type Field struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Control   Control  `json:"control"`
	Section   string   `json:"section,omitempty"`
	Order     int      `json:"order"`
	Format    string   `json:"format,omitempty"`
	Options   []string `json:"options,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	// Flag marks the four checkboxes the rule engine reads.
	Flag bool `json:"flag,omitempty"`
	// Trigger marks controls whose change re-runs the rules without being a flag.
	Trigger bool `json:"trigger,omitempty"`
}

// Catalogue is the ordered set of form fields plus the document they came from.
type Catalogue struct {
	doc    *openapi3.T
	raw    []byte
	fields []Field
	index  map[string]int
}

// Load parses and validates an OpenAPI document and extracts the form fields.
func Load(ctx context.Context, raw []byte) (*Catalogue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("schema: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("schema: validate: %w", err)
	}

	if doc.Components == nil || doc.Components.Schemas == nil {
		return nil, fmt.Errorf("schema: components.schemas.%s not found", FormSchema)
	}
	ref := doc.Components.Schemas[FormSchema]
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("schema: components.schemas.%s not found", FormSchema)
	}

	fields := make([]Field, 0, len(ref.Value.Properties))
	for name, property := range ref.Value.Properties {
		field, err := convertField(name, property)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Order != fields[j].Order {
			return fields[i].Order < fields[j].Order
		}
		return fields[i].ID < fields[j].ID
	})

	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.ID] = i
	}

	return &Catalogue{
		doc:    doc,
		raw:    append([]byte(nil), raw...),
		fields: fields,
		index:  index,
	}, nil
}

// Default loads the embedded patient document. The document ships with the
// binary and is covered by tests, so failing here is a build defect.
func Default() *Catalogue {
	cat, err := Load(context.Background(), defaultDocument)
	if err != nil {
		panic(err)
	}
	return cat
}

// Fields returns the fields ordered for display.
func (c *Catalogue) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

// Field looks up a field by id.
func (c *Catalogue) Field(id string) (Field, bool) {
	i, ok := c.index[id]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Sections lists section names in the order their first field appears.
func (c *Catalogue) Sections() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range c.fields {
		if f.Section == "" {
			continue
		}
		if _, ok := seen[f.Section]; ok {
			continue
		}
		seen[f.Section] = struct{}{}
		out = append(out, f.Section)
	}
	return out
}

// Flags returns the ids of the flag checkboxes.
func (c *Catalogue) Flags() []string {
	var out []string
	for _, f := range c.fields {
		if f.Flag {
			out = append(out, f.ID)
		}
	}
	return out
}

// Document exposes the parsed OpenAPI document.
func (c *Catalogue) Document() *openapi3.T {
	return c.doc
}

// Raw returns the document bytes as loaded.
func (c *Catalogue) Raw() []byte {
	return append([]byte(nil), c.raw...)
}

func convertField(name string, ref *openapi3.SchemaRef) (Field, error) {
	field := Field{ID: name, Label: name}
	if ref == nil || ref.Value == nil {
		return field, fmt.Errorf("schema: property %q has no schema", name)
	}
	src := ref.Value
	field.Format = src.Format
	if src.MaxLength != nil {
		field.MaxLength = int(*src.MaxLength)
	}
	for _, v := range src.Enum {
		if s, ok := v.(string); ok {
			field.Options = append(field.Options, s)
		}
	}

	ext, _ := src.Extensions[extensionKey].(map[string]any)
	if label, ok := ext["label"].(string); ok && strings.TrimSpace(label) != "" {
		field.Label = label
	}
	if section, ok := ext["section"].(string); ok {
		field.Section = section
	}
	switch order := ext["order"].(type) {
	case float64:
		field.Order = int(order)
	case int:
		field.Order = order
	}
	field.Flag, _ = ext["flag"].(bool)
	field.Trigger, _ = ext["trigger"].(bool)

	if control, ok := ext["control"].(string); ok && control != "" {
		field.Control = Control(control)
	} else {
		field.Control = inferControl(src)
	}
	switch field.Control {
	case ControlText, ControlDate, ControlCheckbox, ControlSelect, ControlHidden:
	default:
		return field, fmt.Errorf("schema: property %q: unknown control %q", name, field.Control)
	}
	if field.Flag && field.Control != ControlCheckbox {
		return field, fmt.Errorf("schema: property %q: flags must be checkboxes", name)
	}
	return field, nil
}

func inferControl(src *openapi3.Schema) Control {
	switch {
	case src.Type != nil && src.Type.Is(openapi3.TypeBoolean):
		return ControlCheckbox
	case src.Format == "date":
		return ControlDate
	case len(src.Enum) > 0:
		return ControlSelect
	default:
		return ControlText
	}
}
