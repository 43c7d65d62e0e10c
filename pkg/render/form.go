package render

import (
	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/schema"
)

// Field is the render view of one control.
type Field struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Kind     schema.Control `json:"kind"`
	Section  string         `json:"section,omitempty"`
	Value    string         `json:"value"`
	Checked  bool           `json:"checked"`
	Disabled bool           `json:"disabled"`
	Required bool           `json:"required"`
	Options  []string       `json:"options,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Focus    bool           `json:"focus,omitempty"`
}

// Section groups fields under a heading.
type Section struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Form is the render view of a form instance.
type Form struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	// Summary is an optional read-only panel rendered after the controls.
	Summary any `json:"summary,omitempty"`
}

// FromState builds the view of a form state.
func FromState(name string, state *form.State) Form {
	return FromControls(name, state.Controls())
}

// FromControls builds the view from a snapshot of controls.
func FromControls(name string, controls []form.Control) Form {
	fields := make([]Field, 0, len(controls))
	for _, c := range controls {
		fields = append(fields, Field{
			ID:       c.ID,
			Label:    c.Label,
			Kind:     c.Kind,
			Section:  c.Section,
			Value:    c.Value,
			Checked:  c.Checked,
			Disabled: c.Disabled,
			Required: c.Required,
			Options:  append([]string(nil), c.Options...),
		})
	}
	return Form{Name: name, Fields: fields}
}

// Sections groups the fields by section, in order of first appearance.
// Fields without a section land in a trailing unnamed group.
func (f Form) Sections() []Section {
	var (
		out   []Section
		index = make(map[string]int)
		loose []Field
	)
	for _, field := range f.Fields {
		if field.Section == "" {
			loose = append(loose, field)
			continue
		}
		i, ok := index[field.Section]
		if !ok {
			i = len(out)
			index[field.Section] = i
			out = append(out, Section{Name: field.Section})
		}
		out[i].Fields = append(out[i].Fields, field)
	}
	if len(loose) > 0 {
		out = append(out, Section{Fields: loose})
	}
	return out
}

// WithOptions returns a copy of f with the errors and focus of options
// attached to its fields.
func (f Form) WithOptions(options RenderOptions) Form {
	out := f
	out.Fields = make([]Field, len(f.Fields))
	for i, field := range f.Fields {
		field.Errors = normalizeMessages(options.Errors[field.ID])
		field.Focus = options.Focus != "" && options.Focus == field.ID
		out.Fields[i] = field
	}
	return out
}
