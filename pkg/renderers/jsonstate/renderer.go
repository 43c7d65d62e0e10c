// Package jsonstate renders the computed state of a form as JSON for
// clients that apply enabled/required flags themselves.
package jsonstate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/schema"
)

// FieldState is the per-control entry of the payload.
type FieldState struct {
	Enabled  bool     `json:"enabled"`
	Required bool     `json:"required"`
	Value    any      `json:"value"`
	Errors   []string `json:"errors,omitempty"`
}

// Payload is the document Render produces.
type Payload struct {
	Form       string                `json:"form,omitempty"`
	Fields     map[string]FieldState `json:"fields"`
	FormErrors []string              `json:"form_errors,omitempty"`
	Focus      string                `json:"focus,omitempty"`
	Summary    any                   `json:"summary,omitempty"`
}

type Renderer struct {
	indent bool
}

var _ render.Renderer = (*Renderer)(nil)

// Option configures the renderer.
type Option func(*Renderer)

// WithIndent pretty prints the output.
func WithIndent() Option {
	return func(r *Renderer) {
		r.indent = true
	}
}

func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return "json"
}

func (r *Renderer) ContentType() string {
	return "application/json"
}

func (r *Renderer) Render(_ context.Context, form render.Form, options render.RenderOptions) ([]byte, error) {
	payload := Build(form, options)

	var (
		out []byte
		err error
	)
	if r.indent {
		out, err = json.MarshalIndent(payload, "", "  ")
	} else {
		out, err = json.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("jsonstate: encode: %w", err)
	}
	return out, nil
}

// Build assembles the payload. Checkbox values are booleans; every other
// control carries its text value.
func Build(form render.Form, options render.RenderOptions) Payload {
	view := form.WithOptions(options)
	payload := Payload{
		Form:       form.Name,
		Fields:     make(map[string]FieldState, len(view.Fields)),
		FormErrors: render.MergeFormErrors(nil, options.FormErrors...),
		Focus:      options.Focus,
		Summary:    form.Summary,
	}
	for _, field := range view.Fields {
		var value any = field.Value
		if field.Kind == schema.ControlCheckbox {
			value = field.Checked
		}
		payload.Fields[field.ID] = FieldState{
			Enabled:  !field.Disabled,
			Required: field.Required,
			Value:    value,
			Errors:   field.Errors,
		}
	}
	return payload
}
