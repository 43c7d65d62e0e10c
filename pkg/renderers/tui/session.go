// Package tui fills the patient form from a terminal. Answers flow through a
// form.Controller, so fields the rules disable are skipped as soon as the flag
// that disables them is answered.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/rut"
	"github.com/goliatone/go-kardex/pkg/schema"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits the body a browser would post.
	OutputFormatFormURLEncoded OutputFormat = "form"
)

const (
	requiredMark = " *"
	// maxCorrections bounds how often a blocking violation is asked again.
	maxCorrections = 5
)

// rutFields hold RUT values and are checked with the modulo 11 digit.
var rutFields = map[string]struct{}{
	string(rules.Rut):                    {},
	string(rules.RutMadre):               {},
	string(rules.RutResponsableTemporal): {},
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(s *Session) {
		if format != "" {
			s.format = format
		}
	}
}

// Session walks the controls of one form.
type Session struct {
	ctrl   *form.Controller
	driver PromptDriver
	format OutputFormat
}

func New(ctrl *form.Controller, options ...Option) (*Session, error) {
	if ctrl == nil {
		return nil, errors.New("tui: controller is required")
	}
	s := &Session{ctrl: ctrl, format: OutputFormatJSON}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// ContentType reports the serialization format used by Run.
func (s *Session) ContentType() string {
	if s.format == OutputFormatFormURLEncoded {
		return "application/x-www-form-urlencoded"
	}
	return "application/json"
}

// Run prompts every enabled control in order, then repeats the prompt of the
// blocking submission violation until the form can be submitted. It returns
// the submitted values.
func (s *Session) Run(ctx context.Context) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}

	for _, initial := range s.ctrl.Snapshot() {
		if initial.Kind == schema.ControlHidden {
			continue
		}
		if err := s.prompt(ctx, initial.ID); err != nil {
			return nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		violations := s.ctrl.Violations()
		if len(violations) == 0 {
			break
		}
		v := violations[0]
		if attempt == maxCorrections {
			return nil, &v
		}
		if err := s.driver.Info(ctx, "! "+v.Message); err != nil {
			return nil, err
		}
		if err := s.prompt(ctx, string(v.Field)); err != nil {
			return nil, err
		}
	}

	return s.serialize(s.ctrl.Values())
}

// PromptFlags asks only the flag checkboxes and returns the resulting flags.
func (s *Session) PromptFlags(ctx context.Context) (rules.FlagSet, error) {
	for _, c := range s.ctrl.Snapshot() {
		if !isFlag(c.ID) {
			continue
		}
		if err := s.prompt(ctx, c.ID); err != nil {
			return rules.FlagSet{}, err
		}
	}
	return s.ctrl.Flags(), nil
}

// prompt asks for one control, reading its state fresh so that earlier
// answers have already applied the rules.
func (s *Session) prompt(ctx context.Context, id string) error {
	c, ok := current(s.ctrl, id)
	if !ok || c.Disabled {
		return nil
	}

	label := c.Label
	if c.Required {
		label += requiredMark
	}

	var value any
	switch c.Kind {
	case schema.ControlCheckbox:
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: c.Checked})
		if err != nil {
			return err
		}
		value = answer
	case schema.ControlSelect:
		options := append([]string{""}, c.Options...)
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: indexOf(options, c.Value),
		})
		if err != nil {
			return err
		}
		if idx < 0 {
			idx = 0
		}
		value = options[idx]
	default:
		answer, err := s.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   c.Value,
			Validator: validatorFor(c),
		})
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(answer)
		if _, ok := rutFields[c.ID]; ok && answer != "" {
			answer = rut.Format(answer)
		}
		value = answer
	}

	if _, err := s.ctrl.Change(c.ID, value); err != nil {
		return fmt.Errorf("tui: %s: %w", c.ID, err)
	}
	return nil
}

func (s *Session) serialize(values map[string]any) ([]byte, error) {
	if s.format == OutputFormatFormURLEncoded {
		form := url.Values{}
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			switch v := values[key].(type) {
			case bool:
				if v {
					form.Set(key, "on")
				}
			default:
				form.Set(key, fmt.Sprint(v))
			}
		}
		return []byte(form.Encode()), nil
	}
	out, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tui: encode values: %w", err)
	}
	return out, nil
}

// validatorFor checks formats only. Required fields are left to the
// submission checks, which know when one of two fields is enough.
func validatorFor(c form.Control) func(string) error {
	if _, ok := rutFields[c.ID]; ok {
		return func(v string) error {
			if strings.TrimSpace(v) == "" {
				return nil
			}
			if err := rut.Validate(v); err != nil {
				return errors.New("RUT inválido")
			}
			return nil
		}
	}
	if c.Kind == schema.ControlDate {
		return func(v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return nil
			}
			if _, err := time.Parse("2006-01-02", v); err != nil {
				return errors.New("use el formato AAAA-MM-DD")
			}
			return nil
		}
	}
	return nil
}

func current(ctrl *form.Controller, id string) (form.Control, bool) {
	for _, c := range ctrl.Snapshot() {
		if c.ID == id {
			return c, true
		}
	}
	return form.Control{}, false
}

func isFlag(id string) bool {
	switch rules.FieldID(id) {
	case rules.FlagRecienNacido, rules.FlagExtranjero, rules.FlagFallecido, rules.FlagSinTelefono:
		return true
	}
	return false
}
