// Package form holds the explicit state of the patient form and applies the
// rule engine's output to it.
package form

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/schema"
)

// Control is one input of the form.
type Control struct {
	ID       string         `json:"id"`
	Kind     schema.Control `json:"kind"`
	Label    string         `json:"label"`
	Section  string         `json:"section,omitempty"`
	Options  []string       `json:"options,omitempty"`
	Value    string         `json:"value"`
	Checked  bool           `json:"checked"`
	Disabled bool           `json:"disabled"`
	Required bool           `json:"required"`
}

// IsCheckbox reports whether the control carries Checked instead of Value.
func (c Control) IsCheckbox() bool {
	return c.Kind == schema.ControlCheckbox
}

// Empty reports whether the control holds no input.
func (c Control) Empty() bool {
	if c.IsCheckbox() {
		return !c.Checked
	}
	return strings.TrimSpace(c.Value) == ""
}

// Change records a transition produced by Apply.
type Change struct {
	Field rules.FieldID `json:"field"`
	// Before and After are the control states around the transition.
	Before rules.FieldState `json:"before"`
	After  rules.FieldState `json:"after"`
	// Cleared is set when disabling dropped a value or a check.
	Cleared bool `json:"cleared"`
}

// State is the ordered set of controls of one form instance. It is not safe
// for concurrent use; Controller adds locking.
type State struct {
	controls []Control
	index    map[string]int
}

// NewState builds an empty form from catalogue fields. Every control starts
// enabled and optional.
func NewState(fields []schema.Field) *State {
	s := &State{
		controls: make([]Control, 0, len(fields)),
		index:    make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		s.index[f.ID] = len(s.controls)
		s.controls = append(s.controls, Control{
			ID:      f.ID,
			Kind:    f.Control,
			Label:   f.Label,
			Section: f.Section,
			Options: append([]string(nil), f.Options...),
		})
	}
	return s
}

// Controls returns a copy of the controls in display order.
func (s *State) Controls() []Control {
	out := make([]Control, len(s.controls))
	copy(out, s.controls)
	return out
}

// Control returns a copy of a single control.
func (s *State) Control(id string) (Control, bool) {
	i, ok := s.index[id]
	if !ok {
		return Control{}, false
	}
	return s.controls[i], true
}

// Text implements rules.Values.
func (s *State) Text(id rules.FieldID) string {
	c, _ := s.Control(string(id))
	return c.Value
}

// Checked implements rules.Values.
func (s *State) Checked(id rules.FieldID) bool {
	c, _ := s.Control(string(id))
	return c.Checked
}

// Flags reads the four flag checkboxes as they are now.
func (s *State) Flags() rules.FlagSet {
	return rules.FlagSet{
		RecienNacido: s.Checked(rules.FlagRecienNacido),
		Extranjero:   s.Checked(rules.FlagExtranjero),
		Fallecido:    s.Checked(rules.FlagFallecido),
		SinTelefono:  s.Checked(rules.FlagSinTelefono),
	}
}

// SetValue writes a text value. Checkbox controls interpret the value as a
// boolean ("on", "true", "1"). Programmatic writes reach disabled controls
// too; the next Apply clears them again.
func (s *State) SetValue(id, value string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("form: unknown control %q", id)
	}
	c := &s.controls[i]
	if c.IsCheckbox() {
		c.Checked = rules.MapValues{"v": value}.Checked("v")
		return nil
	}
	c.Value = value
	return nil
}

// SetChecked toggles a checkbox control.
func (s *State) SetChecked(id string, checked bool) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("form: unknown control %q", id)
	}
	c := &s.controls[i]
	if !c.IsCheckbox() {
		return fmt.Errorf("form: control %q is not a checkbox", id)
	}
	c.Checked = checked
	return nil
}

// Apply sets enabled and required on every field present in states. A field
// going disabled loses its value and its required mark in the same step.
// Fields absent from the form are skipped.
func (s *State) Apply(states rules.States) []Change {
	var changes []Change
	for _, id := range orderedIDs(states, s) {
		i := s.index[string(id)]
		c := &s.controls[i]
		want := states[id]
		before := rules.FieldState{Enabled: !c.Disabled, Required: c.Required}

		cleared := false
		if !want.Enabled {
			cleared = !c.Empty()
			c.Value = ""
			c.Checked = false
			want.Required = false
		}
		c.Disabled = !want.Enabled
		c.Required = want.Required

		if before != want || cleared {
			changes = append(changes, Change{Field: id, Before: before, After: want, Cleared: cleared})
		}
	}
	return changes
}

// Reset clears every value and check except for the kept controls. Enabled
// and required marks are left for the next Apply.
func (s *State) Reset(keep ...string) {
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	for i := range s.controls {
		if _, ok := kept[s.controls[i].ID]; ok {
			continue
		}
		s.controls[i].Value = ""
		s.controls[i].Checked = false
	}
}

// Values returns the current input as a plain map: strings for text controls
// and bools for checkboxes. Disabled controls are omitted, as a browser does
// not submit them.
func (s *State) Values() map[string]any {
	out := make(map[string]any, len(s.controls))
	for _, c := range s.controls {
		if c.Disabled {
			continue
		}
		if c.IsCheckbox() {
			out[c.ID] = c.Checked
			continue
		}
		out[c.ID] = c.Value
	}
	return out
}

// Load writes every known key of values into the form, ignoring unknown keys.
// It does not re-run the rules.
func (s *State) Load(values map[string]any) {
	for _, c := range s.controls {
		raw, ok := values[c.ID]
		if !ok {
			continue
		}
		if c.IsCheckbox() {
			_ = s.SetChecked(c.ID, rules.MapValues{c.ID: raw}.Checked(rules.FieldID(c.ID)))
			continue
		}
		_ = s.SetValue(c.ID, rules.MapValues{c.ID: raw}.Text(rules.FieldID(c.ID)))
	}
}

func orderedIDs(states rules.States, s *State) []rules.FieldID {
	out := make([]rules.FieldID, 0, len(states))
	for _, c := range s.controls {
		if _, ok := states[rules.FieldID(c.ID)]; ok {
			out = append(out, rules.FieldID(c.ID))
		}
	}
	return out
}
