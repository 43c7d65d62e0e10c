package form

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/schema"
)

// ErrDisabled is returned when input targets a disabled control.
var ErrDisabled = errors.New("form: control is disabled")

// Event is delivered to subscribers after the rules ran.
type Event struct {
	// Trigger is the control whose change caused the run, empty for loads and
	// refreshes.
	Trigger string
	Flags   rules.FlagSet
	Changes []Change
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger attaches a logger for rule runs.
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTriggers replaces the set of controls whose change re-runs the rules.
func WithTriggers(ids ...string) ControllerOption {
	return func(c *Controller) {
		c.triggers = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			c.triggers[id] = struct{}{}
		}
	}
}

// DefaultTriggers are the flag checkboxes plus the "use mother's RUT" box.
func DefaultTriggers() []string {
	return []string{
		string(rules.FlagRecienNacido),
		string(rules.FlagExtranjero),
		string(rules.FlagFallecido),
		string(rules.FlagSinTelefono),
		string(rules.UsarRutMadre),
	}
}

// TriggersFromCatalogue derives triggers from the catalogue's flag and
// trigger marks.
func TriggersFromCatalogue(cat *schema.Catalogue) []string {
	var out []string
	for _, f := range cat.Fields() {
		if f.Flag || f.Trigger {
			out = append(out, f.ID)
		}
	}
	return out
}

// Controller binds a State to an Engine: the rules run once on construction
// and again whenever a trigger control changes. It is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	engine   *rules.Engine
	state    *State
	triggers map[string]struct{}
	subs     []subscriber
	nextSub  int
	logger   zerolog.Logger
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewController wires state to engine and applies the rules for the form's
// initial flags.
func NewController(engine *rules.Engine, state *State, options ...ControllerOption) *Controller {
	c := &Controller{
		engine: engine,
		state:  state,
		logger: zerolog.Nop(),
	}
	WithTriggers(DefaultTriggers()...)(c)
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	c.mu.Lock()
	c.run("")
	c.mu.Unlock()
	return c
}

// Subscribe registers fn for every rule run. Subscribers are notified in the
// order they subscribed. The returned func removes fn.
// Callbacks run with the controller locked and must not call back into it.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.subs = slices.DeleteFunc(c.subs, func(s subscriber) bool { return s.id == id })
	}
}

// Change applies user input to one control. value may be a string or a bool.
// Changing a trigger re-runs the rules and returns the resulting transitions.
func (c *Controller) Change(id string, value any) ([]Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctrl, ok := c.state.Control(id)
	if !ok {
		return nil, fmt.Errorf("form: unknown control %q", id)
	}
	if ctrl.Disabled {
		return nil, fmt.Errorf("%w: %s", ErrDisabled, id)
	}

	var err error
	if ctrl.IsCheckbox() {
		err = c.state.SetChecked(id, rules.MapValues{id: value}.Checked(rules.FieldID(id)))
	} else {
		err = c.state.SetValue(id, rules.MapValues{id: value}.Text(rules.FieldID(id)))
	}
	if err != nil {
		return nil, err
	}

	if _, trigger := c.triggers[id]; !trigger {
		return nil, nil
	}
	return c.run(id), nil
}

// Refresh re-runs the rules from the current flags.
func (c *Controller) Refresh() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run("")
}

// Load writes values into the form and re-runs the rules.
func (c *Controller) Load(values map[string]any) []Change {
	return c.Update(func(s *State) { s.Load(values) })
}

// Reset clears the form except for the kept controls and re-runs the rules.
func (c *Controller) Reset(keep ...string) []Change {
	return c.Update(func(s *State) { s.Reset(keep...) })
}

// Update mutates the state under the lock and re-runs the rules afterwards.
func (c *Controller) Update(fn func(*State)) []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
	return c.run("")
}

// Submit runs the submission checks against the current state. It returns a
// *rules.Violation when the submission must be blocked.
func (c *Controller) Submit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Validate(c.state.Flags(), c.state)
}

// Violations returns every failed submission check in evaluation order.
func (c *Controller) Violations() []rules.Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Check(c.state.Flags(), c.state)
}

// Flags reads the current flags.
func (c *Controller) Flags() rules.FlagSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Flags()
}

// Snapshot returns a copy of the controls.
func (c *Controller) Snapshot() []Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Controls()
}

// Values returns the submittable values.
func (c *Controller) Values() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Values()
}

func (c *Controller) run(trigger string) []Change {
	flags := c.state.Flags()
	changes := c.state.Apply(c.engine.Compute(flags))

	c.logger.Debug().
		Str("trigger", trigger).
		Stringer("flags", flags).
		Strs("rows", c.engine.Explain(flags)).
		Int("changes", len(changes)).
		Msg("form rules applied")

	event := Event{Trigger: trigger, Flags: flags, Changes: changes}
	for _, sub := range c.subs {
		sub.fn(event)
	}
	return changes
}
