package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-kardex/pkg/rules/expr"
)

//go:embed rules.yaml
var defaultTableYAML []byte

// ErrInvalidTable marks rule tables that are not total, not deterministic or
// internally inconsistent.
var ErrInvalidTable = errors.New("rules: invalid table")

// TableSpec is the YAML shape of a rule table.
type TableSpec struct {
	Fields []FieldID   `yaml:"fields"`
	Groups []GroupSpec `yaml:"groups"`
}

// GroupSpec is a set of mutually exclusive rows varying over Flags.
type GroupSpec struct {
	Name  string    `yaml:"name"`
	Flags []FieldID `yaml:"flags"`
	Rows  []RowSpec `yaml:"rows"`
}

// RowSpec applies its overrides when When holds.
type RowSpec struct {
	Name    string    `yaml:"name"`
	When    string    `yaml:"when"`
	Disable []FieldID `yaml:"disable"`
	Require []FieldID `yaml:"require"`
}

// Table is a compiled rule table. Every assignment of each group's flags is
// resolved to exactly one row at compile time.
type Table struct {
	fields []FieldID
	groups []group
}

type group struct {
	name  string
	flags []FieldID
	rows  []row
	// index maps a flag assignment bitmask to the row that matches it.
	index []int
}

type row struct {
	name    string
	when    *expr.Program
	disable []FieldID
	require []FieldID
}

// Combination is one resolved entry of the table, used for listings.
type Combination struct {
	Group    string          `json:"group"`
	Row      string          `json:"row"`
	Flags    map[string]bool `json:"flags"`
	Disabled []FieldID       `json:"disabled"`
	Required []FieldID       `json:"required"`
}

var knownFlags = map[FieldID]struct{}{
	FlagRecienNacido: {},
	FlagExtranjero:   {},
	FlagFallecido:    {},
	FlagSinTelefono:  {},
}

// DefaultTable compiles the embedded patient form table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableYAML)
}

// LoadTable reads and compiles a YAML table.
func LoadTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("rules: read table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable compiles a YAML table.
func ParseTable(data []byte) (*Table, error) {
	var spec TableSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("rules: decode table: %w", err)
	}
	return Compile(spec)
}

// Compile validates a table spec and resolves every flag assignment.
func Compile(spec TableSpec) (*Table, error) {
	if len(spec.Fields) == 0 {
		return nil, fmt.Errorf("%w: no fields declared", ErrInvalidTable)
	}
	declared := make(map[FieldID]struct{}, len(spec.Fields))
	for _, id := range spec.Fields {
		if _, dup := declared[id]; dup {
			return nil, fmt.Errorf("%w: field %q declared twice", ErrInvalidTable, id)
		}
		if _, isFlag := knownFlags[id]; isFlag {
			return nil, fmt.Errorf("%w: flag %q cannot be a governed field", ErrInvalidTable, id)
		}
		declared[id] = struct{}{}
	}

	table := &Table{fields: append([]FieldID(nil), spec.Fields...)}
	owner := make(map[FieldID]string)
	flagOwner := make(map[FieldID]string)

	for _, gs := range spec.Groups {
		g, err := compileGroup(gs, declared)
		if err != nil {
			return nil, err
		}
		for _, flag := range g.flags {
			if other, taken := flagOwner[flag]; taken {
				return nil, fmt.Errorf("%w: flag %q used by groups %q and %q", ErrInvalidTable, flag, other, g.name)
			}
			flagOwner[flag] = g.name
		}
		for _, id := range g.touched() {
			if other, taken := owner[id]; taken {
				return nil, fmt.Errorf("%w: field %q governed by groups %q and %q", ErrInvalidTable, id, other, g.name)
			}
			owner[id] = g.name
		}
		table.groups = append(table.groups, g)
	}

	return table, nil
}

func compileGroup(spec GroupSpec, declared map[FieldID]struct{}) (group, error) {
	g := group{name: strings.TrimSpace(spec.Name), flags: append([]FieldID(nil), spec.Flags...)}
	if g.name == "" {
		return g, fmt.Errorf("%w: group name is required", ErrInvalidTable)
	}
	if len(g.flags) == 0 || len(g.flags) > 8 {
		return g, fmt.Errorf("%w: group %q must vary over 1 to 8 flags", ErrInvalidTable, g.name)
	}
	inGroup := make(map[string]struct{}, len(g.flags))
	for _, flag := range g.flags {
		if _, ok := knownFlags[flag]; !ok {
			return g, fmt.Errorf("%w: group %q: unknown flag %q", ErrInvalidTable, g.name, flag)
		}
		inGroup[string(flag)] = struct{}{}
	}

	for _, rs := range spec.Rows {
		program, err := expr.Compile(rs.When)
		if err != nil {
			return g, fmt.Errorf("%w: group %q row %q: %v", ErrInvalidTable, g.name, rs.Name, err)
		}
		for _, ident := range program.Identifiers() {
			if _, ok := inGroup[ident]; !ok {
				return g, fmt.Errorf("%w: group %q row %q reads %q outside the group", ErrInvalidTable, g.name, rs.Name, ident)
			}
		}
		r := row{name: rs.Name, when: program, disable: rs.Disable, require: rs.Require}
		if err := r.validate(declared); err != nil {
			return g, fmt.Errorf("%w: group %q row %q: %v", ErrInvalidTable, g.name, rs.Name, err)
		}
		g.rows = append(g.rows, r)
	}

	combos := 1 << len(g.flags)
	g.index = make([]int, combos)
	for mask := 0; mask < combos; mask++ {
		values := g.assignment(mask)
		match := -1
		for i, r := range g.rows {
			if !r.when.Eval(values) {
				continue
			}
			if match >= 0 {
				return g, fmt.Errorf("%w: group %q: rows %q and %q both match %v", ErrInvalidTable, g.name, g.rows[match].name, r.name, values)
			}
			match = i
		}
		if match < 0 {
			return g, fmt.Errorf("%w: group %q: no row matches %v", ErrInvalidTable, g.name, values)
		}
		g.index[mask] = match
	}
	return g, nil
}

func (r row) validate(declared map[FieldID]struct{}) error {
	disabled := make(map[FieldID]struct{}, len(r.disable))
	for _, id := range r.disable {
		if _, ok := declared[id]; !ok {
			return fmt.Errorf("disables undeclared field %q", id)
		}
		disabled[id] = struct{}{}
	}
	for _, id := range r.require {
		if _, ok := declared[id]; !ok {
			return fmt.Errorf("requires undeclared field %q", id)
		}
		if _, clash := disabled[id]; clash {
			return fmt.Errorf("field %q is both disabled and required", id)
		}
	}
	return nil
}

func (g group) assignment(mask int) map[string]bool {
	values := make(map[string]bool, len(g.flags))
	for i, flag := range g.flags {
		values[string(flag)] = mask&(1<<i) != 0
	}
	return values
}

func (g group) mask(values map[string]bool) int {
	mask := 0
	for i, flag := range g.flags {
		if values[string(flag)] {
			mask |= 1 << i
		}
	}
	return mask
}

func (g group) touched() []FieldID {
	seen := make(map[FieldID]struct{})
	var out []FieldID
	for _, r := range g.rows {
		for _, list := range [][]FieldID{r.disable, r.require} {
			for _, id := range list {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// Fields lists the governed fields in declaration order.
func (t *Table) Fields() []FieldID {
	return append([]FieldID(nil), t.fields...)
}

// Combinations lists every resolved flag assignment of every group. Within a
// group, assignments are ordered by bitmask with the first flag as the lowest
// bit.
func (t *Table) Combinations() []Combination {
	var out []Combination
	for _, g := range t.groups {
		for mask, idx := range g.index {
			r := g.rows[idx]
			disabled := append([]FieldID(nil), r.disable...)
			required := append([]FieldID(nil), r.require...)
			sortFieldIDs(disabled)
			sortFieldIDs(required)
			out = append(out, Combination{
				Group:    g.name,
				Row:      r.name,
				Flags:    g.assignment(mask),
				Disabled: disabled,
				Required: required,
			})
		}
	}
	return out
}

func (t *Table) compute(values map[string]bool) (States, []string) {
	states := make(States, len(t.fields))
	for _, id := range t.fields {
		states[id] = FieldState{Enabled: true}
	}
	matched := make([]string, 0, len(t.groups))
	for _, g := range t.groups {
		r := g.rows[g.index[g.mask(values)]]
		for _, id := range r.disable {
			states[id] = FieldState{}
		}
		for _, id := range r.require {
			states[id] = FieldState{Enabled: true, Required: true}
		}
		matched = append(matched, g.name+"."+r.name)
	}
	return states, matched
}
