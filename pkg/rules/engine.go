package rules

import (
	"fmt"
	"os"
)

// Option configures an Engine.
type Option func(*config)

type config struct {
	table     *Table
	tablePath string
}

// WithTable supplies an already compiled table.
func WithTable(table *Table) Option {
	return func(cfg *config) {
		if table != nil {
			cfg.table = table
		}
	}
}

// WithTableFile loads the table from a YAML file instead of the embedded one.
func WithTableFile(path string) Option {
	return func(cfg *config) {
		cfg.tablePath = path
	}
}

// Engine computes field states from flags. It is immutable and safe for
// concurrent use.
type Engine struct {
	table *Table
}

// New constructs an Engine, compiling the embedded table unless an option
// supplies another one.
func New(options ...Option) (*Engine, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	table := cfg.table
	switch {
	case table != nil:
	case cfg.tablePath != "":
		file, err := os.Open(cfg.tablePath)
		if err != nil {
			return nil, fmt.Errorf("rules: open table: %w", err)
		}
		defer file.Close()
		table, err = LoadTable(file)
		if err != nil {
			return nil, err
		}
	default:
		var err error
		table, err = DefaultTable()
		if err != nil {
			return nil, err
		}
	}
	return &Engine{table: table}, nil
}

// Default returns an Engine over the embedded table. The embedded table is
// covered by tests, so a failure here is a build defect.
func Default() *Engine {
	engine, err := New()
	if err != nil {
		panic(err)
	}
	return engine
}

// Compute returns the state of every governed field for the given flags.
// It is a pure function of flags: calling it again yields an equal map.
func (e *Engine) Compute(flags FlagSet) States {
	states, _ := e.table.compute(flags.Values())
	return states
}

// Explain returns the rows that produced Compute's result, one per group, as
// "group.row".
func (e *Engine) Explain(flags FlagSet) []string {
	_, matched := e.table.compute(flags.Values())
	return matched
}

// Fields lists the fields the engine governs.
func (e *Engine) Fields() []FieldID {
	return e.table.Fields()
}

// Combinations lists the resolved table.
func (e *Engine) Combinations() []Combination {
	return e.table.Combinations()
}
