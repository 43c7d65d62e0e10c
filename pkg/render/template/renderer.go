package template

import "io"

// Executor runs a named template into w. HTML renderers only see this, so
// the engine behind it can be replaced.
type Executor interface {
	Execute(w io.Writer, name string, data any) error
}
