package render

// RenderOptions carry per-request data that is not part of the form state.
type RenderOptions struct {
	// Action and Method default to "" and "post".
	Action string
	Method string
	// Hidden inputs emitted before the visible controls, such as the CSRF
	// token.
	Hidden map[string]string
	// Errors are field messages keyed by control id.
	Errors map[string][]string
	// FormErrors are shown above the form.
	FormErrors []string
	// Focus names the control that should receive focus, usually the field of
	// the blocking submission violation.
	Focus string
}
