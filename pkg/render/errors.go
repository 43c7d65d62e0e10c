package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-kardex/pkg/rules"
)

// ErrorMapping splits a server error payload into field messages keyed by
// control id and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
	// Focus is the control that should receive focus, if any.
	Focus string `json:"focus,omitempty"`
}

// Options copies the mapping into render options.
func (m ErrorMapping) Options(base RenderOptions) RenderOptions {
	out := base
	if len(m.Fields) > 0 {
		out.Errors = maps.Clone(base.Errors)
		if out.Errors == nil {
			out.Errors = make(map[string][]string, len(m.Fields))
		}
		for id, msgs := range m.Fields {
			out.Errors[id] = slices.Concat(out.Errors[id], msgs)
		}
	}
	out.FormErrors = MergeFormErrors(base.FormErrors, m.Form...)
	if m.Focus != "" {
		out.Focus = m.Focus
	}
	return out
}

// MergeFormErrors appends extras to existing, trimmed and without repeats.
func MergeFormErrors(existing []string, extras ...string) []string {
	return normalizeMessages(slices.Concat(existing, extras))
}

// MapViolations places submission violations on their fields. The first
// violation's field becomes the focus target.
func MapViolations(violations []rules.Violation) ErrorMapping {
	mapping := ErrorMapping{}
	for _, v := range violations {
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
			mapping.Focus = string(v.Field)
		}
		id := string(v.Field)
		mapping.Fields[id] = normalizeMessages(append(mapping.Fields[id], v.Message))
	}
	return mapping
}

// NormalizePayload flattens a decoded Django REST style error body, whose
// values may be strings, lists or nested objects, into message lists. Nested
// keys are joined with dots.
func NormalizePayload(raw map[string]any) map[string][]string {
	out := make(map[string][]string)
	flattenPayload("", raw, out)
	return out
}

func flattenPayload(prefix string, value any, out map[string][]string) {
	switch v := value.(type) {
	case nil:
	case string:
		out[prefix] = append(out[prefix], v)
	case []string:
		out[prefix] = append(out[prefix], v...)
	case []any:
		for _, item := range v {
			flattenPayload(prefix, item, out)
		}
	case map[string]any:
		for key, nested := range v {
			flattenPayload(joinPath(prefix, key), nested, out)
		}
	default:
		out[prefix] = append(out[prefix], fmt.Sprint(v))
	}
}

// MapErrorPayload places a Django error payload on the form. Keys may be
// dotted, slashed or indexed paths ("values[0].rut", "/body/nie"); the last
// segment naming a control wins. The form-level keys and unknown keys become
// form errors so no message is lost.
func MapErrorPayload(form Form, payload map[string][]string) ErrorMapping {
	ids := make(map[string]struct{}, len(form.Fields))
	for _, f := range form.Fields {
		ids[f.ID] = struct{}{}
	}

	var mapping ErrorMapping
	for key, messages := range payload {
		messages = normalizeMessages(messages)
		if len(messages) == 0 {
			continue
		}
		id := controlForKey(key, ids)
		if id == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[id] = append(mapping.Fields[id], messages...)
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func controlForKey(key string, ids map[string]struct{}) string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", "__all__", "non_field_errors", "detail":
		return ""
	}
	segments := strings.FieldsFunc(key, func(r rune) bool {
		return strings.ContainsRune("./[]#$ ", r)
	})
	for i := len(segments) - 1; i >= 0; i-- {
		if _, ok := ids[segments[i]]; ok {
			return segments[i]
		}
	}
	return ""
}

func normalizeMessages(messages []string) []string {
	var out []string
	for _, m := range messages {
		m = strings.TrimSpace(m)
		if m != "" && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
