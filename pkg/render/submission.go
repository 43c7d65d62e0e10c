package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// CSRFFieldName is the input name Django reads the CSRF token from.
const CSRFFieldName = "csrfmiddlewaretoken"

// HiddenField is a hidden input emitted before the visible controls.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hidden prints value with fmt.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken is the hidden csrfmiddlewaretoken input for token.
func CSRFToken(token string) HiddenField {
	return HiddenField{Name: CSRFFieldName, Value: token}
}

// MergeHiddenFields copies base and adds fields over it. Names are trimmed and
// blank ones dropped. The result is nil when nothing is left.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		putHidden(out, name, value)
	}
	for _, f := range fields {
		putHidden(out, f.Name, f.Value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields orders the inputs by name.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	clean := MergeHiddenFields(fields)
	if clean == nil {
		return nil
	}
	out := make([]HiddenField, 0, len(clean))
	for _, name := range slices.Sorted(maps.Keys(clean)) {
		out = append(out, HiddenField{Name: name, Value: clean[name]})
	}
	return out
}

func putHidden(m map[string]string, name, value string) {
	if name = strings.TrimSpace(name); name != "" {
		m[name] = value
	}
}
