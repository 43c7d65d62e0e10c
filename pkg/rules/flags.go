package rules

import (
	"strconv"
	"strings"
)

// FlagSet holds the patient status checkboxes that drive the table.
type FlagSet struct {
	RecienNacido bool `json:"recien_nacido"`
	Extranjero   bool `json:"extranjero"`
	Fallecido    bool `json:"fallecido"`
	SinTelefono  bool `json:"sin_telefono"`
}

// Values exposes the flags keyed by their control ids, the shape rule
// conditions are evaluated against.
func (f FlagSet) Values() map[string]bool {
	return map[string]bool{
		string(FlagRecienNacido): f.RecienNacido,
		string(FlagExtranjero):   f.Extranjero,
		string(FlagFallecido):    f.Fallecido,
		string(FlagSinTelefono):  f.SinTelefono,
	}
}

// None reports whether none of the identity flags is set.
func (f FlagSet) None() bool {
	return !f.RecienNacido && !f.Extranjero && !f.Fallecido
}

// String renders the flags as RN/EX/FA/ST letters, "--" for unset ones.
func (f FlagSet) String() string {
	var b strings.Builder
	for _, part := range []struct {
		on    bool
		label string
	}{
		{f.RecienNacido, "RN"},
		{f.Extranjero, "EX"},
		{f.Fallecido, "FA"},
		{f.SinTelefono, "ST"},
	} {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		if part.on {
			b.WriteString(part.label)
		} else {
			b.WriteString("--")
		}
	}
	return b.String()
}

// AllFlagSets enumerates the 16 reachable flag combinations.
func AllFlagSets() []FlagSet {
	out := make([]FlagSet, 0, 16)
	for mask := 0; mask < 16; mask++ {
		out = append(out, FlagSet{
			RecienNacido: mask&1 != 0,
			Extranjero:   mask&2 != 0,
			Fallecido:    mask&4 != 0,
			SinTelefono:  mask&8 != 0,
		})
	}
	return out
}

// FlagsFromValues reads flags from loosely typed form values such as decoded
// JSON bodies or query strings ("on", "true", "1").
func FlagsFromValues(values map[string]any) FlagSet {
	return FlagSet{
		RecienNacido: truthy(values[string(FlagRecienNacido)]),
		Extranjero:   truthy(values[string(FlagExtranjero)]),
		Fallecido:    truthy(values[string(FlagFallecido)]),
		SinTelefono:  truthy(values[string(FlagSinTelefono)]),
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.EqualFold(trimmed, "on") {
			return true
		}
		parsed, err := strconv.ParseBool(trimmed)
		return err == nil && parsed
	case []string:
		return len(v) > 0 && truthy(v[len(v)-1])
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}
