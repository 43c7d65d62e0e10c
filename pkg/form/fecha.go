package form

import (
	"strings"
	"time"
)

// NoDate is shown for missing or unparseable timestamps.
const NoDate = "—"

var fechaLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatFechaHora renders an ISO timestamp as "dd-mm-yyyy hh:mm" in the
// timestamp's own offset.
func FormatFechaHora(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return NoDate
	}
	for _, layout := range fechaLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("02-01-2006 15:04")
		}
	}
	return NoDate
}
