package domain

import (
	"fmt"
	"strings"
	"time"
)

// Render reemplaza cada ${key} de tmpl por replacements[key]. Los que no
// tienen reemplazo quedan como están.
func Render(tmpl string, replacements map[string]string) string {
	if len(replacements) == 0 || !strings.Contains(tmpl, "${") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(replacements))
	for k, v := range replacements {
		pairs = append(pairs, "${"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// FormatDwell: d como "1d 2h 3m 4.5s", sin unidades en cero al principio.
func FormatDwell(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	tenths := d.Milliseconds() / 100
	days := tenths / (10 * 86400)
	tenths -= days * 10 * 86400
	hours := tenths / (10 * 3600)
	tenths -= hours * 10 * 3600
	minutes := tenths / (10 * 60)
	tenths -= minutes * 10 * 60

	var b strings.Builder
	started := false
	for _, u := range []struct {
		v    int64
		unit string
	}{{days, "d"}, {hours, "h"}, {minutes, "m"}} {
		if u.v == 0 && !started {
			continue
		}
		started = true
		fmt.Fprintf(&b, "%d%s ", u.v, u.unit)
	}
	fmt.Fprintf(&b, "%d.%ds", tenths/10, tenths%10)
	return b.String()
}
