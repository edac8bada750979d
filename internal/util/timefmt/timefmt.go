// Package timefmt renders listing timestamps as the Spanish relative-time
// labels the frontend shows ("Hace 3 días").
package timefmt

import (
	"strconv"
	"time"
)

// TimeAgo formats how long ago t happened relative to now.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	minutes := int(d.Minutes())
	hours := int(d.Hours())
	days := hours / 24

	switch {
	case minutes < 1:
		return "Ahora mismo"
	case minutes < 60:
		return "Hace " + plural(minutes, "minuto", "minutos")
	case hours < 24:
		return "Hace " + plural(hours, "hora", "horas")
	case days < 7:
		return "Hace " + plural(days, "día", "días")
	case days < 30:
		return "Hace " + plural(days/7, "semana", "semanas")
	default:
		return "Hace " + plural(days/30, "mes", "meses")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return strconv.Itoa(n) + " " + one
	}
	return strconv.Itoa(n) + " " + many
}
