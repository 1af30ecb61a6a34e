package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	minuteMs = int64(60 * 1000)
	hourMs   = 60 * minuteMs
	dayMs    = 24 * hourMs
	// WeekMs: largo de un ciclo semanal.
	WeekMs = 7 * dayMs
)

type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [7]string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

func (d Weekday) String() string {
	if d < Sunday || d > Saturday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday compara name contra los siete nombres, sin mayúsculas.
func ParseWeekday(name string) (Weekday, bool) {
	up := strings.ToUpper(name)
	for i, n := range weekdayNames {
		if n == up {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekTimestamp es un punto del ciclo de 7 días que arranca domingo 00:00.
type WeekTimestamp struct {
	Weekday Weekday `json:"weekday"`
	Hour    int     `json:"hour"`
	Minute  int     `json:"minute"`
}

// TimeMs: offset de w desde el inicio del ciclo.
func (w WeekTimestamp) TimeMs() int64 {
	return int64(w.Minute)*minuteMs + int64(w.Hour)*hourMs + int64(w.Weekday)*dayMs
}

func (w WeekTimestamp) String() string {
	return fmt.Sprintf("%s %02d:%02d", w.Weekday, w.Hour, w.Minute)
}

// WeekTimestampOf usa la location de t; convertí t antes si el span está
// configurado en otra zona.
func WeekTimestampOf(t time.Time) WeekTimestamp {
	return WeekTimestamp{Weekday: Weekday(t.Weekday()), Hour: t.Hour(), Minute: t.Minute()}
}
