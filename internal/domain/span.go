package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// QueueSpan es una ventana semanal de apertura/cierre. Begin va antes que
// End dentro del ciclo; no se soportan spans que crucen el sábado 23:59.
type QueueSpan struct {
	Begin WeekTimestamp `json:"begin"`
	End   WeekTimestamp `json:"end"`
	// corren los bordes, en ms
	OpenShift  int64      `json:"open_shift_ms"`
	CloseShift int64      `json:"close_shift_ms"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

func NewQueueSpan(begin, end WeekTimestamp) QueueSpan {
	return QueueSpan{Begin: begin, End: end}
}

func (s QueueSpan) CycleHasStarted(t time.Time) bool {
	return s.StartDate == nil || !t.Before(*s.StartDate)
}

func (s QueueSpan) CycleHasEnded(t time.Time) bool {
	return s.EndDate != nil && !t.Before(*s.EndDate)
}

func (s QueueSpan) CycleIsActive(t time.Time) bool {
	return s.CycleHasStarted(t) && !s.CycleHasEnded(t)
}

func (s QueueSpan) OpensAt() int64  { return s.Begin.TimeMs() + s.OpenShift }
func (s QueueSpan) ClosesAt() int64 { return s.End.TimeMs() + s.CloseShift }

// IsActive: si t cae en la ventana semanal (con shifts) de un ciclo activo.
// Ambos bordes son inclusivos.
func (s QueueSpan) IsActive(t time.Time) bool {
	cur := WeekTimestampOf(t).TimeMs()
	return s.CycleIsActive(t) && cur >= s.OpensAt() && cur <= s.ClosesAt()
}

// String arma la forma canónica que lee ParseQueueSpan.
func (s QueueSpan) String() string {
	return s.Begin.String() + " - " + s.End.String()
}

type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid queue span %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidSpan }

var spanRe = regexp.MustCompile(`^(\w+) (\d+):(\d+) - (\w+) (\d+):(\d+)$`)

// ParseQueueSpan lee "<WEEKDAY> HH:MM - <WEEKDAY> HH:MM", p.ej.
// "MONDAY 08:00 - WEDNESDAY 16:00". Shifts y fechas no van en el string.
func ParseQueueSpan(str string) (QueueSpan, error) {
	m := spanRe.FindStringSubmatch(str)
	if m == nil {
		return QueueSpan{}, &ParseError{Input: str, Reason: "expected \"<WEEKDAY> HH:MM - <WEEKDAY> HH:MM\""}
	}
	begin, err := parseWeekTimestamp(str, m[1], m[2], m[3])
	if err != nil {
		return QueueSpan{}, err
	}
	end, err := parseWeekTimestamp(str, m[4], m[5], m[6])
	if err != nil {
		return QueueSpan{}, err
	}
	return NewQueueSpan(begin, end), nil
}

func parseWeekTimestamp(input, day, hour, minute string) (WeekTimestamp, error) {
	wd, ok := ParseWeekday(day)
	if !ok {
		return WeekTimestamp{}, &ParseError{Input: input, Reason: fmt.Sprintf("unknown weekday %q", day)}
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h > 23 {
		return WeekTimestamp{}, &ParseError{Input: input, Reason: fmt.Sprintf("hour %q out of range", hour)}
	}
	mi, err := strconv.Atoi(minute)
	if err != nil || mi > 59 {
		return WeekTimestamp{}, &ParseError{Input: input, Reason: fmt.Sprintf("minute %q out of range", minute)}
	}
	return WeekTimestamp{Weekday: wd, Hour: h, Minute: mi}, nil
}
