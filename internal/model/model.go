package model

import "time"

// Event is one time-bounded calendar record mapped from a VEVENT or VTODO
// block. Begin and End are optional: a zero Begin means the record is
// unscheduled (it never appears in timeline queries), a zero End means the
// record is instantaneous.
type Event struct {
	SourceID string // calendar source ID (e.g. config source ID)
	UID      string // iCalendar UID
	Kind     string // originating block name: VEVENT or VTODO

	Summary     string
	Description string
	Location    string

	AllDay bool

	Begin time.Time
	End   time.Time

	// BeginTZ / EndTZ carry TZID parameters through as opaque labels.
	// No timezone database lookup happens in this module.
	BeginTZ string
	EndTZ   string
}

// Interval implements the timeline entry contract.
func (e *Event) Interval() (begin, end time.Time, scheduled bool) {
	if e.Begin.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return e.Begin, e.End, true
}
