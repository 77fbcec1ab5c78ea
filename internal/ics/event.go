package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	appLog "icalq/internal/log"
	"icalq/internal/model"
)

// Events maps parsed components onto model events. VCALENDAR wrappers are
// descended into; VEVENT and VTODO blocks become events. Blocks that fail
// to map are logged and skipped so that one malformed entry does not sink
// the rest of the feed.
func Events(sourceID string, components []Component) []model.Event {
	out := make([]model.Event, 0)
	for _, comp := range components {
		c, ok := comp.(*Container)
		if !ok {
			continue
		}
		switch c.Name {
		case "VCALENDAR":
			out = append(out, Events(sourceID, c.Items())...)
		case "VEVENT", "VTODO":
			ev, err := eventFromContainer(sourceID, c)
			if err != nil {
				appLog.Error("event mapping failed", err, "source", sourceID, "block", c.Name)
				continue
			}
			out = append(out, ev)
		}
	}
	return out
}

func eventFromContainer(sourceID string, c *Container) (model.Event, error) {
	ev := model.Event{SourceID: sourceID, Kind: c.Name}

	for _, item := range c.Items() {
		cl, ok := item.(*ContentLine)
		if !ok {
			// Nested blocks (VALARM etc.) carry no interval data we map.
			continue
		}
		switch cl.Name {
		case "UID":
			ev.UID = cl.Value
		case "SUMMARY":
			ev.Summary = cl.Value
		case "DESCRIPTION":
			ev.Description = cl.Value
		case "LOCATION":
			ev.Location = cl.Value
		case "DTSTART":
			t, err := parseDateTime(cl.Value)
			if err != nil {
				return model.Event{}, fmt.Errorf("DTSTART: %w", err)
			}
			ev.Begin = t
			ev.AllDay = isDateOnly(cl)
			ev.BeginTZ = tzid(cl)
		case "DTEND", "DUE":
			t, err := parseDateTime(cl.Value)
			if err != nil {
				return model.Event{}, fmt.Errorf("%s: %w", cl.Name, err)
			}
			ev.End = t
			ev.EndTZ = tzid(cl)
		}
	}

	return ev, nil
}

// isDateOnly reports whether the line carries a date without a time of
// day: either VALUE=DATE or a value with no 'T' separator.
func isDateOnly(cl *ContentLine) bool {
	if vs, ok := cl.Params.Get("VALUE"); ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(cl.Value, "T")
}

// tzid returns the TZID parameter as an opaque label, or "".
func tzid(cl *ContentLine) string {
	if vs, ok := cl.Params.Get("TZID"); ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// parseDateTime parses the three basic iCalendar date/date-time shapes.
// TZID parameters are not interpreted; a non-UTC value is taken in the
// process-local zone, which keeps all values of one feed comparable.
func parseDateTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Floating date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, time.Local)
	}

	// Date only (all-day), e.g. 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, time.Local)
}
