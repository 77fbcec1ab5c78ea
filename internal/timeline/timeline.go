// Package timeline answers interval queries over time-bounded records.
package timeline

import (
	"sort"
	"time"
)

// Entry is any record exposing an optional time interval.
//
// scheduled reports whether the record has a start instant at all;
// unscheduled entries are excluded from every query and from iteration.
// A zero end marks an instantaneous record: its end is taken to be its
// begin for all comparisons. The engine trusts both fields and performs no
// validation (an end before the begin is passed through as-is).
//
// Precondition: all instants observed through one Timeline — record fields
// and query arguments alike — must come from one consistent time
// representation. The engine compares them directly and never converts
// between locations.
type Entry interface {
	Interval() (begin, end time.Time, scheduled bool)
}

// Timeline answers interval queries over a fixed collection of entries.
//
// Every method returning multiple entries yields them in start-ascending
// order; entries with equal starts keep their relative collection order.
type Timeline struct {
	entries []Entry
}

// New builds a timeline over the given entries. The slice is not copied;
// the caller must not mutate it while querying.
func New(entries ...Entry) *Timeline {
	return &Timeline{entries: entries}
}

// All returns every scheduled entry in timeline order.
func (t *Timeline) All() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if _, _, ok := e.Interval(); ok {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		bi, _, _ := out[i].Interval()
		bj, _, _ := out[j].Interval()
		return bi.Before(bj)
	})
	return out
}

// Included returns the entries whose whole interval lies inside
// [begin, end]: start at or after begin, end (or start, for instantaneous
// entries) at or before end. Entries merely overlapping the window are not
// included.
func (t *Timeline) Included(begin, end time.Time) []Entry {
	return t.filter(func(b, e time.Time) bool {
		return !b.Before(begin) && !e.After(end)
	})
}

// Overlapping returns the entries whose interval intersects [begin, end].
// The comparison is inclusive on both ends, so touching at a single
// instant counts as overlap.
func (t *Timeline) Overlapping(begin, end time.Time) []Entry {
	return t.filter(func(b, e time.Time) bool {
		return !b.After(end) && !e.Before(begin)
	})
}

// On returns the entries falling on the calendar day containing at,
// computed in at's own location. Non-strict mode matches every entry whose
// interval overlaps the day; strict mode only matches entries wholly
// contained in it.
func (t *Timeline) On(at time.Time, strict bool) []Entry {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	end := day.Add(24 * time.Hour)
	if strict {
		return t.Included(day, end)
	}
	return t.Overlapping(day, end)
}

// StartAfter returns the entries whose start lies strictly after at.
func (t *Timeline) StartAfter(at time.Time) []Entry {
	return t.filter(func(b, _ time.Time) bool {
		return b.After(at)
	})
}

// filter evaluates pred over each scheduled entry's [begin, endOrBegin]
// interval and returns the matches in timeline order.
func (t *Timeline) filter(pred func(begin, end time.Time) bool) []Entry {
	matched := make([]Entry, 0)
	for _, entry := range t.All() {
		b, e, _ := entry.Interval()
		if e.IsZero() {
			e = b
		}
		if pred(b, e) {
			matched = append(matched, entry)
		}
	}
	return matched
}
