package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// span is a minimal Entry for tests.
type span struct {
	name  string
	begin time.Time
	end   time.Time
}

func (s *span) Interval() (time.Time, time.Time, bool) {
	if s.begin.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return s.begin, s.end, true
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.(*span).name)
	}
	return out
}

func TestAllIsOrderedByStart(t *testing.T) {
	t.Parallel()

	tl := New(
		&span{name: "c", begin: time.Unix(1236, 0)},
		&span{name: "b", begin: time.Unix(1235, 0)},
		&span{name: "a", begin: time.Unix(1234, 0)},
	)

	assert.Equal(t, []string{"a", "b", "c"}, names(tl.All()))
}

func TestAllTieBreakIsStable(t *testing.T) {
	t.Parallel()

	same := time.Unix(1234, 0)
	tl := New(
		&span{name: "first", begin: same, end: same.Add(2 * time.Hour)},
		&span{name: "second", begin: same},
		&span{name: "third", begin: same, end: same.Add(time.Hour)},
	)

	// Equal starts keep their collection order, whatever the ends say.
	assert.Equal(t, []string{"first", "second", "third"}, names(tl.All()))
}

func TestAllExcludesUnscheduledEntries(t *testing.T) {
	t.Parallel()

	undefined := &span{name: "undefined"}
	tl := New(
		undefined,
		&span{name: "a", begin: time.Unix(1234, 0)},
		&span{name: "b", begin: time.Unix(1235, 0)},
	)

	got := tl.All()
	assert.Len(t, got, 2)
	for _, e := range got {
		require.NotSame(t, undefined, e)
	}
}

// fixture returns the record set used throughout the original query tests:
// four instants and one multi-year span.
func fixture() *Timeline {
	return New(
		&span{name: "2015-10-10", begin: at(2015, 10, 10)},
		&span{name: "2010-10-10", begin: at(2010, 10, 10)},
		&span{name: "2020-10-10", begin: at(2020, 10, 10)},
		&span{name: "2015-01-10", begin: at(2015, 1, 10)},
		&span{name: "span", begin: at(2014, 1, 10), end: at(2018, 1, 10)},
	)
}

func TestIncluded(t *testing.T) {
	t.Parallel()

	got := fixture().Included(at(2013, 10, 10), at(2017, 10, 10))
	assert.Equal(t, []string{"2015-01-10", "2015-10-10"}, names(got),
		"only records wholly inside the window, start-ascending")
}

func TestOverlapping(t *testing.T) {
	t.Parallel()

	tl := New(
		&span{name: "a", begin: at(2010, 10, 10), end: at(2012, 10, 10)},
		&span{name: "b", begin: at(2013, 10, 10), end: at(2014, 10, 10)},
		&span{name: "c", begin: at(2016, 10, 10), end: at(2017, 10, 10)},
	)

	got := tl.Overlapping(at(2011, 10, 10), at(2015, 10, 10))
	assert.Equal(t, []string{"a", "b"}, names(got))
}

func TestOverlappingIsInclusiveAtBothEnds(t *testing.T) {
	t.Parallel()

	tl := New(
		&span{name: "touches-end", begin: at(2015, 1, 1), end: at(2015, 2, 1)},
		&span{name: "touches-begin", begin: at(2014, 1, 1), end: at(2014, 6, 1)},
	)

	got := tl.Overlapping(at(2014, 6, 1), at(2015, 1, 1))
	assert.Equal(t, []string{"touches-begin", "touches-end"}, names(got))
}

func TestOn(t *testing.T) {
	t.Parallel()

	noon := time.Date(2015, 10, 10, 12, 0, 0, 0, time.UTC)
	got := fixture().On(noon, false)
	assert.Equal(t, []string{"span", "2015-10-10"}, names(got))
}

func TestOnStrict(t *testing.T) {
	t.Parallel()

	noon := time.Date(2015, 10, 10, 12, 0, 0, 0, time.UTC)
	got := fixture().On(noon, true)
	assert.Equal(t, []string{"2015-10-10"}, names(got),
		"strict mode drops records not wholly contained in the day")
}

func TestOnUsesTheInstantsOwnLocation(t *testing.T) {
	t.Parallel()

	east := time.FixedZone("east", 10*60*60)
	// 02:00 on Oct 11 in +10 is still Oct 10 in UTC, but the day window
	// is computed in the instant's location.
	late := time.Date(2015, 10, 11, 2, 0, 0, 0, east)

	tl := New(&span{name: "oct11", begin: time.Date(2015, 10, 11, 8, 0, 0, 0, east)})
	assert.Equal(t, []string{"oct11"}, names(tl.On(late, false)))
	assert.Empty(t, names(tl.On(time.Date(2015, 10, 10, 12, 0, 0, 0, east), false)))
}

func TestStartAfter(t *testing.T) {
	t.Parallel()

	got := fixture().StartAfter(at(2015, 10, 10))
	assert.Equal(t, []string{"2020-10-10"}, names(got),
		"strictly after: a record starting exactly at the instant is excluded")
}

func TestQueriesExcludeUnscheduledEntries(t *testing.T) {
	t.Parallel()

	tl := New(
		&span{name: "undefined"},
		&span{name: "a", begin: at(2015, 1, 1)},
	)

	wide := []struct {
		name string
		got  []Entry
	}{
		{"included", tl.Included(at(2000, 1, 1), at(2030, 1, 1))},
		{"overlapping", tl.Overlapping(at(2000, 1, 1), at(2030, 1, 1))},
		{"on", tl.On(at(2015, 1, 1), false)},
		{"startafter", tl.StartAfter(at(2000, 1, 1))},
	}
	for _, q := range wide {
		assert.Equal(t, []string{"a"}, names(q.got), q.name)
	}
}

func TestEndBeforeStartIsPassedThrough(t *testing.T) {
	t.Parallel()

	// The engine trusts the record's fields: an inverted interval is not
	// validated away, it simply fails to overlap most windows.
	inverted := &span{name: "inverted", begin: at(2015, 6, 1), end: at(2015, 1, 1)}
	tl := New(inverted)

	assert.Empty(t, names(tl.Overlapping(at(2015, 2, 1), at(2015, 3, 1))))
	assert.Equal(t, []string{"inverted"}, names(tl.All()))
}

func TestEmptyTimeline(t *testing.T) {
	t.Parallel()

	tl := New()
	assert.Empty(t, tl.All())
	assert.Empty(t, tl.Included(at(2000, 1, 1), at(2030, 1, 1)))
}
