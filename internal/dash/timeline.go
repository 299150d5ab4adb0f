package dash

import "sort"

// TimelineRun is one S element of a SegmentTimeline as declared in the
// manifest. A nil StartTime continues from the end of the previous run.
// A negative Repeat repeats until the next run's start or the period end.
type TimelineRun struct {
	StartTime *uint64
	Duration  uint64
	Repeat    int
}

// TimelineElement is a single segment of an expanded timeline, in
// timescale units.
type TimelineElement struct {
	StartTime uint64
	Duration  uint64
}

// End returns the start time of the following element.
func (e TimelineElement) End() uint64 {
	return e.StartTime + e.Duration
}

// Timeline is an expanded SegmentTimeline. An open-ended timeline ends in a
// run whose length is not known yet; its last element repeats indefinitely.
type Timeline struct {
	elements  []TimelineElement
	openEnded bool
}

// NewTimeline returns a timeline over already expanded elements.
func NewTimeline(elements []TimelineElement, openEnded bool) *Timeline {
	return &Timeline{elements: append([]TimelineElement(nil), elements...), openEnded: openEnded}
}

// ExpandTimeline expands S runs into one element per segment. periodEnd is the
// period end in timescale units on the same time base as the S@t values, or
// TimeUnset when the period has no known end.
func ExpandTimeline(runs []TimelineRun, periodEnd int64) *Timeline {
	t := &Timeline{}
	var next uint64
	for i, run := range runs {
		start := next
		if run.StartTime != nil {
			start = *run.StartTime
		}
		if run.Duration == 0 {
			next = start
			continue
		}

		count := int64(run.Repeat) + 1
		if run.Repeat < 0 {
			end, known := runEnd(runs, i, periodEnd)
			if !known {
				t.elements = append(t.elements, TimelineElement{StartTime: start, Duration: run.Duration})
				t.openEnded = true
				return t
			}
			count = 0
			if end > start {
				count = int64(CeilDivide(end-start, 1, run.Duration, 1))
			}
		}

		for k := int64(0); k < count; k++ {
			t.elements = append(t.elements, TimelineElement{StartTime: start, Duration: run.Duration})
			start += run.Duration
		}
		next = start
	}
	return t
}

// runEnd returns the end of the run at index i: the declared start of the
// following run, or the period end for the last run.
func runEnd(runs []TimelineRun, i int, periodEnd int64) (uint64, bool) {
	if i+1 < len(runs) {
		if runs[i+1].StartTime == nil {
			return 0, false
		}
		return *runs[i+1].StartTime, true
	}
	if periodEnd == TimeUnset || periodEnd < 0 {
		return 0, false
	}
	return uint64(periodEnd), true
}

// Len returns the number of declared elements.
func (t *Timeline) Len() int {
	return len(t.elements)
}

// OpenEnded reports whether the last element repeats past the declared ones.
func (t *Timeline) OpenEnded() bool {
	return t.openEnded
}

// Elements returns a copy of the declared elements.
func (t *Timeline) Elements() []TimelineElement {
	return append([]TimelineElement(nil), t.elements...)
}

// element returns the element at index i. Open-ended timelines extrapolate
// past the last declared element.
func (t *Timeline) element(i int64) (TimelineElement, bool) {
	n := int64(len(t.elements))
	switch {
	case i < 0:
		return TimelineElement{}, false
	case i < n:
		return t.elements[i], true
	case t.openEnded && n > 0:
		last := t.elements[n-1]
		return TimelineElement{StartTime: last.StartTime + uint64(i-n+1)*last.Duration, Duration: last.Duration}, true
	default:
		return TimelineElement{}, false
	}
}

// indexAt returns the index of the last element whose start, converted by
// startUs, is at or before timeUs, or -1 when timeUs precedes every element.
func (t *Timeline) indexAt(timeUs int64, startUs func(TimelineElement) int64) int {
	return sort.Search(len(t.elements), func(i int) bool {
		return startUs(t.elements[i]) > timeUs
	}) - 1
}
