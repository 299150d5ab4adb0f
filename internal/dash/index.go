package dash

import (
	"math"
)

// SegmentIndex maps segment numbers to times, durations and locations.
// Times are microseconds relative to the start of the period.
type SegmentIndex interface {
	FirstSegmentNumber() int64
	// FirstAvailableSegmentNumber returns the first segment still inside the
	// time shift buffer at nowUnixTimeUs.
	FirstAvailableSegmentNumber(periodDurationUs, nowUnixTimeUs int64) int64
	// SegmentCount returns the number of segments, or IndexUnbounded.
	SegmentCount(periodDurationUs int64) int64
	// AvailableSegmentCount returns the number of segments available at
	// nowUnixTimeUs, starting at FirstAvailableSegmentNumber.
	AvailableSegmentCount(periodDurationUs, nowUnixTimeUs int64) int64
	// NextSegmentAvailableTimeUs returns the period time at which the next
	// segment becomes available, or TimeUnset if it cannot be predicted.
	NextSegmentAvailableTimeUs(periodDurationUs, nowUnixTimeUs int64) int64
	// SegmentNumber returns the segment containing timeUs.
	SegmentNumber(timeUs, periodDurationUs int64) int64
	TimeUs(segmentNumber int64) (int64, error)
	DurationUs(segmentNumber, periodDurationUs int64) (int64, error)
	SegmentURL(segmentNumber int64) (ByteRange, error)
	// IsExplicit reports whether segment times come from explicit data
	// rather than a fixed duration.
	IsExplicit() bool
}

// multiSegment is implemented by *SegmentListBase and *SegmentTemplateBase.
type multiSegment interface {
	SegmentBase
	multi() *MultiSegmentBase
	segmentCount(periodDurationUs int64) int64
	isExplicit() bool
	segmentURL(format Format, n int64) ByteRange
}

// multiSegmentIndex answers index queries for a multi-segment representation.
type multiSegmentIndex struct {
	base   multiSegment
	m      *MultiSegmentBase
	format Format
}

func newMultiSegmentIndex(base multiSegment, format Format) *multiSegmentIndex {
	return &multiSegmentIndex{base: base, m: base.multi(), format: format}
}

func (x *multiSegmentIndex) FirstSegmentNumber() int64 {
	return x.m.startNumber
}

func (x *multiSegmentIndex) SegmentCount(periodDurationUs int64) int64 {
	return x.base.segmentCount(periodDurationUs)
}

func (x *multiSegmentIndex) IsExplicit() bool {
	return x.base.isExplicit()
}

func (x *multiSegmentIndex) FirstAvailableSegmentNumber(periodDurationUs, nowUnixTimeUs int64) int64 {
	first := x.FirstSegmentNumber()
	if x.SegmentCount(periodDurationUs) != IndexUnbounded ||
		x.m.timeShiftBufferDepthUs == TimeUnset || x.m.periodStartUnixTimeUs == TimeUnset {
		return first
	}
	liveEdgeUs := nowUnixTimeUs - x.m.periodStartUnixTimeUs
	return max(first, x.SegmentNumber(liveEdgeUs-x.m.timeShiftBufferDepthUs, periodDurationUs))
}

func (x *multiSegmentIndex) AvailableSegmentCount(periodDurationUs, nowUnixTimeUs int64) int64 {
	if count := x.SegmentCount(periodDurationUs); count != IndexUnbounded {
		return count
	}
	if x.m.periodStartUnixTimeUs == TimeUnset {
		return IndexUnbounded
	}
	liveEdgeUs := nowUnixTimeUs - x.m.periodStartUnixTimeUs + x.m.availabilityTimeOffsetUs
	firstIncomplete := x.SegmentNumber(liveEdgeUs, periodDurationUs)
	return max(0, firstIncomplete-x.FirstAvailableSegmentNumber(periodDurationUs, nowUnixTimeUs))
}

func (x *multiSegmentIndex) NextSegmentAvailableTimeUs(periodDurationUs, nowUnixTimeUs int64) int64 {
	if x.IsExplicit() || x.SegmentCount(periodDurationUs) != IndexUnbounded {
		return TimeUnset
	}
	available := x.AvailableSegmentCount(periodDurationUs, nowUnixTimeUs)
	if available == IndexUnbounded {
		return TimeUnset
	}
	next := x.FirstAvailableSegmentNumber(periodDurationUs, nowUnixTimeUs) + available
	startUs, err := x.TimeUs(next)
	if err != nil {
		return TimeUnset
	}
	durationUs, err := x.DurationUs(next, periodDurationUs)
	if err != nil {
		return TimeUnset
	}
	return startUs + durationUs - x.m.availabilityTimeOffsetUs
}

func (x *multiSegmentIndex) SegmentNumber(timeUs, periodDurationUs int64) int64 {
	first := x.FirstSegmentNumber()
	count := x.SegmentCount(periodDurationUs)
	if count == 0 {
		return first
	}

	var offset int64
	if x.m.timeline != nil {
		offset = x.timelineOffset(timeUs)
	} else {
		offset = x.fixedOffset(timeUs)
	}
	if count != IndexUnbounded && offset > count-1 {
		offset = count - 1
	}
	return first + offset
}

// timelineOffset returns the index of the timeline element containing timeUs.
func (x *multiSegmentIndex) timelineOffset(timeUs int64) int64 {
	tl := x.m.timeline
	i := tl.indexAt(timeUs, x.elementTimeUs)
	if i < 0 {
		return 0
	}
	if !tl.OpenEnded() || i < tl.Len()-1 || timeUs < 0 {
		return int64(i)
	}
	// Past the last declared element of an open-ended timeline.
	last := tl.elements[i]
	ticks := mul64(maxTicksAtOrBefore(timeUs, x.m.timescale), 1).add64(x.m.pto)
	if ticks.hi == 0 && ticks.lo < last.StartTime {
		return int64(i)
	}
	q, _ := ticks.sub64(last.StartTime).divMod(last.Duration)
	return saturatingAdd(int64(i), q.saturate())
}

// fixedOffset returns the index of the fixed-duration segment containing timeUs.
func (x *multiSegmentIndex) fixedOffset(timeUs int64) int64 {
	if timeUs < 0 || x.m.duration == 0 {
		return 0
	}
	return saturatingAdd(0, maxTicksAtOrBefore(timeUs, x.m.timescale)/x.m.duration)
}

func (x *multiSegmentIndex) elementTimeUs(e TimelineElement) int64 {
	return x.ticksSincePtoToUs(e.StartTime)
}

func (x *multiSegmentIndex) ticksSincePtoToUs(ticks uint64) int64 {
	if ticks >= x.m.pto {
		return wideTicksToUs(uint128{lo: ticks - x.m.pto}, x.m.timescale)
	}
	return -wideTicksToUs(uint128{lo: x.m.pto - ticks}, x.m.timescale)
}

// checkRange returns an error when n was never advertised by the index.
func (x *multiSegmentIndex) checkRange(n, periodDurationUs int64) error {
	first := x.FirstSegmentNumber()
	count := x.SegmentCount(periodDurationUs)
	if n < first || (count != IndexUnbounded && n-first >= count) {
		return &OutOfRangeError{SegmentNumber: n, First: first, Count: count}
	}
	if x.m.timeline != nil {
		if _, ok := x.m.timeline.element(n - first); !ok {
			return &OutOfRangeError{SegmentNumber: n, First: first, Count: int64(x.m.timeline.Len())}
		}
	}
	return nil
}

func (x *multiSegmentIndex) TimeUs(n int64) (int64, error) {
	if err := x.checkRange(n, TimeUnset); err != nil {
		return 0, err
	}
	return x.timeUs(n), nil
}

func (x *multiSegmentIndex) timeUs(n int64) int64 {
	k := n - x.FirstSegmentNumber()
	if x.m.timeline != nil {
		e, _ := x.m.timeline.element(k)
		return x.elementTimeUs(e)
	}
	return wideTicksToUs(mul64(uint64(k), x.m.duration), x.m.timescale)
}

func (x *multiSegmentIndex) DurationUs(n, periodDurationUs int64) (int64, error) {
	if err := x.checkRange(n, periodDurationUs); err != nil {
		return 0, err
	}
	k := n - x.FirstSegmentNumber()
	if x.m.timeline != nil {
		e, _ := x.m.timeline.element(k)
		return x.ticksSincePtoToUs(e.End()) - x.elementTimeUs(e), nil
	}
	startUs := x.timeUs(n)
	count := x.SegmentCount(periodDurationUs)
	if count != IndexUnbounded && k == count-1 && periodDurationUs != TimeUnset {
		return periodDurationUs - startUs, nil
	}
	return wideTicksToUs(mul64(uint64(k+1), x.m.duration), x.m.timescale) - startUs, nil
}

func (x *multiSegmentIndex) SegmentURL(n int64) (ByteRange, error) {
	if err := x.checkRange(n, TimeUnset); err != nil {
		return ByteRange{}, err
	}
	return x.base.segmentURL(x.format, n), nil
}

// wideTicksToUs converts a 128-bit tick count to microseconds, rounding
// toward zero and saturating at MaxInt64.
func wideTicksToUs(ticks uint128, timescale uint64) int64 {
	q, r := ticks.divMod(timescale)
	if q.hi != 0 || q.lo > math.MaxInt64/MicrosPerSecond {
		return math.MaxInt64
	}
	return int64(q.lo)*MicrosPerSecond + int64(ScaleLargeTimestamp(r, MicrosPerSecond, timescale))
}

func saturatingAdd(a int64, b uint64) int64 {
	if b > uint64(math.MaxInt64-a) {
		return math.MaxInt64
	}
	return a + int64(b)
}

// singleSegmentIndex is the index of a representation stored as one segment.
type singleSegmentIndex struct {
	uri ByteRange
}

func newSingleSegmentIndex(uri ByteRange) *singleSegmentIndex {
	return &singleSegmentIndex{uri: uri}
}

func (x *singleSegmentIndex) FirstSegmentNumber() int64 { return 0 }

func (x *singleSegmentIndex) FirstAvailableSegmentNumber(int64, int64) int64 { return 0 }

func (x *singleSegmentIndex) SegmentCount(int64) int64 { return 1 }

func (x *singleSegmentIndex) AvailableSegmentCount(int64, int64) int64 { return 1 }

func (x *singleSegmentIndex) NextSegmentAvailableTimeUs(int64, int64) int64 { return TimeUnset }

func (x *singleSegmentIndex) SegmentNumber(int64, int64) int64 { return 0 }

func (x *singleSegmentIndex) IsExplicit() bool { return true }

func (x *singleSegmentIndex) TimeUs(n int64) (int64, error) {
	if n != 0 {
		return 0, &OutOfRangeError{SegmentNumber: n, First: 0, Count: 1}
	}
	return 0, nil
}

func (x *singleSegmentIndex) DurationUs(n, periodDurationUs int64) (int64, error) {
	if n != 0 {
		return 0, &OutOfRangeError{SegmentNumber: n, First: 0, Count: 1}
	}
	return periodDurationUs, nil
}

func (x *singleSegmentIndex) SegmentURL(n int64) (ByteRange, error) {
	if n != 0 {
		return ByteRange{}, &OutOfRangeError{SegmentNumber: n, First: 0, Count: 1}
	}
	return x.uri, nil
}
