package dash

import (
	"fmt"
	"math"
)

// AvailabilityTimeOffsetInfinite is the availability time offset of an
// availabilityTimeOffset="INF" attribute.
const AvailabilityTimeOffsetInfinite int64 = math.MaxInt64

// SegmentBase describes how a representation's media is split into segments.
// It is implemented by *SingleSegmentBase, *SegmentListBase and
// *SegmentTemplateBase only.
type SegmentBase interface {
	// Initialization returns the declared initialization range, if any.
	Initialization() *ByteRange
	Timescale() uint64
	PresentationTimeOffset() uint64
	// PresentationTimeOffsetUs returns the presentation time offset in microseconds.
	PresentationTimeOffsetUs() int64

	common() *segmentBase
}

// SegmentBaseParams holds the attributes every segment base carries.
type SegmentBaseParams struct {
	Initialization         *ByteRange
	Timescale              uint64
	PresentationTimeOffset uint64
}

type segmentBase struct {
	initialization *ByteRange
	timescale      uint64
	pto            uint64
}

func newSegmentBase(p SegmentBaseParams) (segmentBase, error) {
	if p.Timescale == 0 {
		return segmentBase{}, fmt.Errorf("timescale must be positive: %w", ErrInvalidSegmentBase)
	}
	b := segmentBase{timescale: p.Timescale, pto: p.PresentationTimeOffset}
	if p.Initialization != nil {
		init := *p.Initialization
		b.initialization = &init
	}
	return b, nil
}

// Initialization returns a copy of the initialization range, or nil.
func (b *segmentBase) Initialization() *ByteRange {
	if b.initialization == nil {
		return nil
	}
	init := *b.initialization
	return &init
}

// Timescale returns the ticks per second of the segment times.
func (b *segmentBase) Timescale() uint64 {
	return b.timescale
}

// PresentationTimeOffset returns the presentation time offset in ticks.
func (b *segmentBase) PresentationTimeOffset() uint64 {
	return b.pto
}

// PresentationTimeOffsetUs returns the presentation time offset in microseconds.
func (b *segmentBase) PresentationTimeOffsetUs() int64 {
	return scaleSigned(int64(min(b.pto, math.MaxInt64)), MicrosPerSecond, b.timescale)
}

func (b *segmentBase) common() *segmentBase {
	return b
}

// SingleSegmentParams builds a SingleSegmentBase.
type SingleSegmentParams struct {
	SegmentBaseParams
	// IndexRange locates the segment index (sidx) box, if declared.
	IndexRange *ByteRange
}

// SingleSegmentBase is a SegmentBase for a representation stored as one resource.
type SingleSegmentBase struct {
	segmentBase
	indexRange *ByteRange
}

// NewSingleSegmentBase validates p and returns a SingleSegmentBase.
func NewSingleSegmentBase(p SingleSegmentParams) (*SingleSegmentBase, error) {
	base, err := newSegmentBase(p.SegmentBaseParams)
	if err != nil {
		return nil, err
	}
	b := &SingleSegmentBase{segmentBase: base}
	if p.IndexRange != nil {
		r := *p.IndexRange
		b.indexRange = &r
	}
	return b, nil
}

// IndexRange returns the range of the segment index box, if declared.
func (b *SingleSegmentBase) IndexRange() *ByteRange {
	if b.indexRange == nil {
		return nil
	}
	r := *b.indexRange
	return &r
}

// MultiSegmentParams holds the attributes shared by segment lists and templates.
type MultiSegmentParams struct {
	SegmentBaseParams
	StartNumber int64
	// Duration is the fixed segment duration in timescale units. It is ignored
	// when Timeline is set.
	Duration uint64
	Timeline *Timeline
	// AvailabilityTimeOffsetUs may be AvailabilityTimeOffsetInfinite.
	AvailabilityTimeOffsetUs *int64
	TimeShiftBufferDepthUs   *int64
	PeriodStartUnixTimeUs    *int64
}

// MultiSegmentBase holds the state shared by SegmentListBase and
// SegmentTemplateBase and implements the index arithmetic over it.
type MultiSegmentBase struct {
	segmentBase
	startNumber              int64
	duration                 uint64
	timeline                 *Timeline
	availabilityTimeOffsetUs int64
	timeShiftBufferDepthUs   int64
	periodStartUnixTimeUs    int64
}

func newMultiSegmentBase(p MultiSegmentParams) (MultiSegmentBase, error) {
	base, err := newSegmentBase(p.SegmentBaseParams)
	if err != nil {
		return MultiSegmentBase{}, err
	}
	return MultiSegmentBase{
		segmentBase:              base,
		startNumber:              p.StartNumber,
		duration:                 p.Duration,
		timeline:                 p.Timeline,
		availabilityTimeOffsetUs: normalizeAvailabilityTimeOffset(p.AvailabilityTimeOffsetUs),
		timeShiftBufferDepthUs:   valueOrUnset(p.TimeShiftBufferDepthUs),
		periodStartUnixTimeUs:    valueOrUnset(p.PeriodStartUnixTimeUs),
	}, nil
}

// normalizeAvailabilityTimeOffset maps an absent or infinite offset to no
// offset, so such segments become available at their nominal end.
func normalizeAvailabilityTimeOffset(offsetUs *int64) int64 {
	if offsetUs == nil || *offsetUs == AvailabilityTimeOffsetInfinite {
		return 0
	}
	return *offsetUs
}

func valueOrUnset(v *int64) int64 {
	if v == nil {
		return TimeUnset
	}
	return *v
}

// StartNumber returns the number of the first segment.
func (b *MultiSegmentBase) StartNumber() int64 {
	return b.startNumber
}

// Duration returns the fixed segment duration in ticks, or 0 with a timeline.
func (b *MultiSegmentBase) Duration() uint64 {
	return b.duration
}

// Timeline returns the explicit timeline, or nil for fixed-duration segments.
func (b *MultiSegmentBase) Timeline() *Timeline {
	return b.timeline
}

// AvailabilityTimeOffsetUs returns the normalized availability time offset.
func (b *MultiSegmentBase) AvailabilityTimeOffsetUs() int64 {
	return b.availabilityTimeOffsetUs
}

// TimeShiftBufferDepthUs returns the time shift buffer depth, or TimeUnset.
func (b *MultiSegmentBase) TimeShiftBufferDepthUs() int64 {
	return b.timeShiftBufferDepthUs
}

// PeriodStartUnixTimeUs returns the wall clock start of the period, or TimeUnset.
func (b *MultiSegmentBase) PeriodStartUnixTimeUs() int64 {
	return b.periodStartUnixTimeUs
}

func (b *MultiSegmentBase) multi() *MultiSegmentBase {
	return b
}

// SegmentListParams builds a SegmentListBase.
type SegmentListParams struct {
	MultiSegmentParams
	MediaSegments []ByteRange
}

// SegmentListBase is a SegmentBase backed by an explicit list of segment URLs.
type SegmentListBase struct {
	MultiSegmentBase
	mediaSegments []ByteRange
}

// NewSegmentListBase validates p and returns a SegmentListBase.
func NewSegmentListBase(p SegmentListParams) (*SegmentListBase, error) {
	multi, err := newMultiSegmentBase(p.MultiSegmentParams)
	if err != nil {
		return nil, err
	}
	if multi.timeline == nil && multi.duration == 0 && len(p.MediaSegments) > 1 {
		return nil, fmt.Errorf("segment list of %d segments has neither duration nor timeline: %w",
			len(p.MediaSegments), ErrInvalidSegmentBase)
	}
	return &SegmentListBase{
		MultiSegmentBase: multi,
		mediaSegments:    append([]ByteRange(nil), p.MediaSegments...),
	}, nil
}

// MediaSegments returns a copy of the listed segments.
func (b *SegmentListBase) MediaSegments() []ByteRange {
	return append([]ByteRange(nil), b.mediaSegments...)
}

func (b *SegmentListBase) segmentCount(int64) int64 {
	return int64(len(b.mediaSegments))
}

func (b *SegmentListBase) isExplicit() bool {
	return true
}

func (b *SegmentListBase) segmentURL(_ Format, n int64) ByteRange {
	return b.mediaSegments[n-b.startNumber]
}

// SegmentTemplateParams builds a SegmentTemplateBase.
type SegmentTemplateParams struct {
	MultiSegmentParams
	MediaTemplate          *URLTemplate
	InitializationTemplate *URLTemplate
	// EndNumber is the number of the last segment, if declared.
	EndNumber *int64
}

// SegmentTemplateBase is a SegmentBase whose segment URLs are rendered from
// URL templates.
type SegmentTemplateBase struct {
	MultiSegmentBase
	mediaTemplate          *URLTemplate
	initializationTemplate *URLTemplate
	endNumber              *int64
}

// NewSegmentTemplateBase validates p and returns a SegmentTemplateBase.
func NewSegmentTemplateBase(p SegmentTemplateParams) (*SegmentTemplateBase, error) {
	multi, err := newMultiSegmentBase(p.MultiSegmentParams)
	if err != nil {
		return nil, err
	}
	if p.MediaTemplate == nil {
		return nil, fmt.Errorf("segment template without media template: %w", ErrInvalidSegmentBase)
	}
	if multi.timeline == nil && multi.duration == 0 {
		return nil, fmt.Errorf("segment template has neither duration nor timeline: %w", ErrInvalidSegmentBase)
	}
	b := &SegmentTemplateBase{
		MultiSegmentBase:       multi,
		mediaTemplate:          p.MediaTemplate,
		initializationTemplate: p.InitializationTemplate,
	}
	if p.EndNumber != nil {
		if *p.EndNumber < p.StartNumber-1 {
			return nil, fmt.Errorf("end number %d before start number %d: %w", *p.EndNumber, p.StartNumber, ErrInvalidSegmentBase)
		}
		end := *p.EndNumber
		b.endNumber = &end
	}
	return b, nil
}

// MediaTemplate returns the compiled media template.
func (b *SegmentTemplateBase) MediaTemplate() *URLTemplate {
	return b.mediaTemplate
}

// InitializationTemplate returns the compiled initialization template, or nil.
func (b *SegmentTemplateBase) InitializationTemplate() *URLTemplate {
	return b.initializationTemplate
}

// EndNumber returns the declared end number and whether one was declared.
func (b *SegmentTemplateBase) EndNumber() (int64, bool) {
	if b.endNumber == nil {
		return 0, false
	}
	return *b.endNumber, true
}

// InitializationFor returns the initialization range of a representation
// with the given format, rendering the initialization template if present.
func (b *SegmentTemplateBase) InitializationFor(format Format) *ByteRange {
	if b.initializationTemplate == nil {
		return b.Initialization()
	}
	r := NewByteRange(b.initializationTemplate.Render(format.ID, 0, format.Bitrate, 0), 0, LengthUnbounded)
	return &r
}

func (b *SegmentTemplateBase) segmentCount(periodDurationUs int64) int64 {
	switch {
	case b.timeline != nil:
		if b.timeline.OpenEnded() {
			return IndexUnbounded
		}
		return int64(b.timeline.Len())
	case b.endNumber != nil:
		return *b.endNumber - b.startNumber + 1
	case periodDurationUs != TimeUnset:
		if periodDurationUs <= 0 {
			return 0
		}
		n := CeilDivide(uint64(periodDurationUs), b.timescale, b.duration, MicrosPerSecond)
		return int64(min(n, math.MaxInt64))
	default:
		return IndexUnbounded
	}
}

func (b *SegmentTemplateBase) isExplicit() bool {
	return b.timeline != nil
}

func (b *SegmentTemplateBase) segmentURL(format Format, n int64) ByteRange {
	var time uint64
	if b.timeline != nil {
		e, _ := b.timeline.element(n - b.startNumber)
		time = e.StartTime
	} else {
		time = uint64(n-b.startNumber) * b.duration
	}
	return NewByteRange(b.mediaTemplate.Render(format.ID, n, format.Bitrate, time), 0, LengthUnbounded)
}
