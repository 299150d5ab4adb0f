package mpdparse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dashindex/internal/dash"

	m "github.com/Eyevinn/dash-mpd/mpd"
)

// segmentBase builds the segment base of a representation. SegmentTemplate,
// SegmentList and SegmentBase elements are inherited from the period and the
// adaptation set, the innermost declaration of each attribute winning.
func (p *Parser) segmentBase(ctx periodContext, mas *m.AdaptationSetType, mrep *m.RepresentationType) (dash.SegmentBase, error) {
	templates := nonNil(ctx.period.SegmentTemplate, mas.SegmentTemplate, mrep.SegmentTemplate)
	if len(templates) > 0 {
		if len(templates) > 1 {
			p.logger.Debugf("Representation %s merges %d SegmentTemplate levels", mrep.Id, len(templates))
		}
		return p.templateBase(ctx, templates)
	}
	lists := nonNil(ctx.period.SegmentList, mas.SegmentList, mrep.SegmentList)
	if len(lists) > 0 {
		return p.listBase(ctx, lists)
	}
	bases := nonNil(ctx.period.SegmentBase, mas.SegmentBase, mrep.SegmentBase)
	if len(bases) == 0 {
		p.logger.Debugf("Representation %s has no segment information, using the whole resource", mrep.Id)
	}
	return singleBase(bases)
}

func nonNil[T any](levels ...*T) []*T {
	var out []*T
	for _, l := range levels {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// segmentInfo is the union of the attributes shared by the three segment
// information elements, after inheritance.
type segmentInfo struct {
	timescale              *uint32
	presentationTimeOffset *uint64
	availabilityTimeOffset m.FloatInf64
	initialization         *m.URLType
	indexRange             string
	duration               *uint32
	startNumber            *uint32
	endNumber              *uint32
	timeline               *m.SegmentTimelineType
}

func (s *segmentInfo) mergeBase(b *m.SegmentBaseType) {
	if b.Timescale != nil {
		s.timescale = b.Timescale
	}
	if b.PresentationTimeOffset != nil {
		s.presentationTimeOffset = b.PresentationTimeOffset
	}
	if b.AvailabilityTimeOffset != 0 {
		s.availabilityTimeOffset = b.AvailabilityTimeOffset
	}
	if b.Initialization != nil {
		s.initialization = b.Initialization
	}
	if b.IndexRange != "" {
		s.indexRange = b.IndexRange
	}
}

func (s *segmentInfo) mergeMulti(b *m.MultipleSegmentBaseType) {
	s.mergeBase(&b.SegmentBaseType)
	if b.Duration != nil {
		s.duration = b.Duration
	}
	if b.StartNumber != nil {
		s.startNumber = b.StartNumber
	}
	if b.EndNumber != nil {
		s.endNumber = b.EndNumber
	}
	if b.SegmentTimeline != nil {
		s.timeline = b.SegmentTimeline
	}
}

func (s *segmentInfo) baseParams() dash.SegmentBaseParams {
	params := dash.SegmentBaseParams{Timescale: 1}
	if s.timescale != nil {
		params.Timescale = uint64(*s.timescale)
	}
	if s.presentationTimeOffset != nil {
		params.PresentationTimeOffset = *s.presentationTimeOffset
	}
	return params
}

// multiParams resolves the attributes shared by lists and templates. The
// timeline is expanded up to the end of the period.
func (s *segmentInfo) multiParams(ctx periodContext) dash.MultiSegmentParams {
	params := dash.MultiSegmentParams{
		SegmentBaseParams:        s.baseParams(),
		StartNumber:              1,
		AvailabilityTimeOffsetUs: availabilityTimeOffsetUs(s.availabilityTimeOffset),
	}
	if s.startNumber != nil {
		params.StartNumber = int64(*s.startNumber)
	}
	if s.duration != nil {
		params.Duration = uint64(*s.duration)
	}
	if s.timeline != nil {
		periodEnd := dash.TimeUnset
		if ctx.periodDurationUs != dash.TimeUnset {
			periodEnd = int64(params.PresentationTimeOffset) + dash.UsToTicks(ctx.periodDurationUs, params.Timescale)
		}
		params.Timeline = dash.ExpandTimeline(timelineRuns(s.timeline), periodEnd)
	}
	if ctx.timeShiftBufferDepthUs != dash.TimeUnset {
		params.TimeShiftBufferDepthUs = &ctx.timeShiftBufferDepthUs
	}
	if ctx.startUnixTimeUs != dash.TimeUnset {
		params.PeriodStartUnixTimeUs = &ctx.startUnixTimeUs
	}
	return params
}

// availabilityTimeOffsetUs maps availabilityTimeOffset="INF" to
// dash.AvailabilityTimeOffsetInfinite and an absent attribute to nil.
func availabilityTimeOffsetUs(ato m.FloatInf64) *int64 {
	v := float64(ato)
	switch {
	case v == 0 || math.IsNaN(v):
		return nil
	case math.IsInf(v, 1):
		inf := dash.AvailabilityTimeOffsetInfinite
		return &inf
	default:
		us := int64(math.Round(v * dash.MicrosPerSecond))
		return &us
	}
}

func timelineRuns(tl *m.SegmentTimelineType) []dash.TimelineRun {
	runs := make([]dash.TimelineRun, 0, len(tl.S))
	for _, s := range tl.S {
		runs = append(runs, dash.TimelineRun{StartTime: s.T, Duration: s.D, Repeat: s.R})
	}
	return runs
}

func (p *Parser) templateBase(ctx periodContext, levels []*m.SegmentTemplateType) (dash.SegmentBase, error) {
	var info segmentInfo
	var media, initialization string
	for _, st := range levels {
		info.mergeMulti(&st.MultipleSegmentBaseType)
		if st.Media != "" {
			media = st.Media
		}
		if st.Initialization != "" {
			initialization = st.Initialization
		}
	}

	params := dash.SegmentTemplateParams{MultiSegmentParams: info.multiParams(ctx)}
	mediaTemplate, err := dash.CompileURLTemplate(media)
	if err != nil {
		return nil, fmt.Errorf("media template: %w", err)
	}
	params.MediaTemplate = mediaTemplate
	if initialization != "" {
		params.InitializationTemplate, err = dash.CompileURLTemplate(initialization)
		if err != nil {
			return nil, fmt.Errorf("initialization template: %w", err)
		}
	} else if info.initialization != nil {
		init, err := parseURLType(info.initialization)
		if err != nil {
			return nil, err
		}
		params.Initialization = &init
	}
	if info.endNumber != nil {
		end := int64(*info.endNumber)
		params.EndNumber = &end
	}
	return dash.NewSegmentTemplateBase(params)
}

func (p *Parser) listBase(ctx periodContext, levels []*m.SegmentListType) (dash.SegmentBase, error) {
	var info segmentInfo
	var urls []*m.SegmentURLType
	for _, sl := range levels {
		info.mergeMulti(&sl.MultipleSegmentBaseType)
		if len(sl.SegmentURL) > 0 {
			urls = sl.SegmentURL
		}
	}

	params := dash.SegmentListParams{MultiSegmentParams: info.multiParams(ctx)}
	if info.initialization != nil {
		init, err := parseURLType(info.initialization)
		if err != nil {
			return nil, err
		}
		params.Initialization = &init
	}
	for i, su := range urls {
		br, err := parseByteRange(string(su.Media), string(su.MediaRange))
		if err != nil {
			return nil, fmt.Errorf("SegmentURL %d: %w", i, err)
		}
		params.MediaSegments = append(params.MediaSegments, br)
	}
	return dash.NewSegmentListBase(params)
}

func singleBase(levels []*m.SegmentBaseType) (dash.SegmentBase, error) {
	var info segmentInfo
	for _, sb := range levels {
		info.mergeBase(sb)
	}
	params := dash.SingleSegmentParams{SegmentBaseParams: info.baseParams()}
	if info.initialization != nil {
		init, err := parseURLType(info.initialization)
		if err != nil {
			return nil, err
		}
		params.Initialization = &init
	}
	if info.indexRange != "" {
		ir, err := parseByteRange("", info.indexRange)
		if err != nil {
			return nil, fmt.Errorf("indexRange: %w", err)
		}
		params.IndexRange = &ir
	}
	return dash.NewSingleSegmentBase(params)
}

func parseURLType(u *m.URLType) (dash.ByteRange, error) {
	br, err := parseByteRange(string(u.SourceURL), u.Range)
	if err != nil {
		return dash.ByteRange{}, fmt.Errorf("initialization: %w", err)
	}
	return br, nil
}

// parseByteRange parses an attribute of the form "first-last" (inclusive).
// An empty range covers the whole resource and "first-" runs to its end.
func parseByteRange(reference, rng string) (dash.ByteRange, error) {
	if rng == "" {
		return dash.NewByteRange(reference, 0, dash.LengthUnbounded), nil
	}
	first, last, found := strings.Cut(rng, "-")
	if !found {
		return dash.ByteRange{}, fmt.Errorf("invalid byte range %q", rng)
	}
	start, err := strconv.ParseUint(strings.TrimSpace(first), 10, 64)
	if err != nil {
		return dash.ByteRange{}, fmt.Errorf("invalid byte range %q: %w", rng, err)
	}
	if strings.TrimSpace(last) == "" {
		return dash.NewByteRange(reference, start, dash.LengthUnbounded), nil
	}
	end, err := strconv.ParseUint(strings.TrimSpace(last), 10, 64)
	if err != nil {
		return dash.ByteRange{}, fmt.Errorf("invalid byte range %q: %w", rng, err)
	}
	if end < start {
		return dash.ByteRange{}, fmt.Errorf("invalid byte range %q: end before start", rng)
	}
	return dash.NewByteRange(reference, start, int64(end-start+1)), nil
}
