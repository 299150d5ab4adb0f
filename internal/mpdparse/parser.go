package mpdparse

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"dashindex/internal/dash"
	"dashindex/internal/logger"

	m "github.com/Eyevinn/dash-mpd/mpd"
)

// Parser turns MPD documents into dash.Manifest trees.
type Parser struct {
	logger logger.Logger
}

// NewParser creates a new MPD parser.
func NewParser(log logger.Logger) *Parser {
	return &Parser{logger: log}
}

// ParseFile reads and parses the MPD at path. Relative BaseURLs resolve
// against manifestURL, which may be empty.
func (p *Parser) ParseFile(path, manifestURL string) (*dash.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MPD at %s: %w", path, err)
	}
	return p.Parse(data, manifestURL)
}

// Parse decodes an MPD document and builds the segment index of every
// representation it declares.
func (p *Parser) Parse(data []byte, manifestURL string) (*dash.Manifest, error) {
	mpd, err := m.ReadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal MPD XML: %w", err)
	}

	manifest := &dash.Manifest{
		Dynamic:                      mpd.Type != nil && *mpd.Type == "dynamic",
		DurationMs:                   durationMs(mpd.MediaPresentationDuration),
		AvailabilityStartTimeMs:      dateTimeMs(mpd.AvailabilityStartTime),
		TimeShiftBufferDepthMs:       durationMs(mpd.TimeShiftBufferDepth),
		MinUpdatePeriodMs:            durationMs(mpd.MinimumUpdatePeriod),
		SuggestedPresentationDelayMs: durationMs(mpd.SuggestedPresentationDelay),
		PublishTimeMs:                dateTimeMs(mpd.PublishTime),
	}
	if len(mpd.Location) > 0 {
		manifest.Location = string(mpd.Location[0])
	}

	root := []dash.BaseURL{{URL: manifestURL}}
	root, err = resolveBaseURLs(root, mpd.BaseURL)
	if err != nil {
		return nil, err
	}

	starts := p.periodStarts(mpd)
	if manifest.DurationMs == dash.TimeUnset && !manifest.Dynamic && len(mpd.Periods) > 0 {
		last := len(mpd.Periods) - 1
		if d := durationMs(mpd.Periods[last].Duration); d != dash.TimeUnset && starts[last] != dash.TimeUnset {
			manifest.DurationMs = starts[last] + d
		}
	}

	for i, mp := range mpd.Periods {
		period := &dash.Period{ID: mp.Id, StartMs: starts[i], Index: i}
		manifest.Periods = append(manifest.Periods, period)
	}

	for i, mp := range mpd.Periods {
		ctx := periodContext{
			manifest:         manifest,
			index:            i,
			period:           mp,
			periodDurationUs: manifest.PeriodDurationUs(i),
			startUnixTimeUs:  dash.TimeUnset,
		}
		if ctx.periodDurationUs == dash.TimeUnset && mp.Duration != nil {
			ctx.periodDurationUs = dash.MsToUs(durationMs(mp.Duration))
		}
		if manifest.Dynamic {
			ctx.startUnixTimeUs = manifest.PeriodStartUnixTimeUs(i)
			ctx.timeShiftBufferDepthUs = dash.MsToUs(manifest.TimeShiftBufferDepthMs)
		} else {
			ctx.timeShiftBufferDepthUs = dash.TimeUnset
		}
		ctx.baseURLs, err = resolveBaseURLs(root, mp.BaseURLs)
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i, err)
		}
		if err := p.parsePeriod(ctx, manifest.Periods[i]); err != nil {
			return nil, fmt.Errorf("period %d: %w", i, err)
		}
	}

	p.logger.Debugf("Parsed %s MPD with %d periods", manifestType(manifest), len(manifest.Periods))
	return manifest, nil
}

// periodStarts resolves the start of every period. A period without a start
// follows the previous one when that has a duration; the first period of a
// static presentation starts at zero.
func (p *Parser) periodStarts(mpd *m.MPD) []int64 {
	starts := make([]int64, len(mpd.Periods))
	for i, mp := range mpd.Periods {
		switch {
		case mp.Start != nil:
			starts[i] = durationMs(mp.Start)
		case i == 0 && (mpd.Type == nil || *mpd.Type != "dynamic"):
			starts[i] = 0
		case i > 0 && starts[i-1] != dash.TimeUnset && mpd.Periods[i-1].Duration != nil:
			starts[i] = starts[i-1] + durationMs(mpd.Periods[i-1].Duration)
		default:
			p.logger.Warnf("Period %d has no resolvable start", i)
			starts[i] = dash.TimeUnset
		}
	}
	return starts
}

type periodContext struct {
	manifest               *dash.Manifest
	index                  int
	period                 *m.Period
	baseURLs               []dash.BaseURL
	periodDurationUs       int64
	startUnixTimeUs        int64
	timeShiftBufferDepthUs int64
}

func (p *Parser) parsePeriod(ctx periodContext, period *dash.Period) error {
	for asIdx, mas := range ctx.period.AdaptationSets {
		as := &dash.AdaptationSet{ID: -1, Index: asIdx, Type: trackType(mas)}
		if mas.Id != nil {
			as.ID = int64(*mas.Id)
		}
		asBaseURLs, err := resolveBaseURLs(ctx.baseURLs, mas.BaseURLs)
		if err != nil {
			return fmt.Errorf("adaptation set %d: %w", asIdx, err)
		}
		for repIdx, mrep := range mas.Representations {
			rep, err := p.parseRepresentation(ctx, mas, mrep, asBaseURLs, repIdx)
			if err != nil {
				return fmt.Errorf("representation %q: %w", mrep.Id, err)
			}
			as.Representations = append(as.Representations, rep)
		}
		if len(as.Representations) == 0 {
			p.logger.Debugf("Adaptation set %d of period %d has no representations", asIdx, ctx.index)
		}
		period.AdaptationSets = append(period.AdaptationSets, as)
	}
	return nil
}

func (p *Parser) parseRepresentation(ctx periodContext, mas *m.AdaptationSetType, mrep *m.RepresentationType,
	parentBaseURLs []dash.BaseURL, streamIndex int) (*dash.Representation, error) {
	baseURLs, err := resolveBaseURLs(parentBaseURLs, mrep.BaseURLs)
	if err != nil {
		return nil, err
	}
	format := repFormat(mas, mrep)
	base, err := p.segmentBase(ctx, mas, mrep)
	if err != nil {
		return nil, err
	}
	return dash.NewRepresentation(dash.RepresentationParams{
		Format:      format,
		BaseURLs:    baseURLs,
		StreamIndex: streamIndex,
	}, base)
}

func repFormat(mas *m.AdaptationSetType, mrep *m.RepresentationType) dash.Format {
	f := dash.Format{
		ID:       mrep.Id,
		Bitrate:  int64(mrep.Bandwidth),
		MimeType: firstNonEmpty(mrep.MimeType, mas.MimeType),
		Codecs:   firstNonEmpty(mrep.Codecs, mas.Codecs),
		Width:    int(mrep.Width),
		Height:   int(mrep.Height),
		Language: mas.Lang,
	}
	if f.Width == 0 {
		f.Width = int(mas.Width)
	}
	if f.Height == 0 {
		f.Height = int(mas.Height)
	}
	f.FrameRate = parseFrameRate(firstNonEmpty(string(mrep.FrameRate), string(mas.FrameRate)))
	return f
}

func trackType(mas *m.AdaptationSetType) dash.TrackType {
	kind := string(mas.ContentType)
	if kind == "" {
		kind, _, _ = strings.Cut(mas.MimeType, "/")
	}
	if kind == "" && len(mas.Representations) > 0 {
		kind, _, _ = strings.Cut(mas.Representations[0].MimeType, "/")
	}
	switch kind {
	case "video":
		return dash.TrackTypeVideo
	case "audio":
		return dash.TrackTypeAudio
	case "text":
		return dash.TrackTypeText
	case "image":
		return dash.TrackTypeImage
	case "application":
		if strings.Contains(mas.MimeType, "ttml") || strings.Contains(mas.MimeType, "vtt") ||
			strings.HasPrefix(mas.Codecs, "stpp") || strings.HasPrefix(mas.Codecs, "wvtt") {
			return dash.TrackTypeText
		}
	}
	return dash.TrackTypeUnknown
}

// parseFrameRate parses frame rates written as "25" or "30000/1001".
func parseFrameRate(fr string) float64 {
	if fr == "" {
		return 0
	}
	num, den, found := strings.Cut(fr, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// resolveBaseURLs resolves the BaseURL elements of a node against the first
// base url of its parent. A node without BaseURLs inherits its parent's.
func resolveBaseURLs(parents []dash.BaseURL, elems []*m.BaseURLType) ([]dash.BaseURL, error) {
	if len(elems) == 0 {
		return parents, nil
	}
	out := make([]dash.BaseURL, 0, len(elems))
	for i, e := range elems {
		u, err := dash.NewByteRange(strings.TrimSpace(string(e.Value)), 0, dash.LengthUnbounded).Resolve(parents[0].URL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve BaseURL %q: %w", e.Value, err)
		}
		out = append(out, dash.BaseURL{URL: u.String(), ServiceLocation: e.ServiceLocation, Priority: i + 1, Weight: 1})
	}
	return out, nil
}

func durationMs(d *m.Duration) int64 {
	if d == nil {
		return dash.TimeUnset
	}
	return time.Duration(*d).Milliseconds()
}

func dateTimeMs(dt m.DateTime) int64 {
	if dt == "" {
		return dash.TimeUnset
	}
	s, err := dt.ConvertToSeconds()
	if err != nil {
		return dash.TimeUnset
	}
	return int64(math.Round(s * 1000))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func manifestType(manifest *dash.Manifest) string {
	if manifest.Dynamic {
		return "dynamic"
	}
	return "static"
}
