package dash

import (
	"errors"
	"fmt"

	"dashindex/internal/models"
)

// ErrUnboundedWindow is returned when the available segments of a live
// representation cannot be enumerated because no wall clock applies.
var ErrUnboundedWindow = errors.New("segment index has no bounded availability window")

// MaxListedSegments bounds the number of segments ListSegments returns.
const MaxListedSegments = 1 << 20

// ErrTooManySegments is returned when more than MaxListedSegments segments
// are available, such as a live representation without a time shift buffer
// long after its period started.
var ErrTooManySegments = errors.New("too many segments to list")

// ListSegments returns the segments of rep available at nowUnixTimeUs, with
// URLs resolved against the first base url. nowUnixTimeUs may be TimeUnset
// for static presentations.
func ListSegments(rep *Representation, periodDurationUs, nowUnixTimeUs int64) ([]models.Segment, error) {
	idx := rep.SegmentIndex()
	if idx == nil {
		return nil, fmt.Errorf("representation %q: %w", rep.Format().ID, ErrNoSegmentIndex)
	}
	if idx.SegmentCount(periodDurationUs) == IndexUnbounded && nowUnixTimeUs == TimeUnset {
		return nil, fmt.Errorf("representation %q is live and no time was given: %w", rep.Format().ID, ErrUnboundedWindow)
	}
	count := idx.AvailableSegmentCount(periodDurationUs, nowUnixTimeUs)
	if count == IndexUnbounded {
		return nil, fmt.Errorf("representation %q: %w", rep.Format().ID, ErrUnboundedWindow)
	}

	if count > MaxListedSegments {
		return nil, fmt.Errorf("representation %q has %d available segments: %w", rep.Format().ID, count, ErrTooManySegments)
	}

	first := idx.FirstAvailableSegmentNumber(periodDurationUs, nowUnixTimeUs)
	segments := make([]models.Segment, 0, count)
	for n := first; n < first+count; n++ {
		seg, err := segmentAt(rep, idx, n, periodDurationUs)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func segmentAt(rep *Representation, idx SegmentIndex, n, periodDurationUs int64) (models.Segment, error) {
	startUs, err := idx.TimeUs(n)
	if err != nil {
		return models.Segment{}, err
	}
	durationUs, err := idx.DurationUs(n, periodDurationUs)
	if err != nil {
		return models.Segment{}, err
	}
	br, err := idx.SegmentURL(n)
	if err != nil {
		return models.Segment{}, err
	}
	u, err := br.Resolve(rep.baseURLs[0].URL)
	if err != nil {
		return models.Segment{}, fmt.Errorf("segment %d of %q: %w", n, rep.Format().ID, err)
	}
	return models.Segment{
		Number:     n,
		StartUs:    startUs,
		DurationUs: durationUs,
		URL:        u.String(),
		Start:      br.Start,
		Length:     br.Length,
		RepID:      rep.Format().ID,
	}, nil
}

// InitSegment returns the initialization segment of rep, or nil if it has none.
func InitSegment(rep *Representation) (*models.Segment, error) {
	init := rep.InitializationRange()
	if init == nil {
		return nil, nil
	}
	u, err := init.Resolve(rep.baseURLs[0].URL)
	if err != nil {
		return nil, fmt.Errorf("initialization of %q: %w", rep.Format().ID, err)
	}
	return &models.Segment{
		Number: -1,
		URL:    u.String(),
		Start:  init.Start,
		Length: init.Length,
		RepID:  rep.Format().ID,
		IsInit: true,
	}, nil
}
