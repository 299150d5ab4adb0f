package dash

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// TrackType is the content type of an adaptation set.
type TrackType int

const (
	TrackTypeUnknown TrackType = iota
	TrackTypeAudio
	TrackTypeVideo
	TrackTypeText
	TrackTypeImage
)

func (t TrackType) String() string {
	switch t {
	case TrackTypeAudio:
		return "audio"
	case TrackTypeVideo:
		return "video"
	case TrackTypeText:
		return "text"
	case TrackTypeImage:
		return "image"
	default:
		return "unknown"
	}
}

// Manifest is a parsed media presentation. Times are in milliseconds;
// unknown values are TimeUnset.
type Manifest struct {
	Periods                      []*Period
	DurationMs                   int64
	Dynamic                      bool
	AvailabilityStartTimeMs      int64
	TimeShiftBufferDepthMs       int64
	MinUpdatePeriodMs            int64
	SuggestedPresentationDelayMs int64
	PublishTimeMs                int64
	Location                     string
}

// Period is a period of a manifest.
type Period struct {
	ID      string
	StartMs int64
	// Index is the position of the period in the source manifest.
	Index          int
	AdaptationSets []*AdaptationSet
}

// AdaptationSet groups interchangeable representations of one track.
type AdaptationSet struct {
	ID   int64
	Type TrackType
	// Index is the position of the adaptation set in its source period.
	Index           int
	Representations []*Representation
}

// PeriodDurationMs returns the duration of period i: the gap to the next
// period's start, or the remainder of the manifest duration for the last
// period. It returns TimeUnset when neither is known.
func (m *Manifest) PeriodDurationMs(i int) int64 {
	if i < 0 || i >= len(m.Periods) {
		return TimeUnset
	}
	if i == len(m.Periods)-1 {
		if m.DurationMs == TimeUnset || m.Periods[i].StartMs == TimeUnset {
			return TimeUnset
		}
		return m.DurationMs - m.Periods[i].StartMs
	}
	if m.Periods[i+1].StartMs == TimeUnset || m.Periods[i].StartMs == TimeUnset {
		return TimeUnset
	}
	return m.Periods[i+1].StartMs - m.Periods[i].StartMs
}

// PeriodDurationUs is PeriodDurationMs in microseconds.
func (m *Manifest) PeriodDurationUs(i int) int64 {
	return MsToUs(m.PeriodDurationMs(i))
}

// PeriodStartUnixTimeUs returns the wall-clock start of period i of a live
// manifest, or TimeUnset.
func (m *Manifest) PeriodStartUnixTimeUs(i int) int64 {
	if i < 0 || i >= len(m.Periods) || m.AvailabilityStartTimeMs == TimeUnset || m.Periods[i].StartMs == TimeUnset {
		return TimeUnset
	}
	return MsToUs(m.AvailabilityStartTimeMs + m.Periods[i].StartMs)
}

// FindRepresentation returns the first representation with the given format
// id together with the index of its period.
func (m *Manifest) FindRepresentation(id string) (*Representation, int, bool) {
	for i, p := range m.Periods {
		for _, as := range p.AdaptationSets {
			for _, rep := range as.Representations {
				if rep.Format().ID == id {
					return rep, i, true
				}
			}
		}
	}
	return nil, 0, false
}

// StreamKey selects a representation by its source position.
type StreamKey struct {
	PeriodIndex int
	GroupIndex  int
	StreamIndex int
}

// Compare orders keys by period, then group, then stream.
func (k StreamKey) Compare(o StreamKey) int {
	if c := cmp.Compare(k.PeriodIndex, o.PeriodIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(k.GroupIndex, o.GroupIndex); c != 0 {
		return c
	}
	return cmp.Compare(k.StreamIndex, o.StreamIndex)
}

func (k StreamKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.PeriodIndex, k.GroupIndex, k.StreamIndex)
}

// ParseStreamKey parses a key written as "period/group/stream".
func ParseStreamKey(s string) (StreamKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return StreamKey{}, fmt.Errorf("stream key %q: want period/group/stream", s)
	}
	var v [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return StreamKey{}, fmt.Errorf("stream key %q: %w", s, err)
		}
		if n < 0 {
			return StreamKey{}, fmt.Errorf("stream key %q: negative index %d", s, n)
		}
		v[i] = n
	}
	return StreamKey{PeriodIndex: v[0], GroupIndex: v[1], StreamIndex: v[2]}, nil
}
