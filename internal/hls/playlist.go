package hls

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"dashindex/internal/dash"
	"dashindex/internal/models"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
)

const playlistVersion = 7

// ErrNoVariants is returned when a manifest has no representation that can
// be advertised in a multivariant playlist.
var ErrNoVariants = errors.New("manifest has no playable representations")

// URIFunc names the media playlist of a representation in a multivariant
// playlist.
type URIFunc func(periodIndex int, rep *dash.Representation) string

// DefaultURI names media playlists "<representation id>.m3u8".
func DefaultURI(_ int, rep *dash.Representation) string {
	return rep.Format().ID + ".m3u8"
}

// MediaPlaylist builds the media playlist of the representation rep in
// period periodIndex. nowUnixTimeUs selects the live window of dynamic
// manifests and is ignored for static ones.
func MediaPlaylist(manifest *dash.Manifest, periodIndex int, rep *dash.Representation, nowUnixTimeUs int64) (*playlist.Media, error) {
	if !manifest.Dynamic {
		nowUnixTimeUs = dash.TimeUnset
	}
	segments, err := dash.ListSegments(rep, manifest.PeriodDurationUs(periodIndex), nowUnixTimeUs)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("representation %q has no available segments", rep.Format().ID)
	}
	init, err := dash.InitSegment(rep)
	if err != nil {
		return nil, err
	}

	pl := &playlist.Media{
		Version:        playlistVersion,
		TargetDuration: targetDuration(segments),
		MediaSequence:  int(segments[0].Number),
		Endlist:        !manifest.Dynamic,
	}
	if !manifest.Dynamic {
		vod := playlist.MediaPlaylistType(playlist.MediaPlaylistTypeVOD)
		pl.PlaylistType = &vod
	}
	if init != nil {
		pl.Map = &playlist.MediaMap{URI: init.URL}
		if init.HasByteRange() && init.Length > 0 {
			pl.Map.ByteRangeLength, pl.Map.ByteRangeStart = byteRange(*init)
		}
	}

	periodStartUs := manifest.PeriodStartUnixTimeUs(periodIndex)
	for _, seg := range segments {
		ms := &playlist.MediaSegment{
			Duration: time.Duration(seg.DurationUs) * time.Microsecond,
			URI:      seg.URL,
		}
		if seg.HasByteRange() && seg.Length > 0 {
			ms.ByteRangeLength, ms.ByteRangeStart = byteRange(seg)
		}
		if manifest.Dynamic && periodStartUs != dash.TimeUnset {
			dt := time.UnixMicro(periodStartUs + seg.StartUs).UTC()
			ms.DateTime = &dt
		}
		pl.Segments = append(pl.Segments, ms)
	}
	return pl, nil
}

// GenerateMediaPlaylist creates the HLS media playlist string.
func GenerateMediaPlaylist(manifest *dash.Manifest, periodIndex int, rep *dash.Representation, nowUnixTimeUs int64) (string, error) {
	pl, err := MediaPlaylist(manifest, periodIndex, rep, nowUnixTimeUs)
	if err != nil {
		return "", err
	}
	buf, err := pl.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal media playlist: %w", err)
	}
	return string(buf), nil
}

// MultivariantPlaylist advertises the video representations of the first
// period as variants, each carrying the codecs of the first audio
// representation. Audio representations become variants when there is no
// video.
func MultivariantPlaylist(manifest *dash.Manifest, uri URIFunc) (*playlist.Multivariant, error) {
	if uri == nil {
		uri = DefaultURI
	}
	if len(manifest.Periods) == 0 {
		return nil, ErrNoVariants
	}
	period := manifest.Periods[0]

	var video, audio []*dash.Representation
	for _, as := range period.AdaptationSets {
		switch as.Type {
		case dash.TrackTypeVideo:
			video = append(video, as.Representations...)
		case dash.TrackTypeAudio:
			audio = append(audio, as.Representations...)
		}
	}

	pl := &playlist.Multivariant{Version: playlistVersion}
	if len(video) == 0 {
		for _, rep := range audio {
			pl.Variants = append(pl.Variants, variant(rep, nil, uri(0, rep)))
		}
	} else {
		var withAudio *dash.Representation
		if len(audio) > 0 {
			withAudio = audio[0]
		}
		for _, rep := range video {
			pl.Variants = append(pl.Variants, variant(rep, withAudio, uri(0, rep)))
		}
	}
	if len(pl.Variants) == 0 {
		return nil, ErrNoVariants
	}
	return pl, nil
}

// GenerateMasterPlaylist creates the HLS multivariant playlist string.
func GenerateMasterPlaylist(manifest *dash.Manifest, uri URIFunc) (string, error) {
	pl, err := MultivariantPlaylist(manifest, uri)
	if err != nil {
		return "", err
	}
	buf, err := pl.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal multivariant playlist: %w", err)
	}
	return string(buf), nil
}

func variant(rep, audio *dash.Representation, uri string) *playlist.MultivariantVariant {
	f := rep.Format()
	v := &playlist.MultivariantVariant{
		Bandwidth: int(f.Bitrate),
		URI:       uri,
	}
	if f.Codecs != "" {
		v.Codecs = strings.Split(f.Codecs, ",")
	}
	if audio != nil {
		v.Bandwidth += int(audio.Format().Bitrate)
		if c := audio.Format().Codecs; c != "" {
			v.Codecs = append(v.Codecs, c)
		}
	}
	if f.Width > 0 && f.Height > 0 {
		v.Resolution = strconv.Itoa(f.Width) + "x" + strconv.Itoa(f.Height)
	}
	if f.FrameRate > 0 {
		fr := math.Round(f.FrameRate*1000) / 1000
		v.FrameRate = &fr
	}
	return v
}

// targetDuration is the longest segment duration rounded up to whole seconds.
func targetDuration(segments []models.Segment) int {
	var longest int64
	for _, s := range segments {
		longest = max(longest, s.DurationUs)
	}
	return max(1, int(dash.CeilDivide(uint64(longest), 1, 1, dash.MicrosPerSecond)))
}

func byteRange(s models.Segment) (*uint64, *uint64) {
	length := uint64(s.Length)
	start := s.Start
	return &length, &start
}
