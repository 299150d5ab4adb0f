package hls_test

import (
	"testing"
	"time"

	"dashindex/internal/dash"
	"dashindex/internal/hls"
	"dashindex/internal/mpdparse"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger is a no-op logger for testing purposes.
type mockLogger struct{}

func (m *mockLogger) Debugf(format string, v ...interface{}) {}
func (m *mockLogger) Infof(format string, v ...interface{})  {}
func (m *mockLogger) Warnf(format string, v ...interface{})  {}
func (m *mockLogger) Errorf(format string, v ...interface{}) {}

const vodMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT10S" minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="p0">
    <AdaptationSet contentType="video" mimeType="video/mp4" frameRate="25">
      <SegmentTemplate timescale="1000" duration="4000" media="$RepresentationID$/$Number$.m4s" initialization="$RepresentationID$/init.mp4"/>
      <Representation id="v1080" bandwidth="5000000" width="1920" height="1080" codecs="avc1.640028"/>
      <Representation id="v720" bandwidth="3000000" width="1280" height="720" codecs="avc1.64001f"/>
    </AdaptationSet>
    <AdaptationSet contentType="audio" mimeType="audio/mp4">
      <SegmentTemplate timescale="1000" duration="4000" media="$RepresentationID$/$Number$.m4s"/>
      <Representation id="aac" bandwidth="128000" codecs="mp4a.40.2"/>
    </AdaptationSet>
  </Period>
</MPD>`

const rangedMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT7S" minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:full:2011">
  <Period>
    <AdaptationSet contentType="audio" mimeType="audio/mp4">
      <Representation id="a" bandwidth="64000" codecs="mp4a.40.5">
        <BaseURL>audio.mp4</BaseURL>
        <SegmentList timescale="1" duration="4">
          <Initialization range="0-99"/>
          <SegmentURL mediaRange="100-149"/>
          <SegmentURL mediaRange="150-209"/>
        </SegmentList>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

const liveMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="dynamic" availabilityStartTime="2024-05-01T12:00:00Z" timeShiftBufferDepth="PT8S" minimumUpdatePeriod="PT2S" minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="live" start="PT0S">
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <SegmentTemplate timescale="1" duration="2" startNumber="0" media="$Number$.m4s"/>
      <Representation id="v" bandwidth="1000000"/>
    </AdaptationSet>
  </Period>
</MPD>`

func parse(t *testing.T, doc string) *dash.Manifest {
	t.Helper()
	manifest, err := mpdparse.NewParser(&mockLogger{}).Parse([]byte(doc), "https://cdn.example.com/vod/manifest.mpd")
	require.NoError(t, err)
	return manifest
}

func unmarshalMedia(t *testing.T, s string) *playlist.Media {
	t.Helper()
	pl, err := playlist.Unmarshal([]byte(s))
	require.NoError(t, err)
	media, ok := pl.(*playlist.Media)
	require.True(t, ok, "expected media playlist")
	return media
}

func TestGenerateMediaPlaylist_VOD(t *testing.T) {
	manifest := parse(t, vodMPD)
	rep, periodIdx, ok := manifest.FindRepresentation("v720")
	require.True(t, ok)

	out, err := hls.GenerateMediaPlaylist(manifest, periodIdx, rep, dash.TimeUnset)
	require.NoError(t, err)
	assert.Contains(t, out, "#EXT-X-ENDLIST")
	assert.Contains(t, out, `#EXT-X-MAP:URI="https://cdn.example.com/vod/v720/init.mp4"`)

	media := unmarshalMedia(t, out)
	assert.Equal(t, 4, media.TargetDuration)
	assert.Equal(t, 1, media.MediaSequence)
	assert.True(t, media.Endlist)
	require.Len(t, media.Segments, 3)
	assert.Equal(t, 4*time.Second, media.Segments[0].Duration)
	assert.Equal(t, 2*time.Second, media.Segments[2].Duration)
	assert.Equal(t, "https://cdn.example.com/vod/v720/3.m4s", media.Segments[2].URI)
	assert.Nil(t, media.Segments[0].DateTime)
}

func TestGenerateMediaPlaylist_ByteRanges(t *testing.T) {
	manifest := parse(t, rangedMPD)
	rep, periodIdx, ok := manifest.FindRepresentation("a")
	require.True(t, ok)

	pl, err := hls.MediaPlaylist(manifest, periodIdx, rep, dash.TimeUnset)
	require.NoError(t, err)
	require.NotNil(t, pl.Map)
	assert.Equal(t, "https://cdn.example.com/vod/audio.mp4", pl.Map.URI)
	require.NotNil(t, pl.Map.ByteRangeLength)
	assert.Equal(t, uint64(100), *pl.Map.ByteRangeLength)
	assert.Equal(t, uint64(0), *pl.Map.ByteRangeStart)

	require.Len(t, pl.Segments, 2)
	seg := pl.Segments[1]
	assert.Equal(t, uint64(60), *seg.ByteRangeLength)
	assert.Equal(t, uint64(150), *seg.ByteRangeStart)
	assert.Equal(t, 3*time.Second, seg.Duration)

	buf, err := pl.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(buf), "#EXT-X-BYTERANGE:60@150")
}

func TestGenerateMediaPlaylist_Live(t *testing.T) {
	manifest := parse(t, liveMPD)
	rep := manifest.Periods[0].AdaptationSets[0].Representations[0]
	ast := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := ast.Add(41 * time.Second).UnixMicro()

	pl, err := hls.MediaPlaylist(manifest, 0, rep, now)
	require.NoError(t, err)
	assert.False(t, pl.Endlist)
	assert.Nil(t, pl.PlaylistType)
	assert.Equal(t, 2, pl.TargetDuration)

	// The window starts in the segment holding now-8s and ends with the
	// last segment complete at now.
	assert.Equal(t, 16, pl.MediaSequence)
	require.Len(t, pl.Segments, 4)
	require.NotNil(t, pl.Segments[0].DateTime)
	assert.Equal(t, ast.Add(32*time.Second), *pl.Segments[0].DateTime)
	last := pl.Segments[3]
	assert.Equal(t, "https://cdn.example.com/vod/19.m4s", last.URI)
	assert.Equal(t, ast.Add(38*time.Second), *last.DateTime)

	_, err = hls.MediaPlaylist(manifest, 0, rep, dash.TimeUnset)
	assert.ErrorIs(t, err, dash.ErrUnboundedWindow)
}

func TestGenerateMasterPlaylist(t *testing.T) {
	manifest := parse(t, vodMPD)

	pl, err := hls.MultivariantPlaylist(manifest, nil)
	require.NoError(t, err)
	require.Len(t, pl.Variants, 2)
	v := pl.Variants[0]
	assert.Equal(t, 5_128_000, v.Bandwidth)
	assert.Equal(t, []string{"avc1.640028", "mp4a.40.2"}, v.Codecs)
	assert.Equal(t, "1920x1080", v.Resolution)
	require.NotNil(t, v.FrameRate)
	assert.InDelta(t, 25.0, *v.FrameRate, 0.001)
	assert.Equal(t, "v1080.m3u8", v.URI)

	out, err := hls.GenerateMasterPlaylist(manifest, func(_ int, rep *dash.Representation) string {
		return "media/" + rep.Format().ID + "/index.m3u8"
	})
	require.NoError(t, err)
	assert.Contains(t, out, "media/v720/index.m3u8")

	audioOnly := parse(t, rangedMPD)
	pl, err = hls.MultivariantPlaylist(audioOnly, nil)
	require.NoError(t, err)
	require.Len(t, pl.Variants, 1)
	assert.Equal(t, []string{"mp4a.40.5"}, pl.Variants[0].Codecs)

	_, err = hls.MultivariantPlaylist(&dash.Manifest{}, nil)
	assert.ErrorIs(t, err, hls.ErrNoVariants)
}
