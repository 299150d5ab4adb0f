package dash_test

import (
	"testing"

	"dashindex/internal/dash"
	"dashindex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSegments(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		rep := newRep(t, "v1", 0)
		segments, err := dash.ListSegments(rep, 5_000_000, dash.TimeUnset)
		require.NoError(t, err)
		require.Len(t, segments, 3)
		assert.Equal(t, models.Segment{
			Number:     3,
			StartUs:    4_000_000,
			DurationUs: 1_000_000,
			URL:        baseURI + "003-4000.m4s",
			Length:     dash.LengthUnbounded,
			RepID:      "v1",
		}, segments[2])
		assert.False(t, segments[2].HasByteRange())
	})

	t.Run("live window", func(t *testing.T) {
		p := fixedParams(1, 2, 1)
		p.TimeShiftBufferDepthUs = ptr(int64(10_000_000))
		p.PeriodStartUnixTimeUs = ptr(periodStartUnixUs)
		base, err := dash.NewSegmentTemplateBase(p)
		require.NoError(t, err)
		rep, err := dash.NewRepresentation(dash.RepresentationParams{
			Format:   dash.Format{ID: "live"},
			BaseURLs: []dash.BaseURL{{URL: baseURI}},
		}, base)
		require.NoError(t, err)

		segments, err := dash.ListSegments(rep, dash.TimeUnset, periodStartUnixUs+61_000_000)
		require.NoError(t, err)
		require.Len(t, segments, 5)
		assert.Equal(t, int64(26), segments[0].Number)
		assert.Equal(t, int64(30), segments[4].Number)
		assert.Equal(t, int64(58_000_000), segments[4].StartUs)

		_, err = dash.ListSegments(rep, dash.TimeUnset, dash.TimeUnset)
		assert.ErrorIs(t, err, dash.ErrUnboundedWindow)
	})

	t.Run("byte ranges", func(t *testing.T) {
		base, err := dash.NewSegmentListBase(dash.SegmentListParams{
			MultiSegmentParams: dash.MultiSegmentParams{
				SegmentBaseParams: dash.SegmentBaseParams{Timescale: 1},
				Duration:          4,
			},
			MediaSegments: []dash.ByteRange{
				dash.NewByteRange("", 100, 50),
				dash.NewByteRange("", 150, 60),
			},
		})
		require.NoError(t, err)
		rep, err := dash.NewRepresentation(dash.RepresentationParams{
			Format:   dash.Format{ID: "ranged"},
			BaseURLs: []dash.BaseURL{{URL: "https://cdn.example.com/file.mp4"}},
		}, base)
		require.NoError(t, err)

		segments, err := dash.ListSegments(rep, 7_000_000, dash.TimeUnset)
		require.NoError(t, err)
		require.Len(t, segments, 2)
		assert.Equal(t, "https://cdn.example.com/file.mp4", segments[1].URL)
		assert.Equal(t, uint64(150), segments[1].Start)
		assert.Equal(t, int64(60), segments[1].Length)
		assert.Equal(t, int64(3_000_000), segments[1].DurationUs)
		assert.True(t, segments[1].HasByteRange())
	})

	t.Run("too many segments", func(t *testing.T) {
		base, err := dash.NewSegmentTemplateBase(fixedParams(1_000_000, 1, 1))
		require.NoError(t, err)
		rep, err := dash.NewRepresentation(dash.RepresentationParams{
			Format:   dash.Format{ID: "dense"},
			BaseURLs: []dash.BaseURL{{URL: baseURI}},
		}, base)
		require.NoError(t, err)

		periodDurationUs := int64(3_600_000_000_000_000_000)
		assert.Equal(t, int64(3_600_000_000_000_000_000), rep.SegmentIndex().SegmentCount(periodDurationUs))
		_, err = dash.ListSegments(rep, periodDurationUs, dash.TimeUnset)
		assert.ErrorIs(t, err, dash.ErrTooManySegments)

		_, err = dash.ListSegments(rep, dash.MaxListedSegments+1, dash.TimeUnset)
		assert.ErrorIs(t, err, dash.ErrTooManySegments)
	})

	t.Run("live without time shift buffer", func(t *testing.T) {
		p := fixedParams(1, 1, 1)
		p.PeriodStartUnixTimeUs = ptr(periodStartUnixUs)
		base, err := dash.NewSegmentTemplateBase(p)
		require.NoError(t, err)
		rep, err := dash.NewRepresentation(dash.RepresentationParams{
			Format:   dash.Format{ID: "live"},
			BaseURLs: []dash.BaseURL{{URL: baseURI}},
		}, base)
		require.NoError(t, err)

		segments, err := dash.ListSegments(rep, dash.TimeUnset, periodStartUnixUs+60_000_000)
		require.NoError(t, err)
		assert.Len(t, segments, 60)

		_, err = dash.ListSegments(rep, dash.TimeUnset, periodStartUnixUs+int64(365*24*3600)*1_000_000)
		assert.ErrorIs(t, err, dash.ErrTooManySegments)
	})

	t.Run("index not loaded", func(t *testing.T) {
		indexRange := dash.NewByteRange("", 800, 200)
		rep, err := dash.NewRepresentation(dash.RepresentationParams{
			Format:   dash.Format{ID: "single"},
			BaseURLs: []dash.BaseURL{{URL: baseURI}},
		}, singleBase(t, &indexRange))
		require.NoError(t, err)
		_, err = dash.ListSegments(rep, 1_000_000, dash.TimeUnset)
		assert.ErrorIs(t, err, dash.ErrNoSegmentIndex)
	})
}

func TestInitSegment(t *testing.T) {
	rep := newRep(t, "v1", 0)
	init, err := dash.InitSegment(rep)
	require.NoError(t, err)
	assert.Nil(t, init)

	single, err := dash.NewRepresentation(dash.RepresentationParams{
		Format:   dash.Format{ID: "s"},
		BaseURLs: []dash.BaseURL{{URL: "https://cdn.example.com/a.mp4"}},
	}, singleBase(t, nil))
	require.NoError(t, err)
	init, err = dash.InitSegment(single)
	require.NoError(t, err)
	require.NotNil(t, init)
	assert.True(t, init.IsInit)
	assert.Equal(t, "https://cdn.example.com/a.mp4", init.URL)
	assert.Equal(t, int64(800), init.Length)
}
