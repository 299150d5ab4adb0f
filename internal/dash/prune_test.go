package dash_test

import (
	"testing"

	"dashindex/internal/dash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRep(t *testing.T, id string, streamIndex int) *dash.Representation {
	t.Helper()
	base, err := dash.NewSegmentTemplateBase(fixedParams(1000, 2000, 1))
	require.NoError(t, err)
	rep, err := dash.NewRepresentation(dash.RepresentationParams{
		Format:      dash.Format{ID: id},
		BaseURLs:    []dash.BaseURL{{URL: baseURI}},
		StreamIndex: streamIndex,
	}, base)
	require.NoError(t, err)
	return rep
}

// threePeriods returns a static manifest with period durations of 1000, 2000
// and 1500 ms, each with a video set of two representations and an audio set.
func threePeriods(t *testing.T) *dash.Manifest {
	m := &dash.Manifest{
		DurationMs:              4500,
		AvailabilityStartTimeMs: dash.TimeUnset,
		TimeShiftBufferDepthMs:  dash.TimeUnset,
		MinUpdatePeriodMs:       dash.TimeUnset,
		PublishTimeMs:           dash.TimeUnset,
	}
	for i, start := range []int64{0, 1000, 3000} {
		m.Periods = append(m.Periods, &dash.Period{
			ID:      string(rune('a' + i)),
			StartMs: start,
			Index:   i,
			AdaptationSets: []*dash.AdaptationSet{
				{ID: 1, Type: dash.TrackTypeVideo, Index: 0, Representations: []*dash.Representation{
					newRep(t, "v-low", 0), newRep(t, "v-high", 1),
				}},
				{ID: 2, Type: dash.TrackTypeAudio, Index: 1, Representations: []*dash.Representation{
					newRep(t, "a", 0),
				}},
			},
		})
	}
	return m
}

func TestPeriodDuration(t *testing.T) {
	m := threePeriods(t)
	assert.Equal(t, int64(1000), m.PeriodDurationMs(0))
	assert.Equal(t, int64(2000), m.PeriodDurationMs(1))
	assert.Equal(t, int64(1500), m.PeriodDurationMs(2))
	assert.Equal(t, int64(1_500_000), m.PeriodDurationUs(2))
	assert.Equal(t, dash.TimeUnset, m.PeriodDurationMs(3))

	m.DurationMs = dash.TimeUnset
	assert.Equal(t, dash.TimeUnset, m.PeriodDurationMs(2))
	assert.Equal(t, dash.TimeUnset, m.PeriodDurationUs(2))
}

func TestPrune(t *testing.T) {
	t.Run("single middle period", func(t *testing.T) {
		pruned := dash.Prune(threePeriods(t), []dash.StreamKey{{PeriodIndex: 1, GroupIndex: 0, StreamIndex: 1}})
		require.Len(t, pruned.Periods, 1)
		assert.Equal(t, int64(0), pruned.Periods[0].StartMs)
		assert.Equal(t, int64(2000), pruned.DurationMs)
		require.Len(t, pruned.Periods[0].AdaptationSets, 1)
		reps := pruned.Periods[0].AdaptationSets[0].Representations
		require.Len(t, reps, 1)
		assert.Equal(t, "v-high", reps[0].Format().ID)
	})

	t.Run("keeps source order", func(t *testing.T) {
		pruned := dash.Prune(threePeriods(t), []dash.StreamKey{
			{PeriodIndex: 2, GroupIndex: 1, StreamIndex: 0},
			{PeriodIndex: 0, GroupIndex: 0, StreamIndex: 1},
			{PeriodIndex: 2, GroupIndex: 0, StreamIndex: 1},
			{PeriodIndex: 2, GroupIndex: 0, StreamIndex: 0},
			{PeriodIndex: 0, GroupIndex: 0, StreamIndex: 1},
		})
		require.Len(t, pruned.Periods, 2)
		assert.Equal(t, "a", pruned.Periods[0].ID)
		assert.Equal(t, "c", pruned.Periods[1].ID)
		assert.Equal(t, int64(1000), pruned.Periods[1].StartMs)
		assert.Equal(t, int64(2500), pruned.DurationMs)

		sets := pruned.Periods[1].AdaptationSets
		require.Len(t, sets, 2)
		assert.Equal(t, dash.TrackTypeVideo, sets[0].Type)
		require.Len(t, sets[0].Representations, 2)
		assert.Equal(t, "v-low", sets[0].Representations[0].Format().ID)
		assert.Equal(t, "v-high", sets[0].Representations[1].Format().ID)
		assert.Equal(t, dash.TrackTypeAudio, sets[1].Type)
	})

	t.Run("idempotent", func(t *testing.T) {
		keys := []dash.StreamKey{
			{PeriodIndex: 1, GroupIndex: 1, StreamIndex: 0},
			{PeriodIndex: 2, GroupIndex: 0, StreamIndex: 1},
		}
		once := dash.Prune(threePeriods(t), keys)
		twice := dash.Prune(once, keys)
		assert.Equal(t, once, twice)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		pruned := dash.Prune(threePeriods(t), []dash.StreamKey{
			{PeriodIndex: 0, GroupIndex: 0, StreamIndex: 0},
			{PeriodIndex: 0, GroupIndex: 7, StreamIndex: 0},
			{PeriodIndex: 9, GroupIndex: 0, StreamIndex: 0},
			{PeriodIndex: -1, GroupIndex: -1, StreamIndex: -1},
		})
		require.Len(t, pruned.Periods, 1)
		require.Len(t, pruned.Periods[0].AdaptationSets, 1)
		assert.Equal(t, int64(1000), pruned.DurationMs)
	})

	t.Run("unknown duration", func(t *testing.T) {
		m := threePeriods(t)
		m.DurationMs = dash.TimeUnset
		pruned := dash.Prune(m, []dash.StreamKey{{PeriodIndex: 1}})
		assert.Equal(t, dash.TimeUnset, pruned.DurationMs)
		assert.Equal(t, int64(0), pruned.Periods[0].StartMs)
	})

	t.Run("input is not modified", func(t *testing.T) {
		m := threePeriods(t)
		dash.Prune(m, []dash.StreamKey{{PeriodIndex: 2}})
		assert.Len(t, m.Periods, 3)
		assert.Equal(t, int64(3000), m.Periods[2].StartMs)
		assert.Len(t, m.Periods[2].AdaptationSets[0].Representations, 2)
	})
}

func TestParseStreamKey(t *testing.T) {
	k, err := dash.ParseStreamKey("1/0/2")
	require.NoError(t, err)
	assert.Equal(t, dash.StreamKey{PeriodIndex: 1, GroupIndex: 0, StreamIndex: 2}, k)
	assert.Equal(t, "1/0/2", k.String())

	for _, bad := range []string{"", "1/2", "1/x/2", "1/-1/0", "1/2/3/4"} {
		_, err := dash.ParseStreamKey(bad)
		assert.Error(t, err, bad)
	}
}
