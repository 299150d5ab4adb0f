package dash

import "slices"

// stopKey terminates the sorted key list. Its period index matches no period.
var stopKey = StreamKey{PeriodIndex: -1, GroupIndex: -1, StreamIndex: -1}

// Prune returns a copy of m keeping only the representations named by keys.
// Periods no key names are dropped and later periods move earlier by the
// dropped durations. Keys match source positions, so pruning a pruned
// manifest with the same keys changes nothing. Keys that name no
// representation are ignored.
func Prune(m *Manifest, keys []StreamKey) *Manifest {
	sorted := make([]StreamKey, 0, len(keys)+1)
	for _, k := range keys {
		if k.PeriodIndex >= 0 && k.GroupIndex >= 0 && k.StreamIndex >= 0 {
			sorted = append(sorted, k)
		}
	}
	slices.SortFunc(sorted, StreamKey.Compare)
	sorted = slices.Compact(sorted)
	sorted = append(sorted, stopKey)

	out := *m
	out.Periods = nil
	var shiftMs int64
	next := 0
	for i, period := range m.Periods {
		for sorted[next] != stopKey && sorted[next].PeriodIndex < period.Index {
			next++
		}
		if sorted[next].PeriodIndex != period.Index {
			if d := m.PeriodDurationMs(i); d != TimeUnset {
				shiftMs += d
			}
			continue
		}
		end := next
		for sorted[end].PeriodIndex == period.Index {
			end++
		}
		out.Periods = append(out.Periods, prunePeriod(period, sorted[next:end], shiftMs))
		next = end
	}
	if m.DurationMs != TimeUnset {
		out.DurationMs = m.DurationMs - shiftMs
	}
	return &out
}

// prunePeriod copies period keeping the representations named by keys, which
// all carry the period's index and are sorted.
func prunePeriod(period *Period, keys []StreamKey, shiftMs int64) *Period {
	p := *period
	if p.StartMs != TimeUnset {
		p.StartMs -= shiftMs
	}
	p.AdaptationSets = nil
	for _, as := range period.AdaptationSets {
		var reps []*Representation
		for _, rep := range as.Representations {
			key := StreamKey{PeriodIndex: period.Index, GroupIndex: as.Index, StreamIndex: rep.StreamIndex()}
			if _, found := slices.BinarySearchFunc(keys, key, StreamKey.Compare); found {
				reps = append(reps, rep)
			}
		}
		if len(reps) == 0 {
			continue
		}
		c := *as
		c.Representations = reps
		p.AdaptationSets = append(p.AdaptationSets, &c)
	}
	return &p
}
