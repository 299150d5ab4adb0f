package dash

import (
	"fmt"
	"sort"
)

// ChunkIndex is the segment index of a single-resource representation, as
// read from its segment index (sidx) box. All slices have the same length.
type ChunkIndex struct {
	Sizes       []int64
	Offsets     []uint64
	DurationsUs []int64
	TimesUs     []int64
}

// Len returns the number of chunks.
func (c ChunkIndex) Len() int {
	return len(c.TimesUs)
}

// Validate checks that all slices describe the same chunks.
func (c ChunkIndex) Validate() error {
	n := len(c.TimesUs)
	if len(c.Sizes) != n || len(c.Offsets) != n || len(c.DurationsUs) != n {
		return fmt.Errorf("chunk index slices differ in length (sizes %d, offsets %d, durations %d, times %d): %w",
			len(c.Sizes), len(c.Offsets), len(c.DurationsUs), n, ErrInvalidSegmentBase)
	}
	if !sort.SliceIsSorted(c.TimesUs, func(i, j int) bool { return c.TimesUs[i] < c.TimesUs[j] }) {
		return fmt.Errorf("chunk times are not ascending: %w", ErrInvalidSegmentBase)
	}
	return nil
}

// chunkIndexAt returns the index of the last chunk starting at or before
// timeUs, or 0 when timeUs precedes every chunk.
func (c ChunkIndex) chunkIndexAt(timeUs int64) int {
	i := sort.Search(len(c.TimesUs), func(i int) bool { return c.TimesUs[i] > timeUs }) - 1
	return max(i, 0)
}

// chunkSegmentIndex exposes a ChunkIndex as a SegmentIndex. Chunk times are
// in the media time base; timeOffsetUs moves them to period time.
type chunkSegmentIndex struct {
	chunks       ChunkIndex
	timeOffsetUs int64
}

func newChunkSegmentIndex(chunks ChunkIndex, timeOffsetUs int64) *chunkSegmentIndex {
	return &chunkSegmentIndex{chunks: chunks, timeOffsetUs: timeOffsetUs}
}

func (x *chunkSegmentIndex) FirstSegmentNumber() int64 { return 0 }

func (x *chunkSegmentIndex) FirstAvailableSegmentNumber(int64, int64) int64 { return 0 }

func (x *chunkSegmentIndex) SegmentCount(int64) int64 { return int64(x.chunks.Len()) }

func (x *chunkSegmentIndex) AvailableSegmentCount(int64, int64) int64 {
	return int64(x.chunks.Len())
}

func (x *chunkSegmentIndex) NextSegmentAvailableTimeUs(int64, int64) int64 { return TimeUnset }

func (x *chunkSegmentIndex) IsExplicit() bool { return true }

func (x *chunkSegmentIndex) SegmentNumber(timeUs, _ int64) int64 {
	return int64(x.chunks.chunkIndexAt(timeUs + x.timeOffsetUs))
}

func (x *chunkSegmentIndex) checkRange(n int64) error {
	if n < 0 || n >= int64(x.chunks.Len()) {
		return &OutOfRangeError{SegmentNumber: n, First: 0, Count: int64(x.chunks.Len())}
	}
	return nil
}

func (x *chunkSegmentIndex) TimeUs(n int64) (int64, error) {
	if err := x.checkRange(n); err != nil {
		return 0, err
	}
	return x.chunks.TimesUs[n] - x.timeOffsetUs, nil
}

func (x *chunkSegmentIndex) DurationUs(n, _ int64) (int64, error) {
	if err := x.checkRange(n); err != nil {
		return 0, err
	}
	return x.chunks.DurationsUs[n], nil
}

func (x *chunkSegmentIndex) SegmentURL(n int64) (ByteRange, error) {
	if err := x.checkRange(n); err != nil {
		return ByteRange{}, err
	}
	return NewByteRange("", x.chunks.Offsets[n], x.chunks.Sizes[n]), nil
}
