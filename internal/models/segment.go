package models

// Segment represents a media segment with its essential properties.
// This struct is used across different packages to represent a downloadable chunk of media.
type Segment struct {
	// Number is the segment number within its representation.
	Number int64 `json:"number" yaml:"number"`
	// StartUs is the start time of the segment in microseconds, relative to the period start.
	StartUs int64 `json:"start_us" yaml:"start_us"`
	// DurationUs is the duration of the segment in microseconds.
	DurationUs int64 `json:"duration_us" yaml:"duration_us"`
	// URL is the fully-qualified URL to fetch the segment from.
	URL string `json:"url" yaml:"url"`
	// Start is the offset of the first byte of the segment within URL.
	Start uint64 `json:"start,omitempty" yaml:"start,omitempty"`
	// Length is the number of bytes to fetch, or -1 for the rest of the resource.
	Length int64 `json:"length" yaml:"length"`
	// RepID is the ID of the representation this segment belongs to.
	RepID string `json:"rep_id" yaml:"rep_id"`
	// IsInit indicates if this is an initialization segment.
	IsInit bool `json:"is_init,omitempty" yaml:"is_init,omitempty"`
}

// HasByteRange reports whether only part of URL holds the segment.
func (s Segment) HasByteRange() bool {
	return s.Start != 0 || s.Length >= 0
}
