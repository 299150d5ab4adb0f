package models

import (
	"fmt"
	"strconv"
)

// SegmentList is the enumerated window of one representation.
type SegmentList struct {
	PeriodIndex int       `json:"period_index" yaml:"period_index"`
	RepID       string    `json:"rep_id" yaml:"rep_id"`
	Bandwidth   int64     `json:"bandwidth" yaml:"bandwidth"`
	Init        *Segment  `json:"init,omitempty" yaml:"init,omitempty"`
	Segments    []Segment `json:"segments" yaml:"segments"`
}

// SegmentReport lists segments of every selected representation.
type SegmentReport struct {
	Dynamic         bool          `json:"dynamic" yaml:"dynamic"`
	NowUnixTimeUs   int64         `json:"now_unix_time_us,omitempty" yaml:"now_unix_time_us,omitempty"`
	Representations []SegmentList `json:"representations" yaml:"representations"`
}

// Header implements output.Tabular.
func (r *SegmentReport) Header() []string {
	return []string{"PERIOD", "REP", "NUMBER", "START_US", "DURATION_US", "RANGE", "URL"}
}

// Rows implements output.Tabular.
func (r *SegmentReport) Rows() [][]string {
	var rows [][]string
	for _, l := range r.Representations {
		period := strconv.Itoa(l.PeriodIndex)
		if l.Init != nil {
			rows = append(rows, []string{period, l.RepID, "init", "-", "-", byteRange(*l.Init), l.Init.URL})
		}
		for _, s := range l.Segments {
			rows = append(rows, []string{
				period, l.RepID,
				strconv.FormatInt(s.Number, 10),
				strconv.FormatInt(s.StartUs, 10),
				strconv.FormatInt(s.DurationUs, 10),
				byteRange(s),
				s.URL,
			})
		}
	}
	return rows
}

func byteRange(s Segment) string {
	if !s.HasByteRange() {
		return "-"
	}
	if s.Length < 0 {
		return fmt.Sprintf("%d-", s.Start)
	}
	return fmt.Sprintf("%d-%d", s.Start, s.Start+uint64(s.Length)-1)
}

// RepresentationSummary describes one representation of a manifest.
type RepresentationSummary struct {
	Key       string `json:"key" yaml:"key"`
	ID        string `json:"id" yaml:"id"`
	Type      string `json:"type" yaml:"type"`
	Bandwidth int64  `json:"bandwidth" yaml:"bandwidth"`
	Codecs    string `json:"codecs,omitempty" yaml:"codecs,omitempty"`
	Segments  int64  `json:"segments" yaml:"segments"`
}

// PeriodSummary describes one period of a manifest.
type PeriodSummary struct {
	Index           int                     `json:"index" yaml:"index"`
	ID              string                  `json:"id,omitempty" yaml:"id,omitempty"`
	StartMs         int64                   `json:"start_ms" yaml:"start_ms"`
	DurationMs      int64                   `json:"duration_ms" yaml:"duration_ms"`
	Representations []RepresentationSummary `json:"representations" yaml:"representations"`
}

// ManifestSummary is a compact description of a manifest.
type ManifestSummary struct {
	Dynamic    bool            `json:"dynamic" yaml:"dynamic"`
	DurationMs int64           `json:"duration_ms" yaml:"duration_ms"`
	Periods    []PeriodSummary `json:"periods" yaml:"periods"`
}

// Header implements output.Tabular.
func (s *ManifestSummary) Header() []string {
	return []string{"KEY", "PERIOD_START_MS", "PERIOD_DURATION_MS", "TYPE", "ID", "BANDWIDTH", "SEGMENTS"}
}

// Rows implements output.Tabular. Unknown values print as "-".
func (s *ManifestSummary) Rows() [][]string {
	var rows [][]string
	for _, p := range s.Periods {
		for _, r := range p.Representations {
			rows = append(rows, []string{
				r.Key,
				knownInt(p.StartMs),
				knownInt(p.DurationMs),
				r.Type,
				r.ID,
				strconv.FormatInt(r.Bandwidth, 10),
				knownInt(r.Segments),
			})
		}
	}
	return rows
}

// knownInt formats v, printing negative sentinels as "-".
func knownInt(v int64) string {
	if v < 0 {
		return "-"
	}
	return strconv.FormatInt(v, 10)
}
