package cmd

import (
	"errors"
	"fmt"
	"slices"

	"dashindex/internal/dash"
	"dashindex/internal/models"

	"github.com/spf13/cobra"
)

func newSegmentsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments <mpd-file>",
		Short: "List the available segments of each representation",
		Long: `List the available segments of each representation with their number,
start time and duration in microseconds, resolved URL and byte range.

For dynamic manifests only the segments inside the time shift buffer at the
wall clock (--now, clock.now or the current time) are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := a.loadManifest(cmd, args[0])
			if err != nil {
				return err
			}
			report, err := a.segmentReport(manifest, stringSlice(cmd.Flags(), "rep"))
			if err != nil {
				return err
			}
			return a.write(cmd, report)
		},
	}
	cmd.Flags().StringSlice("rep", nil, "representation ids to list (default all)")
	return cmd
}

func (a *app) segmentReport(manifest *dash.Manifest, repIDs []string) (*models.SegmentReport, error) {
	now := a.nowUnixTimeUs(manifest)
	report := &models.SegmentReport{Dynamic: manifest.Dynamic}
	if now != dash.TimeUnset {
		report.NowUnixTimeUs = now
	}

	found := make(map[string]bool)
	for i, p := range manifest.Periods {
		for _, as := range p.AdaptationSets {
			for _, rep := range as.Representations {
				id := rep.Format().ID
				if len(repIDs) > 0 && !slices.Contains(repIDs, id) {
					continue
				}
				found[id] = true
				list, err := listSegments(manifest, i, rep, now)
				if errors.Is(err, dash.ErrNoSegmentIndex) {
					a.log.Warnf("Representation %s needs its sidx loaded to list segments", id)
				} else if err != nil {
					return nil, err
				}
				a.log.Debugf("Representation %s of period %d has %d available segments", id, p.Index, len(list.Segments))
				report.Representations = append(report.Representations, list)
			}
		}
	}
	for _, id := range repIDs {
		if !found[id] {
			return nil, fmt.Errorf("representation %q not found", id)
		}
	}
	return report, nil
}

func listSegments(manifest *dash.Manifest, periodIdx int, rep *dash.Representation, now int64) (models.SegmentList, error) {
	list := models.SegmentList{
		PeriodIndex: manifest.Periods[periodIdx].Index,
		RepID:       rep.Format().ID,
		Bandwidth:   rep.Format().Bitrate,
	}
	init, err := dash.InitSegment(rep)
	if err != nil {
		return list, err
	}
	list.Init = init
	list.Segments, err = dash.ListSegments(rep, manifest.PeriodDurationUs(periodIdx), now)
	if err != nil {
		return list, err
	}
	return list, nil
}
