package cmd

import (
	"dashindex/internal/dash"
	"dashindex/internal/models"

	"github.com/spf13/cobra"
)

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <mpd-file>",
		Short: "Summarize the periods and representations of a manifest",
		Long: `Summarize the periods and representations of a manifest.

Every representation is listed with its stream key (period/group/stream),
the key accepted by "dashindex prune --key". Pass "-" to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := a.loadManifest(cmd, args[0])
			if err != nil {
				return err
			}
			return a.write(cmd, summarize(manifest))
		},
	}
}

// summarize describes every representation of manifest. Segment counts are
// IndexUnbounded for live representations.
func summarize(manifest *dash.Manifest) *models.ManifestSummary {
	s := &models.ManifestSummary{Dynamic: manifest.Dynamic, DurationMs: manifest.DurationMs}
	for i, p := range manifest.Periods {
		ps := models.PeriodSummary{
			Index:      p.Index,
			ID:         p.ID,
			StartMs:    p.StartMs,
			DurationMs: manifest.PeriodDurationMs(i),
		}
		for _, as := range p.AdaptationSets {
			for _, rep := range as.Representations {
				key := dash.StreamKey{PeriodIndex: p.Index, GroupIndex: as.Index, StreamIndex: rep.StreamIndex()}
				segments := dash.IndexUnbounded
				if idx := rep.SegmentIndex(); idx != nil {
					segments = idx.SegmentCount(manifest.PeriodDurationUs(i))
				}
				ps.Representations = append(ps.Representations, models.RepresentationSummary{
					Key:       key.String(),
					ID:        rep.Format().ID,
					Type:      as.Type.String(),
					Bandwidth: rep.Format().Bitrate,
					Codecs:    rep.Format().Codecs,
					Segments:  segments,
				})
			}
		}
		s.Periods = append(s.Periods, ps)
	}
	return s
}
