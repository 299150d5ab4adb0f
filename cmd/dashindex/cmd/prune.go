package cmd

import (
	"errors"

	"dashindex/internal/dash"

	"github.com/spf13/cobra"
)

func newPruneCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune <mpd-file> --key period/group/stream ...",
		Short: "Keep only the selected representations of a manifest",
		Long: `Keep only the representations named by --key and print the resulting
manifest summary. Periods without a selected representation are removed and
the periods after them move earlier. Keys that match nothing are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := stringSlice(cmd.Flags(), "key")
			if len(raw) == 0 {
				return errors.New("at least one --key is required")
			}
			keys := make([]dash.StreamKey, 0, len(raw))
			for _, r := range raw {
				k, err := dash.ParseStreamKey(r)
				if err != nil {
					return err
				}
				keys = append(keys, k)
			}

			manifest, err := a.loadManifest(cmd, args[0])
			if err != nil {
				return err
			}
			pruned := dash.Prune(manifest, keys)
			a.log.Infof("Kept %d of %d periods", len(pruned.Periods), len(manifest.Periods))
			return a.write(cmd, summarize(pruned))
		},
	}
	cmd.Flags().StringSlice("key", nil, "stream key period/group/stream to keep (repeatable)")
	return cmd
}
