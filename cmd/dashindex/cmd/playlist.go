package cmd

import (
	"errors"
	"fmt"

	"dashindex/internal/hls"

	"github.com/spf13/cobra"
)

func newPlaylistCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist <mpd-file> (--rep ID | --master)",
		Short: "Render a representation as an HLS playlist",
		Long: `Render the available segments of one representation as an HLS media
playlist, or the video representations of the first period as a
multivariant playlist with --master. Playlists are always printed as text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repID, _ := cmd.Flags().GetString("rep")
			master, _ := cmd.Flags().GetBool("master")
			if (repID == "") == !master {
				return errors.New("exactly one of --rep and --master is required")
			}

			manifest, err := a.loadManifest(cmd, args[0])
			if err != nil {
				return err
			}

			var out string
			if master {
				out, err = hls.GenerateMasterPlaylist(manifest, hls.DefaultURI)
			} else {
				rep, periodIdx, ok := manifest.FindRepresentation(repID)
				if !ok {
					return fmt.Errorf("representation %q not found", repID)
				}
				out, err = hls.GenerateMediaPlaylist(manifest, periodIdx, rep, a.nowUnixTimeUs(manifest))
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().String("rep", "", "representation id of the media playlist")
	cmd.Flags().Bool("master", false, "print the multivariant playlist")
	return cmd
}
