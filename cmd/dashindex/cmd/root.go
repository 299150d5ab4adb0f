// Package cmd implements the dashindex command line.
package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"dashindex/internal/config"
	"dashindex/internal/dash"
	"dashindex/internal/logger"
	"dashindex/internal/mpdparse"
	"dashindex/internal/output"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfgFile   string
	cfg       *config.Config
	log       *logger.SlogLogger
	formatter output.Formatter
}

// NewRootCommand builds the dashindex command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dashindex",
		Short: "Inspect DASH manifests as segment indexes",
		Long: `dashindex parses MPEG-DASH manifests and resolves, for every representation,
which segments exist, when they are available and where they are located.

It lists segments and byte ranges, prunes manifests down to selected streams
and renders representations as HLS playlists.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	// Flags are not bound to viper; Changed() decides whether they override
	// config and env values, keeping flag > env > file > default.
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./dashindex.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (text, json)")
	flags.StringP("output", "o", "text", "output format (text, json, yaml)")
	flags.String("now", "", "wall clock for live windows, RFC 3339")
	flags.String("base-url", "", "URL relative BaseURLs resolve against")

	root.AddCommand(newInfoCommand(a), newSegmentsCommand(a), newPruneCommand(a), newPlaylistCommand(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("log-level", &cfg.Logging.Level)
	override("log-format", &cfg.Logging.Format)
	override("output", &cfg.Output.Format)
	override("now", &cfg.Clock.Now)
	override("base-url", &cfg.Manifest.BaseURL)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	a.cfg = cfg
	a.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format).With("app", "dashindex")
	a.formatter, err = output.New(cfg.Output.Format)
	return err
}

// loadManifest parses the MPD at path, or standard input for "-".
func (a *app) loadManifest(cmd *cobra.Command, path string) (*dash.Manifest, error) {
	parser := mpdparse.NewParser(a.log.With("component", "mpdparse"))
	if path != "-" {
		return parser.ParseFile(path, a.cfg.Manifest.BaseURL)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read MPD from stdin: %w", err)
	}
	return parser.Parse(data, a.cfg.Manifest.BaseURL)
}

// nowUnixTimeUs returns the wall clock used for live windows: the pinned
// clock if configured, the current time otherwise. Static manifests have no
// wall clock.
func (a *app) nowUnixTimeUs(manifest *dash.Manifest) int64 {
	if !manifest.Dynamic {
		return dash.TimeUnset
	}
	now, pinned, _ := a.cfg.Clock.Time()
	if !pinned {
		now = time.Now()
	}
	a.log.Debugf("Using wall clock %s", now.UTC().Format(time.RFC3339Nano))
	return now.UnixMicro()
}

func (a *app) write(cmd *cobra.Command, data any) error {
	return output.Write(cmd.OutOrStdout(), a.formatter, data, a.cfg.Output.Pretty)
}

// stringSlice reads a repeatable string flag.
func stringSlice(flags *pflag.FlagSet, name string) []string {
	v, _ := flags.GetStringSlice(name)
	return v
}

// Execute runs the command tree against os.Args.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}
