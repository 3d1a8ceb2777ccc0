package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	var configFlag, logLevelFlag string
	ctx := newCommandContext(&configFlag, &logLevelFlag)

	root := &cobra.Command{
		Use:   "ytmeta",
		Short: "YouTube sidecar metadata and Jellyfin episode indexing",
		Long: `ytmeta reads the .info.json sidecars yt-dlp writes next to downloaded
videos, maps them to movie, episode, series, and music video metadata, and
renumbers Jellyfin seasons and episodes by upload date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newLookupCommand(ctx),
		newChangedCommand(ctx),
		newIndexCommand(ctx),
		newHistoryCommand(ctx),
		newCacheCommand(ctx),
		newDoctorCommand(ctx),
		newConfigCommand(ctx),
		newNotifyTestCommand(ctx),
		newServeCommand(ctx),
	)
	return root
}
