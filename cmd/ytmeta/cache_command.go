package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the yt-dlp sidecar cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached sidecars, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cache := ctx.cache(cfg)
			entries, err := cache.List()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Cache is empty (%s)\n", cache.Root())
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				state := "stale"
				if entry.Fresh {
					state = "fresh"
				}
				rows = append(rows, []string{
					entry.Key,
					entry.ModTime.Local().Format("2006-01-02 15:04"),
					time.Since(entry.ModTime).Round(time.Minute).String(),
					state,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Fetched", "Age", "State"}, rows, 2))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit entries as JSON")
	return cmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete cached sidecars older than the freshness TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			removed, err := ctx.cache(cfg).Prune()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale cache entries\n", removed)
			return nil
		},
	}
}
