package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytmeta/internal/config"
	"ytmeta/internal/daemon"
	"ytmeta/internal/history"
	"ytmeta/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, yt-dlp, and Jellyfin connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			lines := renderSectionHeader("Checks", colorize)
			for _, result := range results {
				lines = append(lines, renderStatusLine(result.Name, resultKind(result), result.Detail, colorize))
			}
			if !cfg.Jellyfin.Enabled {
				lines = append(lines, renderStatusLine("Jellyfin", statusWarn, "Disabled (index and serve need it)", colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Runtime", colorize)...)
			lines = append(lines, lockStatusLine(cfg, colorize))
			lines = append(lines, historyStatusLine(cmd, cfg, colorize))
			lines = append(lines, renderStatusLine("Schedule", statusInfo, scheduleLabel(cfg), colorize))
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if preflight.Failed(results) {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}
}

func resultKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func lockStatusLine(cfg *config.Config, colorize bool) string {
	lock, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		if errors.Is(err, daemon.ErrLocked) {
			return renderStatusLine("Daemon", statusInfo, "Running (lock held)", colorize)
		}
		return renderStatusLine("Daemon", statusWarn, err.Error(), colorize)
	}
	_ = lock.Unlock()
	return renderStatusLine("Daemon", statusInfo, "Not running", colorize)
}

func historyStatusLine(cmd *cobra.Command, cfg *config.Config, colorize bool) string {
	store, err := history.Open(cfg)
	if err != nil {
		return renderStatusLine("Last pass", statusWarn, err.Error(), colorize)
	}
	defer store.Close()
	runs, err := store.Recent(cmd.Context(), 1)
	if err != nil {
		return renderStatusLine("Last pass", statusWarn, err.Error(), colorize)
	}
	if len(runs) == 0 {
		return renderStatusLine("Last pass", statusInfo, "Never", colorize)
	}
	run := runs[0]
	kind := statusOK
	if !run.Succeeded() {
		kind = statusWarn
	}
	return renderStatusLine("Last pass", kind,
		fmt.Sprintf("%s %s (%s)", run.StartedAt.Local().Format("2006-01-02 15:04"), runOutcome(run), run.ID), colorize)
}

func scheduleLabel(cfg *config.Config) string {
	if cfg.Indexer.Schedule == "" {
		return "Disabled"
	}
	return cfg.Indexer.Schedule
}
