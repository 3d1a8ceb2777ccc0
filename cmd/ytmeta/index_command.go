package main

import (
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ytmeta/internal/daemon"
	"ytmeta/internal/daemonrun"
	"ytmeta/internal/history"
	"ytmeta/internal/indexer"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var concurrency int
	var showChanges bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Renumber seasons and episodes of YouTube shows in Jellyfin",
		Long: `Run one indexing pass over every Jellyfin show tagged with a YoutubeMetadata
provider id. Seasons are numbered by name; episodes by upload date, or by
position when a season has undated episodes.

The pass is journaled to the history database. It refuses to start while the
daemon or another pass holds the lock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := indexer.Options{
				Concurrency: cfg.Indexer.Concurrency,
				DryRun:      cfg.Indexer.DryRun,
			}
			if cmd.Flags().Changed("dry-run") {
				opts.DryRun = dryRun
			}
			if cmd.Flags().Changed("concurrency") {
				opts.Concurrency = concurrency
			}

			lock, err := daemon.AcquireLock(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Unlock() //nolint:errcheck

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			logger := ctx.cliLogger()
			idx, err := daemonrun.NewIndexer(cfg, logger, opts)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			report, _, runErr := daemon.RunPass(runCtx, idx, store, history.TriggerManual, cfg.Indexer.HistoryKeep, logger)
			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return runErr
			}
			printReport(cmd.OutOrStdout(), report, showChanges || opts.DryRun)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute new numbers without writing them")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Shows processed in parallel (defaults to indexer.concurrency)")
	cmd.Flags().BoolVar(&showChanges, "changes", false, "List every index assignment")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	return cmd
}

func printReport(out io.Writer, report indexer.Report, withChanges bool) {
	title := "Indexing pass " + report.RunID
	if report.DryRun {
		title += " (dry run)"
	}
	if report.Cancelled {
		title += " (cancelled)"
	}
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, renderFields([][2]string{
		{"Shows", fmt.Sprintf("%d indexed, %d skipped, %d total", report.ShowsIndexed, report.ShowsSkipped, report.ShowsTotal)},
		{"Seasons updated", strconv.Itoa(report.SeasonsUpdated)},
		{"Episodes updated", strconv.Itoa(report.EpisodesUpdated)},
		{"Failures", strconv.Itoa(len(report.Failures))},
		{"Duration", report.Duration().Round(time.Millisecond).String()},
	}))

	if withChanges && len(report.Changes) > 0 {
		rows := make([][]string, 0, len(report.Changes))
		for _, c := range report.Changes {
			rows = append(rows, []string{
				c.ShowName,
				c.Kind,
				truncate(c.Name, 48),
				string(c.Mode),
				formatInt(c.ParentIndexNumber),
				strconv.Itoa(c.IndexNumber),
				yesNo(c.Applied),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Show", "Kind", "Item", "Mode", "Parent", "Index", "Applied"},
			rows, 4, 5,
		))
	}
	if len(report.Failures) > 0 {
		fmt.Fprintln(out, renderFailures(report.Failures))
	}
}

func renderFailures(failures []indexer.Failure) string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.ShowName, f.ItemKind, f.ItemID, f.Kind, truncate(f.Message, 80)})
	}
	return renderTable([]string{"Show", "Kind", "Item", "Failure", "Message"}, rows)
}
