package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ytmeta/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent indexing passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No indexing passes recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					string(run.Trigger),
					runOutcome(run),
					strconv.Itoa(run.ShowsIndexed),
					strconv.Itoa(run.SeasonsUpdated),
					strconv.Itoa(run.EpisodesUpdated),
					strconv.Itoa(run.FailureCount),
					run.Duration().Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Trigger", "Outcome", "Shows", "Seasons", "Episodes", "Failures", "Duration"},
				rows, 4, 5, 6, 7, 8,
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of passes to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit runs as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one pass and its failures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			failures, err := store.Failures(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderFields([][2]string{
				{"Run", run.ID},
				{"Trigger", string(run.Trigger)},
				{"Started", run.StartedAt.Local().Format(time.RFC3339)},
				{"Duration", run.Duration().Round(time.Millisecond).String()},
				{"Outcome", runOutcome(run)},
				{"Dry run", yesNo(run.DryRun)},
				{"Shows", fmt.Sprintf("%d indexed, %d skipped, %d total", run.ShowsIndexed, run.ShowsSkipped, run.ShowsTotal)},
				{"Seasons updated", strconv.Itoa(run.SeasonsUpdated)},
				{"Episodes updated", strconv.Itoa(run.EpisodesUpdated)},
				{"Error", run.ErrorMessage},
			}))
			if len(failures) > 0 {
				fmt.Fprintln(out, renderFailures(failures))
			}
			return nil
		},
	}
}

func runOutcome(run history.Run) string {
	switch {
	case run.Cancelled:
		return "cancelled"
	case run.ErrorMessage != "":
		return "error"
	case run.FailureCount > 0:
		return "partial"
	default:
		return "ok"
	}
}
