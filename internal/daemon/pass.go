package daemon

import (
	"context"
	"log/slog"

	"ytmeta/internal/history"
	"ytmeta/internal/indexer"
	"ytmeta/internal/logging"
)

// Runner executes one indexing pass.
type Runner interface {
	Run(ctx context.Context, progress indexer.ProgressFunc) (indexer.Report, error)
}

// Journal stores finished passes.
type Journal interface {
	Record(ctx context.Context, trigger history.Trigger, report indexer.Report, runErr error) (history.Run, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// RunPass runs one pass and journals the outcome, including cancelled and
// failed passes. keep bounds the journal; zero leaves it unpruned. A nil
// journal skips journaling.
func RunPass(ctx context.Context, runner Runner, journal Journal, trigger history.Trigger, keep int, logger *slog.Logger) (indexer.Report, history.Run, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String("trigger", string(trigger)))

	lastLogged := -1
	report, runErr := runner.Run(ctx, func(percent float64) {
		step := int(percent) / 10
		if step == lastLogged {
			return
		}
		lastLogged = step
		logger.Debug("indexing progress", logging.Float64("percent", percent))
	})

	var run history.Run
	if journal != nil && report.RunID != "" {
		recordCtx := context.WithoutCancel(ctx)
		recorded, err := journal.Record(recordCtx, trigger, report, runErr)
		if err != nil {
			logging.WarnWithContext(logger, "failed to journal indexing pass", "history_record_failed",
				logging.String(logging.FieldRunID, report.RunID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "pass is missing from ytmeta history"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions and disk space"),
			)
		} else {
			run = recorded
			if keep > 0 {
				if removed, err := journal.Prune(recordCtx, keep); err != nil {
					logger.Warn("history prune failed", logging.Error(err))
				} else if removed > 0 {
					logger.Debug("history pruned", logging.Int64("removed", removed))
				}
			}
		}
	}

	if runErr != nil {
		logging.WarnWithContext(logger, "indexing pass did not complete", "index_pass_incomplete",
			logging.String(logging.FieldRunID, report.RunID),
			logging.Error(runErr),
			logging.String(logging.FieldImpact, "some shows keep their previous numbering"),
			logging.String(logging.FieldErrorHint, "see ytmeta history for per-item failures"),
		)
	}
	return report, run, runErr
}
