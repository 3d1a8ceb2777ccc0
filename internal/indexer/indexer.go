package indexer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ytmeta/internal/library"
	"ytmeta/internal/logging"
	"ytmeta/internal/media"
	"ytmeta/internal/metrics"
	"ytmeta/internal/services"
)

// ProgressFunc receives the percentage of shows completed, 0-100.
type ProgressFunc func(percent float64)

// Options tunes a pass.
type Options struct {
	// Concurrency is how many shows are processed at once. Values below one
	// mean one.
	Concurrency int
	// DryRun computes every assignment without writing.
	DryRun bool
}

// Indexer runs indexing passes against a library.
type Indexer struct {
	lib    library.Library
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New builds an indexer.
func New(lib library.Library, logger *slog.Logger, opts Options) *Indexer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Indexer{
		lib:    lib,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "indexer"),
		now:    time.Now,
	}
}

// Run executes one pass. It returns ctx.Err() with the partial report when
// cancelled, and an error when the show list itself cannot be read. Per-item
// write failures are recorded in the report, not returned.
func (x *Indexer) Run(ctx context.Context, progress ProgressFunc) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: x.now(),
		DryRun:    x.opts.DryRun,
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, x.logger)
	logger.Info("indexing pass started",
		logging.Bool("dry_run", x.opts.DryRun),
		logging.Int("concurrency", x.opts.Concurrency),
	)
	defer func() {
		metrics.ObservePass(report.Duration())
	}()

	shows, err := x.lib.Shows(ctx)
	if err != nil {
		report.FinishedAt = x.now()
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Cancelled = true
			return report, ctxErr
		}
		return report, services.Wrap(services.ErrExternalTool, "indexer", "list shows", "", err)
	}
	report.ShowsTotal = len(shows)

	var (
		mu   sync.Mutex
		done int
	)
	finishShow := func(res showResult) {
		mu.Lock()
		defer mu.Unlock()
		report.merge(res)
		done++
		percent := float64(done) / float64(len(shows)) * 100
		metrics.SetProgress(percent)
		if progress != nil {
			progress(percent)
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(x.opts.Concurrency)
	for _, show := range shows {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			res, err := x.indexShow(gctx, show)
			finishShow(res)
			return err
		})
	}
	runErr := group.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	report.FinishedAt = x.now()
	if runErr != nil {
		report.Cancelled = true
		logging.WarnWithContext(logger, "indexing pass cancelled", "index_cancelled",
			logging.Int("shows_done", done),
			logging.Int("shows_total", len(shows)),
			logging.String(logging.FieldImpact, "remaining shows keep their previous numbering"),
			logging.String(logging.FieldErrorHint, "rerun the pass; it is idempotent"),
		)
		return report, runErr
	}
	logger.Info("indexing pass finished",
		logging.Int("shows", report.ShowsIndexed),
		logging.Int("skipped", report.ShowsSkipped),
		logging.Int("seasons", report.SeasonsUpdated),
		logging.Int("episodes", report.EpisodesUpdated),
		logging.Int("failures", len(report.Failures)),
		logging.Duration("elapsed", report.Duration()),
	)
	return report, nil
}

// indexShow processes one show. The returned error is non-nil only on
// cancellation.
func (x *Indexer) indexShow(ctx context.Context, show library.Item) (showResult, error) {
	var res showResult
	ctx = services.WithShow(ctx, show.Name)
	logger := logging.WithContext(ctx, x.logger)

	if _, ok := show.ProviderID(media.ProviderKey); !ok {
		logger.Debug("skipping show without provider id")
		res.skipped = true
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	logger.Debug("indexing show")

	seasons, err := x.lib.Seasons(ctx, show.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.failures = append(res.failures, x.failure(logger, show, show, err, "list seasons"))
		return res, nil
	}
	sortSeasons(seasons)
	res.indexed = true

	w := &writer{x: x, show: show, logger: logger, res: &res}
	for i, season := range seasons {
		seasonIndex := i + 1
		if err := ctx.Err(); err != nil {
			return res, err
		}
		season.IndexNumber = library.IntPtr(seasonIndex)
		w.apply(ctx, season, Change{
			Kind:        string(library.KindSeason),
			IndexNumber: seasonIndex,
		})
		if w.halted {
			return res, ctx.Err()
		}

		episodes, err := x.lib.Episodes(ctx, season.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.failures = append(res.failures, x.failure(logger, show, season, err, "list episodes"))
			continue
		}
		for _, ep := range episodes {
			if ep.PremiereDate == nil {
				logging.WarnWithContext(logger, "episode has no premiere date", "episode_undated",
					logging.String("episode", ep.Name),
					logging.String(logging.FieldPath, ep.Path),
					logging.String("season", season.Name),
					logging.String(logging.FieldErrorHint, "ensure the sidecar carries upload_date and refresh metadata"),
					logging.String(logging.FieldImpact, "season uses sequential numbering"),
				)
			}
		}
		sortEpisodes(episodes)

		mode := ModeDate
		var assigned []assignment
		if allDated(episodes) {
			assigned = dateIndices(episodes)
		} else {
			mode = ModeSequential
			logger.Info("season has undated episodes; using sequential numbering", logging.String("season", season.Name))
			assigned = sequentialIndices(episodes, seasonIndex)
		}

		for i, ep := range episodes {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			ep.IndexNumber = library.IntPtr(assigned[i].index)
			ep.ParentIndexNumber = library.IntPtr(assigned[i].parent)
			w.apply(ctx, ep, Change{
				Kind:              string(library.KindEpisode),
				Mode:              mode,
				IndexNumber:       assigned[i].index,
				ParentIndexNumber: library.IntPtr(assigned[i].parent),
			})
			if w.halted {
				return res, ctx.Err()
			}
		}
	}
	return res, nil
}

// writer persists assignments for one show and stops after a fatal error.
type writer struct {
	x      *Indexer
	show   library.Item
	logger *slog.Logger
	res    *showResult
	halted bool
}

func (w *writer) apply(ctx context.Context, item library.Item, change Change) {
	change.ShowName = w.show.Name
	change.ItemID = item.ID
	change.Name = item.Name
	if w.x.opts.DryRun {
		w.res.changes = append(w.res.changes, change)
		return
	}
	err := w.x.lib.UpdateItem(ctx, item)
	if err == nil {
		change.Applied = true
		w.res.changes = append(w.res.changes, change)
		if change.Kind == string(library.KindSeason) {
			w.res.seasons++
			metrics.RecordItemUpdated("season")
		} else {
			w.res.episodes++
			metrics.RecordItemUpdated("episode")
		}
		w.logger.Debug("item reindexed",
			logging.String("item", item.Name),
			logging.String("item_kind", change.Kind),
			logging.Int("index", change.IndexNumber),
			logging.Any("parent_index", derefInt(change.ParentIndexNumber)),
		)
		return
	}
	if ctx.Err() != nil {
		w.halted = true
		return
	}
	failure := w.x.failure(w.logger, w.show, item, err, "update "+change.Kind)
	w.res.failures = append(w.res.failures, failure)
	metrics.RecordItemFailed()
	if failure.Fatal {
		w.halted = true
	}
}

func (x *Indexer) failure(logger *slog.Logger, show, item library.Item, err error, operation string) Failure {
	fatal := library.IsFatal(err)
	impact := "item keeps its previous index; the pass continues"
	if fatal {
		impact = "remaining items of this show are skipped"
	}
	logging.WarnWithContext(logger, "indexing step failed", "index_item_failed",
		logging.String("operation", operation),
		logging.String("item_id", item.ID),
		logging.String("item", item.Name),
		logging.Bool("fatal", fatal),
		logging.Error(err),
		logging.String(logging.FieldImpact, impact),
		logging.String(logging.FieldErrorHint, "check media server logs and permissions"),
	)
	kind := services.FailureKind(err)
	var fe *library.FatalError
	if errors.As(err, &fe) && kind == "transient" {
		kind = "fatal"
	}
	return Failure{
		ShowID:   show.ID,
		ShowName: show.Name,
		ItemID:   item.ID,
		ItemKind: string(item.Kind),
		Kind:     kind,
		Message:  err.Error(),
		Fatal:    fatal,
	}
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
