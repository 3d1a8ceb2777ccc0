package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ytmeta/internal/indexer"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Record journals a finished pass together with its failures. runErr is the
// error the pass returned, if any.
func (s *Store) Record(ctx context.Context, trigger Trigger, report indexer.Report, runErr error) (Run, error) {
	if strings.TrimSpace(report.RunID) == "" {
		return Run{}, errors.New("record run: missing run id")
	}
	run := RunFromReport(trigger, report, runErr)

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `INSERT INTO runs (`+runColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			string(run.Trigger),
			formatTime(run.StartedAt),
			nullableTime(run.FinishedAt),
			boolToInt(run.DryRun),
			boolToInt(run.Cancelled),
			run.ShowsTotal,
			run.ShowsIndexed,
			run.ShowsSkipped,
			run.SeasonsUpdated,
			run.EpisodesUpdated,
			run.FailureCount,
			nullableString(run.ErrorMessage),
		); err != nil {
			return err
		}
		for _, f := range report.Failures {
			if _, err := tx.ExecContext(ctx, `INSERT INTO run_failures
                (run_id, show_id, show_name, item_id, item_kind, kind, message, fatal)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID,
				nullableString(f.ShowID),
				nullableString(f.ShowName),
				nullableString(f.ItemID),
				nullableString(f.ItemKind),
				nullableString(f.Kind),
				nullableString(f.Message),
				boolToInt(f.Fatal),
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// Failures returns the failures recorded for a run in insertion order.
func (s *Store) Failures(ctx context.Context, runID string) ([]indexer.Failure, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT show_id, show_name, item_id, item_kind, kind, message, fatal
        FROM run_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var failures []indexer.Failure
	for rows.Next() {
		var (
			showID, showName, itemID, itemKind, kind, message sql.NullString
			fatal                                             int
		)
		if err := rows.Scan(&showID, &showName, &itemID, &itemKind, &kind, &message, &fatal); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, indexer.Failure{
			ShowID:   showID.String,
			ShowName: showName.String,
			ItemID:   itemID.String,
			ItemKind: itemKind.String,
			Kind:     kind.String,
			Message:  message.String,
			Fatal:    fatal != 0,
		})
	}
	return failures, rows.Err()
}

// Prune keeps the newest keep runs and deletes the rest. Failures cascade.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}
