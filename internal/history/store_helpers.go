package history

import (
	"database/sql"
	"time"
)

const timeLayout = time.RFC3339Nano

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func parseTimeString(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

const runColumns = `id, trigger_source, started_at, finished_at, dry_run, cancelled,
    shows_total, shows_indexed, shows_skipped, seasons_updated, episodes_updated,
    failure_count, error_message`

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		trigger    string
		startedAt  string
		finishedAt sql.NullString
		dryRun     int
		cancelled  int
		errMessage sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&trigger,
		&startedAt,
		&finishedAt,
		&dryRun,
		&cancelled,
		&run.ShowsTotal,
		&run.ShowsIndexed,
		&run.ShowsSkipped,
		&run.SeasonsUpdated,
		&run.EpisodesUpdated,
		&run.FailureCount,
		&errMessage,
	); err != nil {
		return Run{}, err
	}
	run.Trigger = Trigger(trigger)
	run.StartedAt = parseTimeString(startedAt)
	run.FinishedAt = parseTimeString(finishedAt.String)
	run.DryRun = dryRun != 0
	run.Cancelled = cancelled != 0
	run.ErrorMessage = errMessage.String
	return run, nil
}
