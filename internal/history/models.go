package history

import (
	"time"

	"ytmeta/internal/indexer"
)

// Trigger names what started a pass.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerWatch    Trigger = "watch"
	TriggerStartup  Trigger = "startup"
)

// Run is one journaled indexing pass.
type Run struct {
	ID              string
	Trigger         Trigger
	StartedAt       time.Time
	FinishedAt      time.Time
	DryRun          bool
	Cancelled       bool
	ShowsTotal      int
	ShowsIndexed    int
	ShowsSkipped    int
	SeasonsUpdated  int
	EpisodesUpdated int
	FailureCount    int
	ErrorMessage    string
}

// Duration returns how long the pass ran, or zero when it never finished.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the pass finished without failures or errors.
func (r Run) Succeeded() bool {
	return !r.Cancelled && r.FailureCount == 0 && r.ErrorMessage == ""
}

// RunFromReport summarizes a finished pass without storing it.
func RunFromReport(trigger Trigger, report indexer.Report, runErr error) Run {
	run := Run{
		ID:              report.RunID,
		Trigger:         trigger,
		StartedAt:       report.StartedAt,
		FinishedAt:      report.FinishedAt,
		DryRun:          report.DryRun,
		Cancelled:       report.Cancelled,
		ShowsTotal:      report.ShowsTotal,
		ShowsIndexed:    report.ShowsIndexed,
		ShowsSkipped:    report.ShowsSkipped,
		SeasonsUpdated:  report.SeasonsUpdated,
		EpisodesUpdated: report.EpisodesUpdated,
		FailureCount:    len(report.Failures),
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	return run
}
