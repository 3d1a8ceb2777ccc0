// Package daemon coordinates the long-running ytmeta process.
//
// It holds a flock-based single-instance lock, runs the indexing pass on the
// configured cron schedule, optionally watches media directories for new
// *.info.json sidecars and triggers a debounced pass, serves Prometheus
// metrics, and journals every pass to the history store. Triggers that arrive
// while a pass is running coalesce into one follow-up pass.
//
// Keep orchestration here: the indexing algorithm lives in internal/indexer
// and the journal in internal/history.
package daemon
