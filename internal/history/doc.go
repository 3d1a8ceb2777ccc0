// Package history journals indexing passes in SQLite so operators can see
// when passes ran, what they changed, and which items failed.
//
// The database lives at <state_dir>/history.db. The schema is versioned; a
// mismatch is reported instead of migrated because the journal is
// disposable.
package history
