package daemonrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ytmeta/internal/indexer"
	"ytmeta/internal/logging"
	"ytmeta/internal/services"
	"ytmeta/internal/testsupport"
)

func TestNewIndexerRequiresJellyfin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := NewIndexer(cfg, logging.NewNop(), indexer.Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithJellyfin("http://127.0.0.1:1", "key"))
	runner, err := NewIndexer(cfg, logging.NewNop(), indexer.Options{})
	if err != nil {
		t.Fatalf("NewIndexer: %v", err)
	}
	if _, ok := runner.(*indexer.Indexer); !ok {
		t.Fatalf("expected plain indexer without refresh, got %T", runner)
	}

	cfg.Jellyfin.RefreshAfterIndex = true
	runner, err = NewIndexer(cfg, logging.NewNop(), indexer.Options{})
	if err != nil {
		t.Fatalf("NewIndexer: %v", err)
	}
	if _, ok := runner.(*refreshingRunner); !ok {
		t.Fatalf("expected refreshing runner, got %T", runner)
	}
}

type stubRunner struct {
	report indexer.Report
	err    error
}

func (s stubRunner) Run(context.Context, indexer.ProgressFunc) (indexer.Report, error) {
	return s.report, s.err
}

type countingRefresher struct {
	calls int
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls++
	return c.err
}

func TestRefreshingRunner(t *testing.T) {
	passErr := errors.New("one item failed")
	tests := []struct {
		name        string
		report      indexer.Report
		runErr      error
		refreshErr  error
		wantRefresh int
	}{
		{name: "updated", report: indexer.Report{EpisodesUpdated: 3}, wantRefresh: 1},
		{name: "seasons only", report: indexer.Report{SeasonsUpdated: 1}, wantRefresh: 1},
		{name: "nothing written", report: indexer.Report{}},
		{name: "dry run", report: indexer.Report{DryRun: true, EpisodesUpdated: 3}},
		{name: "cancelled", report: indexer.Report{Cancelled: true, EpisodesUpdated: 2}},
		{name: "partial failure", report: indexer.Report{EpisodesUpdated: 2}, runErr: passErr, wantRefresh: 1},
		{name: "refresh fails", report: indexer.Report{EpisodesUpdated: 1}, refreshErr: errors.New("502"), wantRefresh: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &countingRefresher{err: tt.refreshErr}
			r := &refreshingRunner{
				runner:  stubRunner{report: tt.report, err: tt.runErr},
				library: refresher,
				logger:  logging.NewNop(),
			}
			report, err := r.Run(context.Background(), nil)
			if !errors.Is(err, tt.runErr) || (tt.runErr == nil && err != nil) {
				t.Fatalf("Run error = %v, want %v", err, tt.runErr)
			}
			if report.EpisodesUpdated != tt.report.EpisodesUpdated {
				t.Fatalf("report not passed through: %+v", report)
			}
			if refresher.calls != tt.wantRefresh {
				t.Fatalf("refresh calls = %d, want %d", refresher.calls, tt.wantRefresh)
			}
		})
	}
}

func TestRunFailsWithoutJellyfin(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	err := Run(context.Background(), cfg, Options{LogLevel: "error"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Paths.StateDir, "ytmetad.pid")); !os.IsNotExist(statErr) {
		t.Fatalf("pid file should be removed on exit, stat err %v", statErr)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithJellyfin("http://127.0.0.1:1", "key"),
	)
	cfg.Indexer.Schedule = ""
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, cfg, Options{LogLevel: "error"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(cfg.Paths.LogDir, "ytmetad.log")); err != nil {
		t.Fatalf("expected log pointer: %v", err)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytmetad.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Fatalf("unexpected pid file %q", data)
	}
}
