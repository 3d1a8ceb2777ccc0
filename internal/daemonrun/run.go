// Package daemonrun wires configuration, logging, the Jellyfin-backed
// indexer, and the history journal into a running daemon.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/renameio/v2"

	"ytmeta/internal/config"
	"ytmeta/internal/daemon"
	"ytmeta/internal/history"
	"ytmeta/internal/indexer"
	"ytmeta/internal/logging"
	"ytmeta/internal/notifications"
	"ytmeta/internal/preflight"
	"ytmeta/internal/services/jellyfin"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// NewIndexer builds an indexer over the configured Jellyfin library. With
// jellyfin.refresh_after_index set, passes that renumbered items end with a
// library rescan.
func NewIndexer(cfg *config.Config, logger *slog.Logger, opts indexer.Options) (daemon.Runner, error) {
	client, err := jellyfin.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	idx := indexer.New(client, logger, opts)
	if !cfg.Jellyfin.RefreshAfterIndex {
		return idx, nil
	}
	return &refreshingRunner{runner: idx, library: client, logger: logging.NewComponentLogger(logger, "jellyfin")}, nil
}

type libraryRefresher interface {
	Refresh(ctx context.Context) error
}

// refreshingRunner rescans the library after passes that wrote new numbers.
// Refresh failures are logged and never fail the pass.
type refreshingRunner struct {
	runner  daemon.Runner
	library libraryRefresher
	logger  *slog.Logger
}

func (r *refreshingRunner) Run(ctx context.Context, progress indexer.ProgressFunc) (indexer.Report, error) {
	report, err := r.runner.Run(ctx, progress)
	if report.DryRun || report.Cancelled || report.SeasonsUpdated+report.EpisodesUpdated == 0 {
		return report, err
	}
	if refreshErr := r.library.Refresh(ctx); refreshErr != nil {
		logging.WarnWithContext(r.logger, "library refresh failed", "library_refresh_failed",
			logging.String(logging.FieldRunID, report.RunID),
			logging.Error(refreshErr),
			logging.String(logging.FieldImpact, "jellyfin shows the new numbering after its next scan"),
			logging.String(logging.FieldErrorHint, "check jellyfin.url and that the api key may refresh libraries"),
		)
		return report, err
	}
	r.logger.Info("library refresh requested", logging.String(logging.FieldRunID, report.RunID))
	return report, err
}

// Run starts the ytmeta daemon and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := processLogger(cfg, opts)
	if err != nil {
		return err
	}
	reportReadiness(ctx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, "ytmetad.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := history.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "history journal unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldPath, cfg.HistoryPath()),
		)
		return err
	}
	defer store.Close()

	idx, err := NewIndexer(cfg, logger, indexer.Options{
		Concurrency: cfg.Indexer.Concurrency,
		DryRun:      cfg.Indexer.DryRun,
	})
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}

	d, err := daemon.New(cfg, idx, store, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	d.SetNotifier(notifications.NewService(cfg))
	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	defer d.Stop()

	<-ctx.Done()
	logger.Info("ytmeta daemon shutting down")
	return nil
}

// processLogger logs to stdout and to a per-process file in log_dir, and
// points ytmetad.log at that file.
func processLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	name := "ytmetad-" + time.Now().UTC().Format("20060102T150405.000Z") + ".log"
	logPath := filepath.Join(cfg.Paths.LogDir, name)
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := renameio.Symlink(name, filepath.Join(cfg.Paths.LogDir, "ytmetad.log")); err != nil {
		logger.Warn("could not update ytmetad.log link", logging.Error(err))
	}
	return logger, nil
}

// reportReadiness logs the effective feature set and every failing
// preflight check. Failures never stop the daemon.
func reportReadiness(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	logger.Info("daemon configuration",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("ytdlp_binary", cfg.YTDLP.Binary),
		logging.Bool("jellyfin_enabled", cfg.Jellyfin.Enabled),
		logging.Bool("jellyfin_key_present", strings.TrimSpace(cfg.Jellyfin.APIKey) != ""),
		logging.String("schedule", cfg.Indexer.Schedule),
		logging.Int("watch_dirs", len(cfg.Indexer.WatchDirs)),
		logging.Bool("metrics_enabled", cfg.Metrics.Enabled),
		logging.Bool("notifications_enabled", cfg.Notifications.NtfyTopic != ""),
	)
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.Bool("optional", result.Optional),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "passes that need this check may fail"),
			logging.String(logging.FieldErrorHint, "run ytmeta doctor for details"),
		)
	}
}

func writePIDFile(path string) error {
	return renameio.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
