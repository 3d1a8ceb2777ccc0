package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"ytmeta/internal/config"
	"ytmeta/internal/history"
	"ytmeta/internal/logging"
)

// Daemon schedules indexing passes and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   Runner
	journal  Journal
	notifier Notifier

	lockPath string
	lock     *flock.Flock

	scheduler *cron.Cron
	watcher   *sidecarWatcher
	metrics   *metricsServer

	triggers chan history.Trigger
	running  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	active  bool
	passes  int
	lastRun history.Run
	lastErr string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PassActive   bool
	Passes       int
	LastRun      history.Run
	LastError    string
	NextRun      time.Time
	LockFilePath string
	HistoryPath  string
	MetricsAddr  string
}

// Notifier announces finished passes.
type Notifier interface {
	NotifyPass(ctx context.Context, run history.Run) error
}

// New constructs a daemon. journal may be nil to skip journaling.
func New(cfg *config.Config, runner Runner, journal Journal, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and runner")
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   runner,
		journal:  journal,
		lockPath: cfg.LockPath(),
		triggers: make(chan history.Trigger, 1),
	}, nil
}

// SetNotifier installs a pass notifier. It must be called before Start.
func (d *Daemon) SetNotifier(n Notifier) {
	d.notifier = n
}

// Start acquires the lock and launches the scheduler, watcher, and metrics
// listener. Watcher and metrics failures are logged and do not stop startup.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	lock, err := AcquireLock(d.lockPath)
	if err != nil {
		return err
	}
	d.lock = lock

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if schedule := d.cfg.Indexer.Schedule; schedule != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(schedule, func() { d.Trigger(history.TriggerSchedule) }); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("schedule %q: %w", schedule, err)
		}
		scheduler.Start()
		d.mu.Lock()
		d.scheduler = scheduler
		d.mu.Unlock()
	}

	if dirs := d.cfg.Indexer.WatchDirs; len(dirs) > 0 {
		watcher, err := newSidecarWatcher(dirs, d.cfg.WatchDebounce(), func() { d.Trigger(history.TriggerWatch) }, d.logger)
		if err != nil {
			logging.WarnWithContext(d.logger, "sidecar watch unavailable", "watch_start_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "new sidecars wait for the next scheduled pass"),
				logging.String(logging.FieldErrorHint, "check indexer.watch_dirs exist and are readable"),
			)
		} else {
			d.watcher = watcher
			d.watcher.start(runCtx)
		}
	}

	if d.cfg.Metrics.Enabled {
		server, err := newMetricsServer(d.cfg.Metrics.Bind, d.logger)
		if err != nil {
			logging.WarnWithContext(d.logger, "metrics listener unavailable", "metrics_start_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics are not exported"),
				logging.String(logging.FieldErrorHint, "choose a free metrics.bind address"),
			)
		} else {
			server.start()
			d.mu.Lock()
			d.metrics = server
			d.mu.Unlock()
		}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("ytmeta daemon started",
		logging.String("lock", d.lockPath),
		logging.String("schedule", d.cfg.Indexer.Schedule),
		logging.Int("watch_dirs", len(d.cfg.Indexer.WatchDirs)),
	)
	if d.cfg.Indexer.RunOnStart {
		d.Trigger(history.TriggerStartup)
	}
	return nil
}

// Trigger requests a pass. It reports false when a request is already
// pending, in which case the pending pass covers this one.
func (d *Daemon) Trigger(trigger history.Trigger) bool {
	select {
	case d.triggers <- trigger:
		d.logger.Debug("indexing pass requested", logging.String("trigger", string(trigger)))
		return true
	default:
		return false
	}
}

func (d *Daemon) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-d.triggers:
			d.runPass(ctx, trigger)
		}
	}
}

func (d *Daemon) runPass(ctx context.Context, trigger history.Trigger) {
	d.mu.Lock()
	d.active = true
	d.mu.Unlock()

	report, run, err := RunPass(ctx, d.runner, d.journal, trigger, d.cfg.Indexer.HistoryKeep, d.logger)
	if run.ID == "" {
		run = history.RunFromReport(trigger, report, err)
	}
	d.notify(ctx, run)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = false
	d.passes++
	d.lastRun = run
	d.lastErr = ""
	if err != nil {
		d.lastErr = err.Error()
	}
}

func (d *Daemon) notify(ctx context.Context, run history.Run) {
	if d.notifier == nil || run.ID == "" {
		return
	}
	if err := d.notifier.NotifyPass(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(d.logger, "pass notification failed", "notification_failed",
			logging.String(logging.FieldRunID, run.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "pass outcome was not announced"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and run ytmeta notify-test"),
		)
	}
}

// Stop cancels any running pass and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Lock()
	scheduler, metrics := d.scheduler, d.metrics
	d.scheduler, d.metrics = nil, nil
	d.mu.Unlock()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if d.watcher != nil {
		d.watcher.close()
		d.watcher = nil
	}
	if metrics != nil {
		metrics.stop()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("ytmeta daemon stopped")
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := Status{
		Running:      d.running.Load(),
		PassActive:   d.active,
		Passes:       d.passes,
		LastRun:      d.lastRun,
		LastError:    d.lastErr,
		LockFilePath: d.lockPath,
		HistoryPath:  d.cfg.HistoryPath(),
	}
	if d.scheduler != nil {
		if entries := d.scheduler.Entries(); len(entries) > 0 {
			status.NextRun = entries[0].Next
		}
	}
	if d.metrics != nil {
		status.MetricsAddr = d.metrics.addr()
	}
	return status
}
