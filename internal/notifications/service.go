package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytmeta/internal/config"
	"ytmeta/internal/history"
)

const userAgent = "ytmeta/0.1"

// Service is the notification surface used by the daemon.
type Service interface {
	NotifyPass(ctx context.Context, run history.Run) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		notifySuccess: cfg.Notifications.NotifySuccess,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	notifySuccess bool
}

func (n *ntfyService) NotifyPass(ctx context.Context, run history.Run) error {
	if run.Succeeded() && !n.notifySuccess {
		return nil
	}
	return n.send(ctx, passPayload(run))
}

func passPayload(run history.Run) payload {
	duration := run.Duration().Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	counts := fmt.Sprintf("%d shows, %d seasons, %d episodes renumbered in %s",
		run.ShowsIndexed, run.SeasonsUpdated, run.EpisodesUpdated, duration)
	if run.DryRun {
		counts = "Dry run: " + counts
	}

	switch {
	case run.Cancelled:
		return payload{
			title:   "ytmeta - Pass Cancelled",
			message: fmt.Sprintf("Indexing pass %s was cancelled after %s", run.ID, counts),
			tags:    []string{"ytmeta", "index", "cancelled"},
		}
	case run.ErrorMessage != "":
		return payload{
			title:    "ytmeta - Pass Failed",
			message:  fmt.Sprintf("Indexing pass %s failed: %s", run.ID, strings.TrimSpace(run.ErrorMessage)),
			tags:     []string{"ytmeta", "index", "error"},
			priority: "high",
		}
	case run.FailureCount > 0:
		return payload{
			title:   "ytmeta - Pass Complete (with errors)",
			message: fmt.Sprintf("%s\n%d items failed; see ytmeta history show %s", counts, run.FailureCount, run.ID),
			tags:    []string{"ytmeta", "index", "warning"},
		}
	default:
		return payload{
			title:   "ytmeta - Pass Complete",
			message: counts,
			tags:    []string{"ytmeta", "index", "completed"},
		}
	}
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "ytmeta - Test",
		message:  "Notification system test",
		tags:     []string{"ytmeta", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPass(context.Context, history.Run) error { return nil }
func (noopService) TestNotification(context.Context) error        { return nil }
