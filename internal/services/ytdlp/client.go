package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ytmeta/internal/config"
	"ytmeta/internal/infocache"
	"ytmeta/internal/logging"
	"ytmeta/internal/metrics"
	"ytmeta/internal/services"
	"ytmeta/internal/ytid"
)

const (
	searchURL     = "https://www.youtube.com/results?search_query=%s&sp=EgIQAg%%253D%%253D"
	outputStem    = "ytvideo"
	outputSidecar = outputStem + ".info.json"
	stderrTail    = 5
)

// Fetcher resolves and downloads remote YouTube metadata.
type Fetcher interface {
	SearchChannel(ctx context.Context, name string) (string, error)
	FetchChannelInfo(ctx context.Context, channelID, name string) error
	FetchVideoInfo(ctx context.Context, videoID string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLimiter replaces the invocation rate limiter. A nil limiter disables
// throttling.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
	limiter *rate.Limiter
	cache   *infocache.Cache
	logger  *slog.Logger
}

// New constructs a yt-dlp client that installs downloads into cache.
func New(binary string, timeoutSeconds, requestsPerMinute int, cache *infocache.Cache, logger *slog.Logger, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	if cache == nil {
		return nil, errors.New("info cache required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "ytdlp"),
	}
	if requestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the [ytdlp] section.
func NewFromConfig(cfg *config.Config, cache *infocache.Cache, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	return New(cfg.YTDLP.Binary, cfg.YTDLP.TimeoutSeconds, cfg.YTDLP.RequestsPerMinute, cache, logger, opts...)
}

// SearchChannel returns the id of the first channel matching name.
func (c *Client) SearchChannel(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "ytdlp", "search channel", "channel name required", nil)
	}
	args := []string{
		"--flat-playlist",
		"--playlist-items", "1",
		"--print", "id",
		fmt.Sprintf(searchURL, url.QueryEscape(name)),
	}
	var found string
	err := c.run(ctx, "search_channel", args, func(line string) {
		line = strings.TrimSpace(line)
		if found == "" && ytid.Valid(ytid.KindChannel, line) {
			found = line
		}
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", services.Wrap(services.ErrNotFound, "ytdlp", "search channel", fmt.Sprintf("no channel matches %q", name), nil)
	}
	c.logger.Debug("channel resolved", logging.String("name", name), logging.String("channel_id", found))
	return found, nil
}

// FetchChannelInfo downloads the channel sidecar and caches it under name.
func (c *Client) FetchChannelInfo(ctx context.Context, channelID, name string) error {
	if !ytid.Valid(ytid.KindChannel, channelID) {
		return services.Wrap(services.ErrValidation, "ytdlp", "fetch channel", fmt.Sprintf("invalid channel id %q", channelID), nil)
	}
	return c.fetch(ctx, "fetch_channel", ytid.ChannelURL(channelID), name, true)
}

// FetchVideoInfo downloads the video sidecar and caches it under the id.
func (c *Client) FetchVideoInfo(ctx context.Context, videoID string) error {
	if !ytid.Valid(ytid.KindVideo, videoID) {
		return services.Wrap(services.ErrValidation, "ytdlp", "fetch video", fmt.Sprintf("invalid video id %q", videoID), nil)
	}
	return c.fetch(ctx, "fetch_video", ytid.VideoURL(videoID), videoID, false)
}

func (c *Client) fetch(ctx context.Context, operation, target, key string, playlist bool) error {
	tmp, err := os.MkdirTemp("", "ytmeta-fetch-")
	if err != nil {
		return fmt.Errorf("create fetch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	args := []string{"--skip-download", "--write-info-json"}
	template := "infojson:"
	if playlist {
		// Channel pages are playlists; no items means only the channel document.
		args = append(args, "--playlist-items", "0")
		template = "pl_infojson:"
	} else {
		args = append(args, "--no-write-playlist-metafiles")
	}
	args = append(args, "-o", template+filepath.Join(tmp, outputStem), target)

	if err := c.run(ctx, operation, args, nil); err != nil {
		return err
	}
	written := filepath.Join(tmp, outputSidecar)
	if _, err := os.Stat(written); err != nil {
		return services.Wrap(services.ErrExternalTool, "ytdlp", operation, "yt-dlp produced no info file", err)
	}
	if err := c.cache.Install(key, written); err != nil {
		return services.Wrap(services.ErrExternalTool, "ytdlp", operation, "install sidecar", err)
	}
	c.logger.Info("sidecar fetched",
		logging.String("operation", operation),
		logging.String("key", key),
		logging.String(logging.FieldPath, c.cache.Path(key)),
	)
	return nil
}

func (c *Client) run(ctx context.Context, operation string, args []string, onLine func(string)) (err error) {
	defer func() { metrics.RecordFetch(operation, err) }()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return services.Wrap(services.ErrTimeout, "ytdlp", operation, "waiting for rate limiter", werr)
		}
	}
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var tail []string
	started := time.Now()
	runErr := c.exec.Run(runCtx, c.binary, args, func(line string) {
		if onLine != nil {
			onLine(line)
		}
		if strings.HasPrefix(line, "ERROR:") {
			tail = append(tail, line)
			if len(tail) > stderrTail {
				tail = tail[1:]
			}
		}
	})
	c.logger.Debug("yt-dlp finished",
		logging.String("operation", operation),
		logging.Duration("elapsed", time.Since(started)),
		logging.Bool("ok", runErr == nil),
	)
	if runErr == nil {
		return nil
	}
	switch {
	case errors.Is(runErr, exec.ErrNotFound), errors.Is(runErr, fs.ErrNotExist):
		return services.Wrap(services.ErrToolUnavailable, "ytdlp", operation, fmt.Sprintf("binary %q not found", c.binary), runErr)
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "ytdlp", operation, fmt.Sprintf("exceeded %s", c.timeout), runErr)
	}
	message := "yt-dlp failed"
	if len(tail) > 0 {
		message = strings.Join(tail, "; ")
	}
	return services.Wrap(services.ErrExternalTool, "ytdlp", operation, message, runErr)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
	)
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onStdout == nil {
				continue
			}
			mu.Lock()
			onStdout(scanner.Text())
			mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
