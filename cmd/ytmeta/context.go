package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ytmeta/internal/config"
	"ytmeta/internal/infocache"
	"ytmeta/internal/logging"
)

// skipConfigLoad marks commands that load (or write) configuration
// themselves.
const skipConfigLoad = "skipConfigLoad"

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// cliLogger writes to stderr only, leaving stdout for command output. The
// default level is warn so lookups stay quiet unless something goes wrong.
func (c *commandContext) cliLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		level := c.logLevel()
		if level == "" {
			level = "warn"
		}
		format := "console"
		if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
			format = cfg.Logging.Format
		}
		logger, err := logging.New(logging.Options{Level: level, Format: format, OutputPaths: []string{"stderr"}})
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) cache(cfg *config.Config) *infocache.Cache {
	return c.cacheWithPolicy(cfg, infocache.TTL(cfg.FreshnessTTL()))
}

func (c *commandContext) cacheWithPolicy(cfg *config.Config, policy infocache.Policy) *infocache.Cache {
	return infocache.New(cfg.Paths.CacheDir, policy, c.cliLogger())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
