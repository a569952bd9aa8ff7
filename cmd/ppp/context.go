package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"podcastplus/internal/config"
	"podcastplus/internal/history"
	"podcastplus/internal/logging"
	"podcastplus/internal/notifications"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/session"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	sessionOnce sync.Once
	session     *session.Session
	sessionErr  error

	history *history.Store
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// log returns the process logger, falling back to a discard logger when the
// configured outputs cannot be opened.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		if c.verbose != nil && *c.verbose {
			copied := *cfg
			copied.Logging.Level = "debug"
			cfg = &copied
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// ensureSession loads the credential holder. A static token from the config
// is kept in memory only; otherwise the token file under state_dir is used.
func (c *commandContext) ensureSession() (*session.Session, error) {
	c.sessionOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.sessionErr = err
			return
		}
		if cfg.API.Token != "" {
			sess := session.New(nil)
			c.sessionErr = sess.Set(cfg.API.Token)
			c.session = sess
			return
		}
		sess := session.New(session.NewFileStore(cfg.SessionPath()))
		if err := sess.Load(); err != nil {
			c.sessionErr = err
			return
		}
		c.session = sess
	})
	return c.session, c.sessionErr
}

func (c *commandContext) apiClient() (*podcastapi.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	sess, err := c.ensureSession()
	if err != nil {
		return nil, err
	}
	return podcastapi.New(cfg.API.BaseURL, sess,
		podcastapi.WithTimeouts(cfg.RequestTimeout(), cfg.UploadTimeout()),
		podcastapi.WithLogger(c.log()),
	)
}

// authedClient returns a client and fails early when no token is held.
func (c *commandContext) authedClient() (*podcastapi.Client, error) {
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	if !client.Session().Authenticated() {
		return nil, errors.New("not logged in; run `ppp login` first")
	}
	return client, nil
}

func (c *commandContext) historyStore() (*history.Store, error) {
	if c.history != nil {
		return c.history, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job history: %w", err)
	}
	c.history = store
	return store, nil
}

func (c *commandContext) notifier() notifications.Service {
	cfg := c.configValue()
	if cfg == nil {
		cfg = &config.Config{}
	}
	return notifications.NewService(cfg)
}

func (c *commandContext) close() error {
	if c.history == nil {
		return nil
	}
	err := c.history.Close()
	c.history = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
