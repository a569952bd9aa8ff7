package config

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	uploadCategories = map[string]struct{}{
		"intro": {}, "outro": {}, "music": {}, "commercial": {}, "sfx": {},
		"main_content": {}, "podcast_cover": {}, "episode_cover": {},
	}
	logFormats = map[string]struct{}{"console": {}, "json": {}}
	logLevels  = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateWizard(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", c.API.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", c.API.BaseURL)
	}
	if c.API.RequestTimeout < 0 {
		return errors.New("api.request_timeout must be positive")
	}
	if c.API.UploadTimeout < 0 {
		return errors.New("api.upload_timeout must be positive")
	}
	return nil
}

func (c *Config) validateWizard() error {
	if c.Wizard.PollIntervalSeconds < 1 {
		return errors.New("wizard.poll_interval_seconds must be at least 1")
	}
	if _, ok := uploadCategories[c.Wizard.UploadCategory]; !ok {
		return fmt.Errorf("wizard.upload_category: unsupported value %q", c.Wizard.UploadCategory)
	}
	if _, ok := uploadCategories[c.Wizard.CoverCategory]; !ok {
		return fmt.Errorf("wizard.cover_category: unsupported value %q", c.Wizard.CoverCategory)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := logFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if _, ok := logLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
