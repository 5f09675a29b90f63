package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Emby credentials are
// deliberately optional: without them the fetcher degrades to empty results.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWebhook(); err != nil {
		return err
	}
	if err := c.validateEmby(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.DanmakuDir == "" {
		return errors.New("paths.danmaku_dir must be set")
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if c.Webhook.Bind == "" {
		return errors.New("webhook.bind must be set")
	}
	return nil
}

func (c *Config) validateEmby() error {
	if c.Emby.TimeoutSeconds <= 0 {
		return errors.New("emby.timeout_seconds must be positive")
	}
	if c.Emby.URL == "" && c.Emby.APIKey != "" {
		return errors.New("emby.api_key is set but emby.url is empty")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
