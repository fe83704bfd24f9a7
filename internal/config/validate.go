package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRights(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRights() error {
	if c.Rights.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/clearcart/config.toml"
		}
		return fmt.Errorf("rights.base_url is required; edit %s (create with 'clearcart config new')", defaultPath)
	}
	if _, err := url.Parse(c.Rights.BaseURL); err != nil {
		return fmt.Errorf("rights.base_url is not a valid URL: %w", err)
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.BaseURL == "" {
		return errors.New("archive.base_url is required")
	}
	if _, err := url.Parse(c.Archive.BaseURL); err != nil {
		return fmt.Errorf("archive.base_url is not a valid URL: %w", err)
	}
	if c.Archive.PollIntervalSeconds <= 0 {
		return errors.New("archive.poll_interval_seconds must be positive")
	}
	if c.Archive.PollMaxAttempts <= 0 {
		return errors.New("archive.poll_max_attempts must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
