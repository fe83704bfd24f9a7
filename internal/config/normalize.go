package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.DataDir, &c.Paths.DownloadDir, &c.Paths.LogDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Rights.BaseURL = strings.TrimRight(strings.TrimSpace(c.Rights.BaseURL), "/")
	c.Archive.BaseURL = strings.TrimRight(strings.TrimSpace(c.Archive.BaseURL), "/")
	c.Rights.URNPrefix = strings.TrimSpace(c.Rights.URNPrefix)

	if c.Rights.Token == "" {
		if env, ok := os.LookupEnv("CLEARCART_RIGHTS_TOKEN"); ok {
			c.Rights.Token = strings.TrimSpace(env)
		}
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
