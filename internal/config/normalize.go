package config

import (
	"fmt"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.JobsFile != "" {
		if c.Paths.JobsFile, err = expandPath(c.Paths.JobsFile); err != nil {
			return err
		}
	}

	c.GoogleBooks.APIKey = strings.TrimSpace(c.GoogleBooks.APIKey)
	c.GoogleBooks.BaseURL = strings.TrimRight(strings.TrimSpace(c.GoogleBooks.BaseURL), "/")
	if c.GoogleBooks.BaseURL == "" {
		c.GoogleBooks.BaseURL = defaultBaseURL
	}
	if c.GoogleBooks.PageSize == 0 {
		c.GoogleBooks.PageSize = defaultPageSize
	}

	c.Quota.Provider = strings.TrimSpace(c.Quota.Provider)
	if c.Quota.Provider == "" {
		c.Quota.Provider = defaultProvider
	}
	c.Quota.Timezone = strings.TrimSpace(c.Quota.Timezone)
	if c.Quota.Timezone == "" {
		c.Quota.Timezone = defaultTimezone
	}

	c.Delivery.Channel = strings.TrimSpace(c.Delivery.Channel)
	if c.Delivery.Channel == "" {
		c.Delivery.Channel = defaultChannel
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}

// Validate checks configuration invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if c.GoogleBooks.PageSize < 1 || c.GoogleBooks.PageSize > 40 {
		return fmt.Errorf("google_books.page_size must be between 1 and 40, got %d", c.GoogleBooks.PageSize)
	}
	if c.Quota.DailyLimit < 1 {
		return fmt.Errorf("quota.daily_limit must be positive, got %d", c.Quota.DailyLimit)
	}
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		return fmt.Errorf("quota.timezone %q: %w", c.Quota.Timezone, err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
