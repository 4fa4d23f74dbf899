package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeX()
	c.normalizeSchedule()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	var err error
	c.Store.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Store.Backend))))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultBackend
	}

	c.Store.SheetName = strings.TrimSpace(c.Store.SheetName)
	c.Store.SpreadsheetID = strings.TrimSpace(c.Store.SpreadsheetID)
	c.Store.Worksheet = strings.TrimSpace(c.Store.Worksheet)

	c.Store.CredentialsFile = strings.TrimSpace(c.Store.CredentialsFile)
	if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok && strings.TrimSpace(value) != "" {
		if c.Store.CredentialsFile == "" || c.Store.CredentialsFile == defaultCredentialsFile {
			c.Store.CredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.Store.CredentialsFile, err = expandPath(c.Store.CredentialsFile); err != nil {
		return fmt.Errorf("store.credentials_file: %w", err)
	}

	if c.Store.WorkbookPath, err = expandPath(strings.TrimSpace(c.Store.WorkbookPath)); err != nil {
		return fmt.Errorf("store.workbook_path: %w", err)
	}

	if strings.TrimSpace(c.Store.DatabasePath) == "" {
		c.Store.DatabasePath = filepath.Join(c.Paths.StateDir, defaultDatabaseFile)
	}
	if c.Store.DatabasePath, err = expandPath(strings.TrimSpace(c.Store.DatabasePath)); err != nil {
		return fmt.Errorf("store.database_path: %w", err)
	}

	c.Store.ContentColumn = defaultIfBlank(c.Store.ContentColumn, defaultContentColumn)
	c.Store.StatusColumn = defaultIfBlank(c.Store.StatusColumn, defaultStatusColumn)
	c.Store.PendingValue = defaultIfBlank(c.Store.PendingValue, defaultPendingValue)
	c.Store.DoneValue = defaultIfBlank(c.Store.DoneValue, defaultDoneValue)
	return nil
}

func (c *Config) normalizeX() {
	c.X.APIKey = envFallback(c.X.APIKey, "X_API_KEY")
	c.X.APISecret = envFallback(c.X.APISecret, "X_API_SECRET")
	c.X.AccessToken = envFallback(c.X.AccessToken, "X_ACCESS_TOKEN")
	c.X.AccessTokenSecret = envFallback(c.X.AccessTokenSecret, "X_ACCESS_TOKEN_SECRET")
	c.X.BaseURL = strings.TrimRight(strings.TrimSpace(c.X.BaseURL), "/")
	if c.X.BaseURL == "" {
		c.X.BaseURL = defaultXBaseURL
	}
	if c.X.DailyCap < 0 {
		c.X.DailyCap = 0
	}
}

func (c *Config) normalizeSchedule() {
	c.Schedule.OnExhausted = ExhaustedPolicy(strings.ToLower(strings.TrimSpace(string(c.Schedule.OnExhausted))))
	if c.Schedule.OnExhausted == "" {
		c.Schedule.OnExhausted = defaultOnExhausted
	}
	c.Schedule.MarkPolicy = MarkPolicy(strings.ToLower(strings.TrimSpace(string(c.Schedule.MarkPolicy))))
	if c.Schedule.MarkPolicy == "" {
		c.Schedule.MarkPolicy = defaultMarkPolicy
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}

func defaultIfBlank(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
