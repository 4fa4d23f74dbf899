package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateX(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return nil
}

// RequirePostingCredentials reports an error when any posting API credential is missing.
// Only the daemon needs them; the operator CLI works without.
func (c *Config) RequirePostingCredentials() error {
	var missing []string
	if c.X.APIKey == "" {
		missing = append(missing, "x.api_key (X_API_KEY)")
	}
	if c.X.APISecret == "" {
		missing = append(missing, "x.api_secret (X_API_SECRET)")
	}
	if c.X.AccessToken == "" {
		missing = append(missing, "x.access_token (X_ACCESS_TOKEN)")
	}
	if c.X.AccessTokenSecret == "" {
		missing = append(missing, "x.access_token_secret (X_ACCESS_TOKEN_SECRET)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing posting credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendSheets:
		if c.Store.SheetName == "" && c.Store.SpreadsheetID == "" {
			return errors.New("store.sheet_name or store.spreadsheet_id must be set for the sheets backend")
		}
		if c.Store.CredentialsFile == "" {
			return errors.New("store.credentials_file must be set for the sheets backend")
		}
	case BackendWorkbook:
		if c.Store.WorkbookPath == "" {
			return errors.New("store.workbook_path must be set for the workbook backend")
		}
	case BackendSQLite:
		if c.Store.DatabasePath == "" {
			return errors.New("store.database_path must be set for the sqlite backend")
		}
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want sheets, workbook, or sqlite)", c.Store.Backend)
	}
	if c.Store.ContentColumn == c.Store.StatusColumn {
		return errors.New("store.content_column and store.status_column must differ")
	}
	if c.Store.PendingValue == c.Store.DoneValue {
		return errors.New("store.pending_value and store.done_value must differ")
	}
	return nil
}

func (c *Config) validateX() error {
	if !strings.HasPrefix(c.X.BaseURL, "http://") && !strings.HasPrefix(c.X.BaseURL, "https://") {
		return fmt.Errorf("x.base_url must be an http(s) URL, got %q", c.X.BaseURL)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.PostsPerDay <= 0 || c.Schedule.PostsPerDay > 86400 {
		return fmt.Errorf("schedule.posts_per_day must be between 1 and 86400, got %d", c.Schedule.PostsPerDay)
	}
	if c.X.DailyCap > 0 && c.X.DailyCap < c.Schedule.PostsPerDay {
		return fmt.Errorf("x.daily_cap (%d) must be 0 or at least schedule.posts_per_day (%d)", c.X.DailyCap, c.Schedule.PostsPerDay)
	}
	if c.Schedule.IdleInterval <= 0 {
		return errors.New("schedule.idle_interval must be positive")
	}
	if c.Schedule.RateLimitBackoff <= 0 {
		return errors.New("schedule.rate_limit_backoff must be positive")
	}
	if c.Schedule.ErrorRetryInterval <= 0 {
		return errors.New("schedule.error_retry_interval must be positive")
	}
	switch c.Schedule.OnExhausted {
	case ExhaustedRetryLater, ExhaustedTerminate:
	default:
		return fmt.Errorf("schedule.on_exhausted: unsupported value %q (want retry_later or terminate)", c.Schedule.OnExhausted)
	}
	switch c.Schedule.MarkPolicy {
	case MarkBeforePost, MarkAfterPost:
	default:
		return fmt.Errorf("schedule.mark_policy: unsupported value %q (want before_post or after_post)", c.Schedule.MarkPolicy)
	}
	return nil
}
