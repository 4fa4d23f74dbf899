package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Backend names a Content Store implementation.
type Backend string

const (
	BackendSheets   Backend = "sheets"
	BackendWorkbook Backend = "workbook"
	BackendSQLite   Backend = "sqlite"
)

// ExhaustedPolicy controls what the poster loop does when no pending content remains.
type ExhaustedPolicy string

const (
	ExhaustedRetryLater ExhaustedPolicy = "retry_later"
	ExhaustedTerminate  ExhaustedPolicy = "terminate"
)

// MarkPolicy controls when a row is transitioned Pending -> Done relative to the post.
type MarkPolicy string

const (
	// MarkBeforePost consumes the row before posting (at-most-once).
	MarkBeforePost MarkPolicy = "before_post"
	// MarkAfterPost consumes the row only after a confirmed post (at-least-once).
	MarkAfterPost MarkPolicy = "after_post"
)

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Store contains configuration for the content source.
type Store struct {
	Backend         Backend `toml:"backend"`
	SheetName       string  `toml:"sheet_name"`
	SpreadsheetID   string  `toml:"spreadsheet_id"`
	Worksheet       string  `toml:"worksheet"`
	CredentialsFile string  `toml:"credentials_file"`
	WorkbookPath    string  `toml:"workbook_path"`
	DatabasePath    string  `toml:"database_path"`
	ContentColumn   string  `toml:"content_column"`
	StatusColumn    string  `toml:"status_column"`
	PendingValue    string  `toml:"pending_value"`
	DoneValue       string  `toml:"done_value"`
	BackupOnWrite   bool    `toml:"backup_on_write"`
}

// X contains credentials and limits for the posting API.
type X struct {
	APIKey            string `toml:"api_key"`
	APISecret         string `toml:"api_secret"`
	AccessToken       string `toml:"access_token"`
	AccessTokenSecret string `toml:"access_token_secret"`
	BaseURL           string `toml:"base_url"`
	DailyCap          int    `toml:"daily_cap"`
}

// Schedule contains the poster loop cadence and wait intervals, in seconds.
type Schedule struct {
	PostsPerDay        int             `toml:"posts_per_day"`
	IdleInterval       int             `toml:"idle_interval"`
	RateLimitBackoff   int             `toml:"rate_limit_backoff"`
	ErrorRetryInterval int             `toml:"error_retry_interval"`
	OnExhausted        ExhaustedPolicy `toml:"on_exhausted"`
	MarkPolicy         MarkPolicy      `toml:"mark_policy"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quill.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Store: which content backend to read and its column contract
//   - X: posting API credentials and the local daily cap
//   - Schedule: posting cadence, backoff intervals, and loop policies
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Store    Store    `toml:"store"`
	X        X        `toml:"x"`
	Schedule Schedule `toml:"schedule"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults plus
// environment credentials are used instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if value, ok := os.LookupEnv("QUILL_CONFIG"); ok {
			path = strings.TrimSpace(value)
		}
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Cadence returns the wait between successful posts: one day divided evenly
// by the posts-per-day target.
func (c *Config) Cadence() time.Duration {
	if c.Schedule.PostsPerDay <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(float64(24*time.Hour) / float64(c.Schedule.PostsPerDay))
}

// IdleInterval is the wait applied when the store has no pending content.
func (c *Config) IdleInterval() time.Duration {
	return time.Duration(c.Schedule.IdleInterval) * time.Second
}

// RateLimitBackoff is the cooldown applied after the posting API signals a rate limit.
func (c *Config) RateLimitBackoff() time.Duration {
	return time.Duration(c.Schedule.RateLimitBackoff) * time.Second
}

// ErrorRetryInterval is the short wait applied after transient failures.
func (c *Config) ErrorRetryInterval() time.Duration {
	return time.Duration(c.Schedule.ErrorRetryInterval) * time.Second
}

// LockPath returns the single-instance lock file for the poster daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "quilld.lock")
}

// PIDPath returns the file quilld writes its process id to while it holds the lock.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "quilld.pid")
}

// LogPath returns the daemon log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "quilld.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
