package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"quill/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("QUILL_CONFIG", "")
	for _, key := range []string{"X_API_KEY", "X_API_SECRET", "X_ACCESS_TOKEN", "X_ACCESS_TOKEN_SECRET", "GOOGLE_APPLICATION_CREDENTIALS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestLoadDefaultConfigUsesEnvCredentialsAndExpandsPaths(t *testing.T) {
	home := isolateEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("X_API_KEY", " key ")
	t.Setenv("X_API_SECRET", "secret")
	t.Setenv("X_ACCESS_TOKEN", "token")
	t.Setenv("X_ACCESS_TOKEN_SECRET", "token-secret")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(home, ".local", "share", "quill", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Store.DatabasePath != filepath.Join(home, ".local", "share", "quill", "content.db") {
		t.Fatalf("unexpected database path: %q", cfg.Store.DatabasePath)
	}
	if cfg.X.APIKey != "key" {
		t.Fatalf("expected X api key from env, got %q", cfg.X.APIKey)
	}
	if err := cfg.RequirePostingCredentials(); err != nil {
		t.Fatalf("expected credentials to be complete: %v", err)
	}
	if cfg.Store.Backend != config.BackendSheets {
		t.Fatalf("expected sheets backend by default, got %q", cfg.Store.Backend)
	}
	if cfg.Store.SheetName != "TwitterBot Content" {
		t.Fatalf("unexpected sheet name: %q", cfg.Store.SheetName)
	}
	if cfg.Schedule.OnExhausted != config.ExhaustedRetryLater {
		t.Fatalf("unexpected exhaustion policy: %q", cfg.Schedule.OnExhausted)
	}
	if cfg.Schedule.MarkPolicy != config.MarkBeforePost {
		t.Fatalf("unexpected mark policy: %q", cfg.Schedule.MarkPolicy)
	}
}

func TestCadenceSpreadsPostsAcrossDay(t *testing.T) {
	tests := []struct {
		perDay int
		want   time.Duration
	}{
		{15, 5760 * time.Second},
		{1, 24 * time.Hour},
		{24, time.Hour},
		{7, 24 * time.Hour / 7},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Schedule.PostsPerDay = tt.perDay
		if got := cfg.Cadence(); got != tt.want {
			t.Errorf("Cadence(%d) = %v, want %v", tt.perDay, got, tt.want)
		}
	}
}

func TestDefaultIntervals(t *testing.T) {
	cfg := config.Default()
	if cfg.IdleInterval() != time.Hour {
		t.Fatalf("idle interval = %v", cfg.IdleInterval())
	}
	if cfg.RateLimitBackoff() != 15*time.Minute {
		t.Fatalf("rate limit backoff = %v", cfg.RateLimitBackoff())
	}
	if cfg.ErrorRetryInterval() != time.Minute {
		t.Fatalf("error retry interval = %v", cfg.ErrorRetryInterval())
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.toml")

	cfg := config.Default()
	cfg.Store.Backend = "WORKBOOK"
	cfg.Store.WorkbookPath = filepath.Join(dir, "queue.xlsx")
	cfg.Schedule.PostsPerDay = 24
	cfg.X.DailyCap = 24
	cfg.Schedule.OnExhausted = config.ExhaustedTerminate
	cfg.Schedule.MarkPolicy = "After_Post"
	cfg.Logging.Format = "JSON"
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config file to be found at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if loaded.Store.Backend != config.BackendWorkbook {
		t.Fatalf("expected normalized workbook backend, got %q", loaded.Store.Backend)
	}
	if loaded.Schedule.MarkPolicy != config.MarkAfterPost {
		t.Fatalf("expected normalized mark policy, got %q", loaded.Schedule.MarkPolicy)
	}
	if loaded.Cadence() != time.Hour {
		t.Fatalf("unexpected cadence %v", loaded.Cadence())
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", loaded.Logging.Format)
	}
}

func TestLoadHonoursQuillConfigEnv(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[schedule]\nposts_per_day = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUILL_CONFIG", path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected QUILL_CONFIG path to be used, got %q", resolved)
	}
	if cfg.Schedule.PostsPerDay != 3 {
		t.Fatalf("expected posts_per_day 3, got %d", cfg.Schedule.PostsPerDay)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "quill.toml")
	if err := os.WriteFile(path, []byte("[schedule]\npost_per_day = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero posts", func(c *config.Config) { c.Schedule.PostsPerDay = 0 }, "schedule.posts_per_day"},
		{"bad policy", func(c *config.Config) { c.Schedule.OnExhausted = "sometimes" }, "schedule.on_exhausted"},
		{"bad mark policy", func(c *config.Config) { c.Schedule.MarkPolicy = "never" }, "schedule.mark_policy"},
		{"bad backend", func(c *config.Config) { c.Store.Backend = "csv" }, "store.backend"},
		{"same columns", func(c *config.Config) { c.Store.StatusColumn = c.Store.ContentColumn }, "must differ"},
		{"same sentinels", func(c *config.Config) { c.Store.DoneValue = c.Store.PendingValue }, "must differ"},
		{"no sheet", func(c *config.Config) { c.Store.SheetName = "" }, "store.sheet_name"},
		{"bad base url", func(c *config.Config) { c.X.BaseURL = "api.twitter.com" }, "x.base_url"},
		{"zero backoff", func(c *config.Config) { c.Schedule.RateLimitBackoff = 0 }, "schedule.rate_limit_backoff"},
		{"cap below cadence", func(c *config.Config) { c.X.DailyCap = c.Schedule.PostsPerDay - 1 }, "x.daily_cap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRequirePostingCredentialsListsMissing(t *testing.T) {
	cfg := config.Default()
	cfg.X.APIKey = "key"
	err := cfg.RequirePostingCredentials()
	if err == nil {
		t.Fatal("expected missing credentials error")
	}
	if strings.Contains(err.Error(), "X_API_KEY") {
		t.Fatalf("api key was provided but reported missing: %v", err)
	}
	if !strings.Contains(err.Error(), "X_ACCESS_TOKEN_SECRET") {
		t.Fatalf("expected access token secret to be reported: %v", err)
	}
}

func TestGoogleCredentialsEnvOverridesDefaultPath(t *testing.T) {
	isolateEnv(t)
	keyPath := filepath.Join(t.TempDir(), "sa.json")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", keyPath)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.CredentialsFile != keyPath {
		t.Fatalf("expected credentials file from env, got %q", cfg.Store.CredentialsFile)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config did not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Schedule.PostsPerDay != 15 {
		t.Fatalf("unexpected posts_per_day in sample: %d", cfg.Schedule.PostsPerDay)
	}
}
