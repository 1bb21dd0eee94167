package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REDIS_URL", "")

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

	wantStorage := filepath.Join(tempHome, ".local", "share", "clipforge", "storage")
	if cfg.Paths.StorageDir != wantStorage {
		t.Fatalf("unexpected storage dir: got %q want %q", cfg.Paths.StorageDir, wantStorage)
	}
	if cfg.Paths.UploadsDir != filepath.Join(wantStorage, "uploads") {
		t.Fatalf("unexpected uploads dir: %q", cfg.Paths.UploadsDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7823" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Redis.URL != "redis://localhost:6379" {
		t.Fatalf("unexpected redis url: %q", cfg.Redis.URL)
	}
	if cfg.Worker.Processes != 1 || cfg.Worker.Concurrency != 1 {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Worker)
	}
	if cfg.Worker.MaxRSSMB != 0 {
		t.Fatalf("expected memory guard disabled by default, got %d", cfg.Worker.MaxRSSMB)
	}
	if cfg.Whisper.Provider != "mock" {
		t.Fatalf("unexpected whisper provider: %q", cfg.Whisper.Provider)
	}
	if cfg.YouTube.StreamingEnabled {
		t.Fatal("expected streaming disabled by default")
	}
	if cfg.RateLimit.JobMax != 30 || cfg.RateLimit.JobWindowMS != 60_000 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestLoadReadsFileAndEnvRedisURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		"[paths]",
		`storage_dir = "` + filepath.Join(dir, "storage") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[worker]",
		"processes = 3",
		"concurrency = 2",
		"max_rss_mb = 512",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REDIS_URL", "redis://queue.internal:6380")

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Worker.Processes != 3 || cfg.Worker.Concurrency != 2 {
		t.Fatalf("unexpected worker settings: %+v", cfg.Worker)
	}
	if cfg.Worker.MaxRSSMB != 512 {
		t.Fatalf("unexpected rss ceiling: %d", cfg.Worker.MaxRSSMB)
	}
	if cfg.Redis.URL != "redis://queue.internal:6380" {
		t.Fatalf("expected redis url from env, got %q", cfg.Redis.URL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad bind", func(c *config.Config) { c.Paths.APIBind = "not-a-bind" }},
		{"bad redis", func(c *config.Config) { c.Redis.URL = "http://nope" }},
		{"bad provider", func(c *config.Config) { c.Whisper.Provider = "deepgram" }},
		{"bad format", func(c *config.Config) { c.Logging.Format = "logfmt" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.StorageDir = t.TempDir()
			cfg.Paths.LogDir = t.TempDir()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.UploadsDir = filepath.Join(base, "storage", "uploads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.JobsDir(), cfg.Paths.UploadsDir, cfg.Paths.LogDir, cfg.Paths.InboxDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
