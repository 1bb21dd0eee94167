package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	UploadsDir string `toml:"uploads_dir"`
	InboxDir   string `toml:"inbox_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Redis contains connection settings for the task queue and rate limiter.
type Redis struct {
	URL string `toml:"url"`
}

// Worker contains configuration for the worker pool.
type Worker struct {
	Processes       int `toml:"processes"`
	Concurrency     int `toml:"concurrency"`
	MaxRSSMB        int `toml:"max_rss_mb"`
	RestartDelaySec int `toml:"restart_delay_sec"`
}

// Whisper contains configuration for the transcription provider.
type Whisper struct {
	Provider string `toml:"provider"`
	Command  string `toml:"command"`
	Model    string `toml:"model"`
	Device   string `toml:"device"`
}

// YouTube contains configuration for streaming-source handling.
type YouTube struct {
	StreamingEnabled bool `toml:"streaming_enabled"`
	MaxHeight        int  `toml:"max_height"`
	ClipTimeoutSec   int  `toml:"clip_timeout_sec"`
	StreamTimeoutSec int  `toml:"stream_timeout_sec"`
}

// Render contains configuration for the ffmpeg renderer.
type Render struct {
	Loudnorm   bool `toml:"loudnorm"`
	TimeoutSec int  `toml:"timeout_sec"`
}

// RateLimit contains configuration for API admission control.
type RateLimit struct {
	Prefix      string `toml:"prefix"`
	JobMax      int    `toml:"job_max"`
	JobWindowMS int    `toml:"job_window_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ClipForge.
//
// Configuration sections by subsystem:
//   - Paths: storage layout and API bind address
//   - Redis: task queue and distributed rate limit connection
//   - Worker: process fan-out, concurrency, and memory ceiling
//   - Whisper: transcription command and model
//   - YouTube: streaming-source policy and timeouts
//   - Render: ffmpeg renderer options
//   - RateLimit: fixed-window API admission control
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Redis     Redis     `toml:"redis"`
	Worker    Worker    `toml:"worker"`
	Whisper   Whisper   `toml:"whisper"`
	YouTube   YouTube   `toml:"youtube"`
	Render    Render    `toml:"render"`
	RateLimit RateLimit `toml:"rate_limit"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("clipforge.toml")
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

func (c *Config) normalize() error {
	var err error
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadsDir) == "" {
		c.Paths.UploadsDir = filepath.Join(c.Paths.StorageDir, "uploads")
	}
	if c.Paths.UploadsDir, err = expandPath(c.Paths.UploadsDir); err != nil {
		return fmt.Errorf("paths.uploads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.InboxDir) != "" {
		if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
			return fmt.Errorf("paths.inbox_dir: %w", err)
		}
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}

	c.Redis.URL = strings.TrimSpace(c.Redis.URL)
	if c.Redis.URL == "" {
		if value, ok := os.LookupEnv("REDIS_URL"); ok {
			c.Redis.URL = strings.TrimSpace(value)
		}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = defaultRedisURL
	}

	if c.Worker.Processes <= 0 {
		c.Worker.Processes = 1
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.MaxRSSMB < 0 {
		c.Worker.MaxRSSMB = 0
	}
	if c.Worker.RestartDelaySec <= 0 {
		c.Worker.RestartDelaySec = defaultWorkerRestartDelaySec
	}

	c.Whisper.Provider = strings.ToLower(strings.TrimSpace(c.Whisper.Provider))
	if c.Whisper.Provider == "" {
		c.Whisper.Provider = defaultWhisperProvider
	}
	c.Whisper.Command = strings.TrimSpace(c.Whisper.Command)
	if c.Whisper.Command == "" {
		c.Whisper.Command = defaultWhisperCommand
	}
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	c.Whisper.Device = strings.ToLower(strings.TrimSpace(c.Whisper.Device))

	if c.YouTube.MaxHeight <= 0 {
		c.YouTube.MaxHeight = defaultYouTubeMaxHeight
	}
	if c.YouTube.ClipTimeoutSec <= 0 {
		c.YouTube.ClipTimeoutSec = defaultYouTubeClipTimeoutSec
	}
	if c.YouTube.StreamTimeoutSec <= 0 {
		c.YouTube.StreamTimeoutSec = defaultYouTubeStreamTimeoutSec
	}

	if c.Render.TimeoutSec <= 0 {
		c.Render.TimeoutSec = defaultRenderTimeoutSec
	}

	c.RateLimit.Prefix = strings.TrimSpace(c.RateLimit.Prefix)
	if c.RateLimit.Prefix == "" {
		c.RateLimit.Prefix = defaultRateLimitPrefix
	}
	if c.RateLimit.JobMax <= 0 {
		c.RateLimit.JobMax = defaultRateLimitJobMax
	}
	if c.RateLimit.JobWindowMS <= 0 {
		c.RateLimit.JobWindowMS = defaultRateLimitJobWindowMS
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

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.StorageDir,
		c.Paths.UploadsDir,
		filepath.Join(c.Paths.StorageDir, "jobs"),
		c.Paths.LogDir,
	}
	if strings.TrimSpace(c.Paths.InboxDir) != "" {
		dirs = append(dirs, c.Paths.InboxDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobsDir returns the directory that holds per-job artifact directories.
func (c *Config) JobsDir() string {
	return filepath.Join(c.Paths.StorageDir, "jobs")
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StorageDir, "clipforge.db")
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
