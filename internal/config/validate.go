package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		return fmt.Errorf("paths.storage_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q: %w", c.Paths.APIBind, err)
	}
	if parsed, err := url.Parse(c.Redis.URL); err != nil || parsed.Scheme != "redis" && parsed.Scheme != "rediss" {
		return fmt.Errorf("redis.url %q must be a redis:// or rediss:// URL", c.Redis.URL)
	}
	switch c.Whisper.Provider {
	case WhisperProviderMock, WhisperProviderWhisper:
	default:
		return fmt.Errorf("whisper.provider %q: expected mock or whisper", c.Whisper.Provider)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q: expected text or json", c.Logging.Format)
	}
	return nil
}
