package config

// Whisper provider names accepted by whisper.provider.
const (
	WhisperProviderMock    = "mock"
	WhisperProviderWhisper = "whisper"
)

const (
	defaultStorageDir              = "~/.local/share/clipforge/storage"
	defaultLogDir                  = "~/.local/share/clipforge/logs"
	defaultAPIBind                 = "127.0.0.1:7823"
	defaultRedisURL                = "redis://localhost:6379"
	defaultWorkerRestartDelaySec   = 5
	defaultWhisperProvider         = "mock"
	defaultWhisperCommand          = "whisper"
	defaultWhisperModel            = "base"
	defaultYouTubeMaxHeight        = 720
	defaultYouTubeClipTimeoutSec   = 300
	defaultYouTubeStreamTimeoutSec = 600
	defaultRenderTimeoutSec        = 900
	defaultRateLimitPrefix         = "clipforge"
	defaultRateLimitJobMax         = 30
	defaultRateLimitJobWindowMS    = 60_000
	defaultLogFormat               = "text"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Worker: Worker{
			Processes:       1,
			Concurrency:     1,
			RestartDelaySec: defaultWorkerRestartDelaySec,
		},
		Whisper: Whisper{
			Provider: defaultWhisperProvider,
			Command:  defaultWhisperCommand,
			Model:    defaultWhisperModel,
		},
		YouTube: YouTube{
			MaxHeight:        defaultYouTubeMaxHeight,
			ClipTimeoutSec:   defaultYouTubeClipTimeoutSec,
			StreamTimeoutSec: defaultYouTubeStreamTimeoutSec,
		},
		Render: Render{
			TimeoutSec: defaultRenderTimeoutSec,
		},
		RateLimit: RateLimit{
			Prefix:      defaultRateLimitPrefix,
			JobMax:      defaultRateLimitJobMax,
			JobWindowMS: defaultRateLimitJobWindowMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
