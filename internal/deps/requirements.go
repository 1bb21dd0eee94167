package deps

import (
	"clipforge/internal/config"
)

// Requirements builds the tool list for the given configuration. yt-dlp is
// only required when streaming sources are enabled, and the Whisper command
// only when the real transcription provider is selected.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Renders vertical clips and extracts audio",
		},
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "Probes source dimensions and duration",
		},
	}

	ytOptional := !cfg.YouTube.StreamingEnabled
	reqs = append(reqs, Requirement{
		Name:        "yt-dlp",
		Command:     "yt-dlp",
		Description: "Streams YouTube sources",
		Optional:    ytOptional,
	})

	whisperOptional := cfg.Whisper.Provider != config.WhisperProviderWhisper
	reqs = append(reqs, Requirement{
		Name:        "Whisper",
		Command:     cfg.Whisper.Command,
		Description: "Transcribes speech to timed text",
		Optional:    whisperOptional,
	})
	return reqs
}

// Check runs CheckBinaries over Requirements.
func Check(cfg *config.Config) []Status {
	return CheckBinaries(Requirements(cfg))
}
