package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"clipforge/internal/api"
	"clipforge/internal/clipper"
	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
	"clipforge/internal/render"
	"clipforge/internal/source"
	"clipforge/internal/storage"
	"clipforge/internal/store"
	"clipforge/internal/transcribe"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

func (c *commandContext) connectQueue() (*queue.Queue, *redis.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := queue.Connect(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return queue.New(client, cfg.RateLimit.Prefix), client, nil
}

func (c *commandContext) newService(st *store.Store, tq *queue.Queue, logger *slog.Logger) *api.Service {
	return api.NewService(st, tq, c.config.Paths.UploadsDir, logger)
}

// buildPipeline wires the full processing pipeline from configuration.
func (c *commandContext) buildPipeline(st *store.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(logging.NewComponentLogger(logger, "render"))
	transcriber, streamTranscriber := transcribe.NewFromConfig(
		cfg.Whisper,
		cfg.JobsDir(),
		time.Duration(cfg.YouTube.StreamTimeoutSec)*time.Second,
		logging.NewComponentLogger(logger, "transcribe"),
	)

	return pipeline.New(pipeline.Deps{
		Store:             st,
		Layout:            storage.NewLayout(cfg.JobsDir()),
		Resolver:          source.NewResolver(cfg.Paths.UploadsDir),
		Transcriber:       transcriber,
		StreamTranscriber: streamTranscriber,
		Detector:          &pipeline.HybridDetector{Analyzer: renderer},
		Renderer:          renderer,
		Clipper:           clipper.New(logging.NewComponentLogger(logger, "clipper")),
		Logger:            logging.NewComponentLogger(logger, "pipeline"),
		Options:           pipeline.OptionsFromConfig(cfg),
	})
}
