package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipforge/internal/logging"
	"clipforge/internal/worker"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run one worker process consuming queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd, ctx)
		},
	}
}

func runWorker(cmd *cobra.Command, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "worker")

	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	tq, redisClient, err := ctx.connectQueue()
	if err != nil {
		return err
	}
	defer redisClient.Close()

	pipe, err := ctx.buildPipeline(st, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	w, err := worker.New(worker.Deps{
		Source:      tq,
		Runner:      pipe,
		Store:       st,
		Guard:       worker.NewMemoryGuard(cfg.Worker.MaxRSSMB, logger),
		Logger:      logger,
		Concurrency: cfg.Worker.Concurrency,
	})
	if err != nil {
		return err
	}
	return w.Run(signalCtx)
}
