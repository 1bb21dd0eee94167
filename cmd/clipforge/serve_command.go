package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/daemon"
	"clipforge/internal/deps"
	"clipforge/internal/logging"
	"clipforge/internal/ratelimit"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: API server, worker pool, and inbox watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}
}

func runServe(cmd *cobra.Command, ctx *commandContext) error {
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

	for _, status := range deps.MissingRequired(deps.Check(cfg)) {
		logger.Warn("required tool missing",
			logging.String("tool", status.Name),
			logging.String("detail", status.Detail),
		)
	}

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

	service := ctx.newService(st, tq, logging.NewComponentLogger(logger, "api"))

	limiter := ratelimit.NewDistributed(
		redisClient,
		cfg.RateLimit.Prefix,
		cfg.RateLimit.JobMax,
		time.Duration(cfg.RateLimit.JobWindowMS)*time.Millisecond,
		logging.NewComponentLogger(logger, "ratelimit"),
	)

	supervisor, err := daemon.NewSupervisor(cfg.Worker, ctx.configPath, logging.NewComponentLogger(logger, "supervisor"))
	if err != nil {
		return fmt.Errorf("init supervisor: %w", err)
	}
	inbox := daemon.NewInboxWatcher(
		cfg.Paths.InboxDir,
		cfg.Paths.UploadsDir,
		service,
		logging.NewComponentLogger(logger, "inbox"),
	)

	d, err := daemon.New(daemon.Deps{
		Config:     cfg,
		Store:      st,
		Queue:      tq,
		Service:    service,
		Limiter:    limiter,
		Supervisor: supervisor,
		Inbox:      inbox,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	<-signalCtx.Done()
	d.Stop()
	return nil
}
