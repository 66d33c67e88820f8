package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshitk-cp/lumen/internal/buildconfig"
	"github.com/Harshitk-cp/lumen/internal/config"
	"github.com/Harshitk-cp/lumen/internal/supervisor"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	logger.Info("supervisor starting", buildconfig.Fields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command := config.AgentCommand()
	runner := &supervisor.CommandRunner{
		Path:   command[0],
		Args:   command[1:],
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	sv := supervisor.New(runner, supervisor.Config{
		LivePath:           config.SourcePath(),
		RestartDelay:       config.RestartDelay(),
		Cooldown:           config.RestartCooldown(),
		MaxRapidFailures:   config.MaxRapidFailures(),
		RapidFailureWindow: config.RapidFailureWindow(),
	}, logger)

	if err := sv.Run(ctx); err != nil {
		logger.Fatal("supervisor failed", zap.Error(err))
	}
	st := sv.Stats()
	logger.Info("supervisor stopped",
		zap.Int("launches", st.Launches),
		zap.Int("restarts", st.Restarts),
		zap.Int("restores", st.Restores),
	)
}
