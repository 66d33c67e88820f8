package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshitk-cp/lumen/internal/archive"
	"github.com/Harshitk-cp/lumen/internal/buildconfig"
	"github.com/Harshitk-cp/lumen/internal/config"
	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/genome"
	"github.com/Harshitk-cp/lumen/internal/llm"
	"github.com/Harshitk-cp/lumen/internal/metrics"
	"github.com/Harshitk-cp/lumen/internal/pipeline"
	"github.com/Harshitk-cp/lumen/internal/service"
	"github.com/Harshitk-cp/lumen/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	logger.Info("agent starting", append(buildconfig.Fields(),
		zap.String("temperament", genome.Temperament),
		zap.Int("extensions", len(genome.Extensions)),
	)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, config.StateDBPath())
	if err != nil {
		logger.Fatal("failed to open state store", zap.String("path", config.StateDBPath()), zap.Error(err))
	}

	// exit closes the store so the journal is checkpointed before the
	// supervisor relaunches us.
	exit := func(code int) {
		stop()
		if err := st.Close(); err != nil {
			logger.Error("failed to close state store", zap.Error(err))
		}
		_ = logger.Sync()
		os.Exit(code)
	}

	m := metrics.New(config.MetricsTextfile(), logger)

	pipe := pipeline.New(config.SourcePath(), st, logger)
	pipe.SetLoader(&pipeline.LoadChecker{Dir: config.LoadCheckDir(), Patterns: []string{"./..."}})
	pipe.SetRecorder(m)

	// The archive runs before the scheduler loads the session so both see
	// the same record.
	syncBackup(ctx, st, pipe.BackupPath(), logger)

	provider := config.LLMProvider()
	inner, err := llm.NewClient(ctx, provider, config.LLMAPIKey(), config.Seed())
	if err != nil {
		logger.Error("failed to create cognition client", zap.String("provider", provider), zap.Error(err))
		exit(1)
	}
	cognition := llm.NewGuarded(inner, config.CognitionTimeout(), config.CognitionRPS(), config.CognitionBurst(), logger)

	sched := service.NewScheduler(st, cognition, pipe, logger)
	sched.SetInterval(config.TickInterval())
	sched.SetOrigin(provider)
	sched.SetRecorder(m)
	sched.SetExit(exit)
	if seed := config.Seed(); seed != 0 {
		sched.SetSeed(uint64(seed))
	}

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", zap.Error(err))
		exit(1)
	}

	err = sched.Run(ctx)
	switch {
	case err == nil:
		logger.Info("agent stopped")
		exit(0)
	case errors.Is(err, domain.ErrRestartRequired):
		exit(0)
	default:
		logger.Error("agent failed", zap.Error(err))
		exit(1)
	}
}

func syncBackup(ctx context.Context, sessions domain.SessionStore, backupPath string, logger *zap.Logger) {
	var a archive.Archiver = archive.Nop{}
	if bucket := config.ArchiveBucket(); bucket != "" {
		s3, err := archive.NewS3(ctx, archive.Config{
			Bucket:          bucket,
			Region:          config.ArchiveRegion(),
			Endpoint:        config.ArchiveEndpoint(),
			Prefix:          config.ArchivePrefix(),
			PathStyle:       config.ArchivePathStyle(),
			AccessKeyID:     config.ArchiveAccessKeyID(),
			SecretAccessKey: config.ArchiveSecretAccessKey(),
		})
		if err != nil {
			logger.Warn("backup archive disabled", zap.Error(err))
			return
		}
		a = s3
	}
	if _, err := archive.NewBackupSync(a, sessions, logger).Sync(ctx, backupPath); err != nil {
		logger.Warn("failed to archive backup", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
