// Package supervisor relaunches the agent on every exit. Exit code 0 means
// a commit asked for a restart; anything else is a crash. A burst of
// crashes restores the live source from its backup sibling before the next
// launch.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/Harshitk-cp/lumen/internal/pipeline"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Runner launches the agent once and reports its exit code.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// CommandRunner runs the agent as a child process.
type CommandRunner struct {
	Path   string
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func (r *CommandRunner) Run(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 10 * time.Second

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("launch %s: %w", r.Path, err)
}

type Config struct {
	LivePath           string
	RestartDelay       time.Duration
	Cooldown           time.Duration
	MaxRapidFailures   int
	RapidFailureWindow time.Duration
}

func DefaultConfig(livePath string) Config {
	return Config{
		LivePath:           livePath,
		RestartDelay:       2 * time.Second,
		Cooldown:           30 * time.Second,
		MaxRapidFailures:   5,
		RapidFailureWindow: 30 * time.Second,
	}
}

// Stats counts what the supervisor did since it started.
type Stats struct {
	Launches int
	Restarts int
	Failures int
	Restores int
}

type Supervisor struct {
	runner  Runner
	cfg     Config
	logger  *zap.Logger
	limiter *rate.Limiter
	stats   Stats

	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	restore func(livePath string) error
}

func New(runner Runner, cfg Config, logger *zap.Logger) *Supervisor {
	if cfg.MaxRapidFailures < 1 {
		cfg.MaxRapidFailures = 1
	}
	if cfg.RapidFailureWindow <= 0 {
		cfg.RapidFailureWindow = 30 * time.Second
	}
	s := &Supervisor{
		runner:  runner,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
		restore: pipeline.RestoreBackup,
	}
	s.limiter = s.newLimiter()
	return s
}

// newLimiter allows MaxRapidFailures crashes at once and refills one every
// RapidFailureWindow / MaxRapidFailures.
func (s *Supervisor) newLimiter() *rate.Limiter {
	every := s.cfg.RapidFailureWindow / time.Duration(s.cfg.MaxRapidFailures)
	return rate.NewLimiter(rate.Every(every), s.cfg.MaxRapidFailures)
}

func (s *Supervisor) Stats() Stats {
	return s.stats
}

// Run supervises until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("supervisor started",
		zap.String("live", s.cfg.LivePath),
		zap.Int("max_rapid_failures", s.cfg.MaxRapidFailures),
		zap.Duration("window", s.cfg.RapidFailureWindow),
	)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := os.Stat(s.cfg.LivePath); errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("live source missing, restoring from backup", zap.String("live", s.cfg.LivePath))
			s.doRestore()
		}

		s.stats.Launches++
		code, err := s.runner.Run(ctx)
		if ctx.Err() != nil {
			s.logger.Info("supervisor stopped", zap.Int("restarts", s.stats.Restarts))
			return nil
		}

		delay := s.cfg.RestartDelay
		switch {
		case err == nil && code == 0:
			s.stats.Restarts++
			s.logger.Info("agent exited cleanly, restarting", zap.Int("restarts", s.stats.Restarts))
		default:
			s.stats.Failures++
			s.logger.Error("agent failed", zap.Int("exit_code", code), zap.Error(err))
			if !s.limiter.AllowN(s.now(), 1) {
				s.logger.Error("rapid failure cascade, restoring last good source",
					zap.Int("failures", s.stats.Failures),
					zap.Duration("cooldown", s.cfg.Cooldown),
				)
				s.doRestore()
				s.limiter = s.newLimiter()
				delay = s.cfg.Cooldown
			}
		}

		if err := s.sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

func (s *Supervisor) doRestore() {
	if err := s.restore(s.cfg.LivePath); err != nil {
		s.logger.Error("restore from backup failed", zap.Error(err))
		return
	}
	s.stats.Restores++
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
