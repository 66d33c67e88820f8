package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/emotion"
	"github.com/Harshitk-cp/lumen/internal/pipeline"
	"github.com/Harshitk-cp/lumen/internal/store"
	"github.com/Harshitk-cp/lumen/internal/zone"
	"go.uber.org/zap"
)

const (
	defaultTickInterval = 10 * time.Second
	defaultOrigin       = "local"
)

// TickReport summarizes one tick for observers.
type TickReport struct {
	Cycle    int64
	Action   Action
	Outcome  string
	Emotions map[string]float32
	Valence  float32
	Elapsed  time.Duration
}

// Recorder receives a report after every completed tick.
type Recorder interface {
	ObserveTick(r TickReport)
}

// Scheduler is the single control loop. It owns the emotional model and is
// the only writer of the live source, through the pipeline.
type Scheduler struct {
	store     domain.StateStore
	cognition domain.CognitionClient
	pipeline  *pipeline.Pipeline
	emotions  *emotion.Model
	recorder  Recorder
	logger    *zap.Logger

	interval time.Duration
	origin   string
	rng      *rand.Rand
	now      func() time.Time
	exit     func(code int)

	session *domain.Session
	config  *Configuration
	cycle   int64
}

func NewScheduler(s domain.StateStore, cognition domain.CognitionClient, p *pipeline.Pipeline, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:     s,
		cognition: cognition,
		pipeline:  p,
		emotions:  emotion.New(emotion.DefaultRates.Baseline),
		logger:    logger,
		interval:  defaultTickInterval,
		origin:    defaultOrigin,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6c756d656e)),
		now:       time.Now,
		exit:      os.Exit,
	}
}

func (s *Scheduler) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// SetOrigin names the cognition provider in audit records.
func (s *Scheduler) SetOrigin(origin string) {
	if origin != "" {
		s.origin = origin
	}
}

func (s *Scheduler) SetSeed(seed uint64) {
	s.rng = rand.New(rand.NewPCG(seed, 0x6c756d656e))
}

func (s *Scheduler) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetExit replaces os.Exit. Tests use it to observe the restart request.
func (s *Scheduler) SetExit(exit func(code int)) {
	s.exit = exit
}

func (s *Scheduler) Session() domain.Session {
	if s.session == nil {
		return domain.Session{}
	}
	return *s.session
}

func (s *Scheduler) Emotions() *emotion.Model {
	return s.emotions
}

// Start prepares a fresh process: it validates the live zone, clears
// pipeline leftovers, counts the restart, restores the emotional state and
// reconciles mutations a crash left pending.
func (s *Scheduler) Start(ctx context.Context) error {
	source, err := s.pipeline.ReadLive()
	if err != nil {
		return fmt.Errorf("read live source: %w", err)
	}
	cfg, err := LoadConfiguration(source)
	if err != nil {
		return err
	}
	s.config = cfg

	removed, err := s.pipeline.Recover()
	if err != nil {
		return fmt.Errorf("recover pipeline: %w", err)
	}
	if len(removed) > 0 {
		s.logger.Warn("removed stale pipeline files", zap.Strings("paths", removed))
	}

	sess, err := s.store.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	now := s.now()
	if sess.FirstAwakening.IsZero() {
		sess.FirstAwakening = now
	} else {
		sess.TotalRestarts++
	}
	sess.LastStart = now
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.session = sess

	s.emotions = emotion.New(cfg.Rates.Baseline)
	latest, err := s.store.LatestEmotion(ctx)
	switch {
	case err == nil:
		s.emotions.Restore(*latest)
	case errors.Is(err, store.ErrNotFound):
	default:
		return fmt.Errorf("restore emotions: %w", err)
	}

	s.cycle, err = s.store.LastCycleNumber(ctx)
	if err != nil {
		return fmt.Errorf("last cycle number: %w", err)
	}

	if err := s.reconcile(ctx, source); err != nil {
		return err
	}

	s.logger.Info("agent awake",
		zap.String("self_name", sess.SelfName),
		zap.Int64("total_cycles", sess.TotalCycles),
		zap.Int64("total_restarts", sess.TotalRestarts),
		zap.Int64("cycle", s.cycle),
		zap.String("dominant", string(s.emotions.Dominant())),
	)
	return nil
}

// reconcile finalizes mutations left pending by a crash between commit and
// finalize. The live source decides: a committed candidate is visible there.
func (s *Scheduler) reconcile(ctx context.Context, source string) error {
	pending, err := s.store.PendingMutations(ctx)
	if err != nil {
		return fmt.Errorf("list pending mutations: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	z, err := zone.Extract(source)
	if err != nil {
		return err
	}
	vars := zone.ParseVariables(z.Text)
	grownNames, err := zone.GrownBlocks(source)
	if err != nil {
		return err
	}
	// A block landed only if it is both registered and present in the zone.
	grown := make(map[string]bool)
	for _, name := range grownNames {
		grown[name] = true
	}
	registered := make(map[string]bool)
	for _, b := range zone.ParseRegistry(source) {
		registered[b.Name] = grown[b.Name]
	}

	for _, m := range pending {
		var landed bool
		switch m.Kind {
		case domain.MutationBlock:
			landed = registered[m.VariableName]
		default:
			v, ok := vars.Lookup(m.VariableName)
			landed = ok && v.Value.Raw == m.NewValue && m.NewValue != m.OldValue
		}
		reason := "reconciled at startup: candidate never reached the live source"
		if landed {
			reason = "reconciled at startup: live source carries the new value"
		}
		err := s.store.FinalizeMutation(ctx, m.ID, landed, reason)
		if err != nil && !errors.Is(err, domain.ErrMutationFinalized) {
			return fmt.Errorf("finalize pending mutation %s: %w", m.ID, err)
		}
		s.logger.Info("reconciled pending mutation",
			zap.String("id", m.ID.String()),
			zap.String("variable", m.VariableName),
			zap.Bool("accepted", landed),
		)
	}
	return nil
}

// Run ticks until ctx is cancelled or a tick fails. The first tick runs
// immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.session == nil {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		if err := s.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.Int64("cycle", s.cycle))
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs exactly one cycle. A returned error is either
// domain.ErrRestartRequired after a commit, or an unrecoverable failure
// that has already been recorded where possible.
func (s *Scheduler) Tick(ctx context.Context) error {
	if s.session == nil {
		return errors.New("scheduler not started")
	}
	started := s.now()
	s.cycle++

	source, err := s.pipeline.ReadLive()
	if err != nil {
		return s.fail(ctx, "", fmt.Errorf("read live source: %w", err))
	}
	cfg, err := LoadConfiguration(source)
	if err != nil {
		return s.fail(ctx, "", err)
	}
	s.config = cfg

	s.emotions.Decay(cfg.Rates)
	sample := s.emotions.Sample(s.now())
	if err := s.store.AppendEmotion(ctx, &sample); err != nil {
		return s.fail(ctx, "", fmt.Errorf("append emotion sample: %w", err))
	}

	action, err := s.selectAction(ctx, cfg)
	if err != nil {
		return s.fail(ctx, action, err)
	}

	outcome, err := s.execute(ctx, action, source, cfg)
	switch {
	case errors.Is(err, domain.ErrRestartRequired):
		return err
	case err != nil && domain.Recoverable(err):
		s.setback(ctx, action, err)
		outcome = "skipped: " + err.Error()
	case err != nil:
		return s.fail(ctx, action, err)
	}

	if err := s.finishCycle(ctx, action, outcome); err != nil {
		return err
	}

	if s.recorder != nil {
		s.recorder.ObserveTick(TickReport{
			Cycle:    s.cycle,
			Action:   action,
			Outcome:  outcome,
			Emotions: s.emotions.Snapshot(),
			Valence:  s.emotions.Valence(),
			Elapsed:  s.now().Sub(started),
		})
	}
	s.logger.Debug("tick",
		zap.Int64("cycle", s.cycle),
		zap.String("action", string(action)),
		zap.String("outcome", outcome),
		zap.String("dominant", string(s.emotions.Dominant())),
	)
	return nil
}

func (s *Scheduler) finishCycle(ctx context.Context, action Action, outcome string) error {
	c := &domain.Cycle{CycleNumber: s.cycle, Action: string(action), Outcome: outcome}
	if err := s.store.AppendCycle(ctx, c); err != nil {
		return s.fail(ctx, action, fmt.Errorf("append cycle: %w", err))
	}
	s.session.TotalCycles++
	if err := s.store.SaveSession(ctx, s.session); err != nil {
		return s.fail(ctx, action, fmt.Errorf("save session: %w", err))
	}
	return nil
}

// restart finalizes a committed mutation and hands control back to the
// supervisor. Writes here are best effort: reconciliation at the next start
// repairs anything that does not land.
func (s *Scheduler) restart(ctx context.Context, action Action, m *domain.Mutation, outcome string) error {
	if err := s.store.FinalizeMutation(ctx, m.ID, true, ""); err != nil {
		s.logger.Error("failed to finalize committed mutation", zap.String("id", m.ID.String()), zap.Error(err))
	}
	s.remember(ctx, domain.CategoryMutation, outcome, 0.5, 0.8)
	c := &domain.Cycle{CycleNumber: s.cycle, Action: string(action), Outcome: outcome}
	if err := s.store.AppendCycle(ctx, c); err != nil {
		s.logger.Error("failed to append commit cycle", zap.Error(err))
	} else {
		s.session.TotalCycles++
		if err := s.store.SaveSession(ctx, s.session); err != nil {
			s.logger.Error("failed to save session", zap.Error(err))
		}
	}

	s.logger.Info("restarting to load committed source",
		zap.Int64("cycle", s.cycle),
		zap.String("action", string(action)),
		zap.String("variable", m.VariableName),
	)
	s.exit(0)
	return domain.ErrRestartRequired
}

// setback records a recoverable failure as a negative memory. Pipeline
// rejections never reach here; the pipeline records those itself.
func (s *Scheduler) setback(ctx context.Context, action Action, err error) {
	category := domain.CategoryError
	if errors.Is(err, domain.ErrParseFailure) || errors.Is(err, domain.ErrVariableNotFound) {
		category = domain.CategoryBadMutation
	}
	s.remember(ctx, category, fmt.Sprintf("%s failed: %v", action, err), -0.4, 0.5)
	s.emotions.Nudge(emotion.Anxiety, s.nudge()/2)
	s.logger.Warn("action skipped",
		zap.Int64("cycle", s.cycle),
		zap.String("action", string(action)),
		zap.Error(err),
	)
}

// fail records an unrecoverable error and returns it.
func (s *Scheduler) fail(ctx context.Context, action Action, err error) error {
	if action == "" {
		action = "tick"
	}
	s.remember(ctx, domain.CategoryError,
		fmt.Sprintf("cycle %d %s failed: %v", s.cycle, action, err), -0.8, 0.9)
	s.logger.Error("tick failed",
		zap.Int64("cycle", s.cycle),
		zap.String("action", string(action)),
		zap.Error(err),
	)
	return err
}

func (s *Scheduler) remember(ctx context.Context, category domain.MemoryCategory, content string, valence, importance float32) {
	m := &domain.Memory{Category: category, Content: content, Valence: valence, Importance: importance}
	if err := s.store.AppendMemory(ctx, m); err != nil {
		s.logger.Error("failed to append memory", zap.String("category", string(category)), zap.Error(err))
	}
}

func (s *Scheduler) nudge() float32 {
	if s.config == nil {
		return defaultNudgeStrength
	}
	return s.config.NudgeStrength
}
