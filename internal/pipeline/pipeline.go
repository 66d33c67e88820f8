// Package pipeline validates candidate source text for the living genome
// file and, only when every check passes, commits it atomically. It is the
// only code that writes the live source file.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"go.uber.org/zap"
)

type State string

const (
	StateStaged        State = "staged"
	StateSyntaxChecked State = "syntax_checked"
	StatePolicyChecked State = "policy_checked"
	StateLoadChecked   State = "load_checked"
	StateCommitted     State = "committed"
	StateRejected      State = "rejected"
)

const (
	StagedSuffix = ".staged"
	BackupSuffix = ".bak"
	TempSuffix   = ".tmp"
)

// Candidate is untrusted full source text for the live file.
type Candidate struct {
	Source    string
	Reasoning string
	Origin    string
}

type Outcome struct {
	State       State
	Reason      string
	Cause       error
	Diagnostics []string
	Transitions []State
	Elapsed     time.Duration
}

func (o *Outcome) Committed() bool {
	return o.State == StateCommitted
}

// Err returns the rejection as a wrapped sentinel, or nil once committed.
func (o *Outcome) Err() error {
	if o.State != StateRejected {
		return nil
	}
	return fmt.Errorf("%w: %s", o.Cause, o.Reason)
}

func (o *Outcome) advance(s State) {
	o.State = s
	o.Transitions = append(o.Transitions, s)
}

// Loader type-checks the candidate as if it replaced the live file.
type Loader interface {
	Load(ctx context.Context, livePath string, candidate []byte) ([]string, error)
}

// Recorder observes finished runs.
type Recorder interface {
	ObservePipeline(o *Outcome)
}

type Pipeline struct {
	livePath   string
	stagedPath string
	backupPath string

	memories domain.MemoryStore
	loader   Loader
	policy   Policy
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time

	// afterStep runs after every commit sub-step; an error aborts the
	// commit in place, exactly like a process kill at that point.
	afterStep func(step string) error
}

func New(livePath string, memories domain.MemoryStore, logger *zap.Logger) *Pipeline {
	abs, err := filepath.Abs(livePath)
	if err == nil {
		livePath = abs
	}
	return &Pipeline{
		livePath:   livePath,
		stagedPath: livePath + StagedSuffix,
		backupPath: livePath + BackupSuffix,
		memories:   memories,
		loader:     &LoadChecker{},
		policy:     DefaultPolicy(),
		logger:     logger,
		now:        time.Now,
	}
}

func (p *Pipeline) SetLoader(l Loader) {
	p.loader = l
}

func (p *Pipeline) SetPolicy(policy Policy) {
	p.policy = policy
}

func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

func (p *Pipeline) LivePath() string   { return p.livePath }
func (p *Pipeline) BackupPath() string { return p.backupPath }
func (p *Pipeline) StagedPath() string { return p.stagedPath }

// ReadLive returns the current live source.
func (p *Pipeline) ReadLive() (string, error) {
	b, err := os.ReadFile(p.livePath)
	if err != nil {
		return "", fmt.Errorf("read live source: %w", err)
	}
	return string(b), nil
}

// Run drives a candidate through Staged, SyntaxChecked, PolicyChecked and
// LoadChecked to Committed, or to Rejected at the first failing check.
// A rejection is reported in the Outcome, never as an error; the returned
// error is always ErrCommitIO and means on-disk state may be ambiguous.
// After a committed outcome the caller must terminate the process.
func (p *Pipeline) Run(ctx context.Context, c Candidate) (*Outcome, error) {
	start := p.now()
	out := &Outcome{}
	defer func() {
		out.Elapsed = p.now().Sub(start)
		if p.recorder != nil {
			p.recorder.ObservePipeline(out)
		}
	}()

	if err := writeSynced(p.stagedPath, []byte(c.Source), p.liveMode()); err != nil {
		os.Remove(p.stagedPath)
		return out, fmt.Errorf("%w: stage candidate: %v", domain.ErrCommitIO, err)
	}
	out.advance(StateStaged)

	staged, err := os.ReadFile(p.stagedPath)
	if err != nil {
		os.Remove(p.stagedPath)
		return out, fmt.Errorf("%w: read staged candidate: %v", domain.ErrCommitIO, err)
	}

	file, diags := checkSyntax(p.livePath, staged)
	if len(diags) > 0 {
		p.reject(ctx, out, c, domain.ErrSyntaxRejected, diags)
		return out, nil
	}
	out.advance(StateSyntaxChecked)

	if diags := p.policy.Check(file, string(staged), p.expectedPackage()); len(diags) > 0 {
		p.reject(ctx, out, c, domain.ErrPolicyRejected, diags)
		return out, nil
	}
	out.advance(StatePolicyChecked)

	diags, err = p.loader.Load(ctx, p.livePath, staged)
	if err != nil {
		diags = append(diags, err.Error())
	}
	if len(diags) > 0 {
		p.reject(ctx, out, c, domain.ErrLoadRejected, diags)
		return out, nil
	}
	out.advance(StateLoadChecked)

	if err := p.commit(staged); err != nil {
		p.logger.Error("commit failed", zap.String("live", p.livePath), zap.Error(err))
		if rmErr := os.Remove(p.stagedPath); rmErr != nil && !os.IsNotExist(rmErr) {
			p.logger.Error("failed to remove staged candidate", zap.String("path", p.stagedPath), zap.Error(rmErr))
		}
		return out, fmt.Errorf("%w: %v", domain.ErrCommitIO, err)
	}
	out.advance(StateCommitted)
	p.logger.Info("candidate committed",
		zap.String("origin", c.Origin),
		zap.String("backup", p.backupPath),
	)
	return out, nil
}

func (p *Pipeline) reject(ctx context.Context, out *Outcome, c Candidate, cause error, diags []string) {
	if err := os.Remove(p.stagedPath); err != nil && !os.IsNotExist(err) {
		p.logger.Error("failed to remove staged candidate", zap.String("path", p.stagedPath), zap.Error(err))
	}

	out.Cause = cause
	out.Diagnostics = diags
	out.Reason = diags[0]
	if len(diags) > 1 {
		out.Reason = fmt.Sprintf("%s (and %d more)", diags[0], len(diags)-1)
	}
	out.advance(StateRejected)

	p.logger.Warn("candidate rejected",
		zap.String("origin", c.Origin),
		zap.String("check", cause.Error()),
		zap.String("reason", out.Reason),
	)

	if p.memories == nil {
		return
	}
	origin := c.Origin
	if origin == "" {
		origin = "unknown"
	}
	mem := &domain.Memory{
		Category:   domain.CategoryBadMutation,
		Content:    fmt.Sprintf("%s candidate from %s: %s", cause.Error(), origin, out.Reason),
		Valence:    -0.6,
		Importance: 0.7,
	}
	if err := p.memories.AppendMemory(ctx, mem); err != nil {
		p.logger.Error("failed to record rejected candidate", zap.Error(err))
	}
}

func (p *Pipeline) liveMode() os.FileMode {
	if info, err := os.Stat(p.livePath); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}
