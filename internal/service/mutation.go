package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/emotion"
	"github.com/Harshitk-cp/lumen/internal/llm"
	"github.com/Harshitk-cp/lumen/internal/pipeline"
	"github.com/Harshitk-cp/lumen/internal/zone"
	"go.uber.org/zap"
)

// tuneVariable asks cognition for one new literal and runs the patched
// source through the pipeline. A commit does not return normally.
func (s *Scheduler) tuneVariable(ctx context.Context, source string, cfg *Configuration) (string, error) {
	tunables := cfg.Vars.Mutable()
	if len(tunables) == 0 {
		return "nothing to tune", nil
	}

	pc, err := s.promptContext(ctx, domain.ProposeVariable, cfg)
	if err != nil {
		return "", err
	}
	text, err := s.cognition.Propose(ctx, pc)
	if err != nil {
		return "", err
	}
	p, err := llm.ParseVariableProposal(text)
	if err != nil {
		return "", err
	}

	old, ok := tunables.Lookup(p.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrVariableNotFound, p.Name)
	}
	literal, err := conformLiteral(old.Value, p.Literal)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name, err)
	}
	if literal == old.Value.Raw {
		s.emotions.Nudge(emotion.Boredom, -cfg.NudgeStrength/2)
		return "proposal left " + p.Name + " unchanged", nil
	}

	candidate, err := zone.Mutate(source, p.Name, literal)
	if err != nil {
		return "", err
	}

	reason := p.Reason
	if reason == "" {
		reason = fmt.Sprintf("feeling %s", s.emotions.Dominant())
	}
	m := &domain.Mutation{
		Kind:         domain.MutationVariable,
		VariableName: p.Name,
		OldValue:     old.Value.Raw,
		NewValue:     literal,
		Reasoning:    reason,
		Origin:       s.origin,
	}
	return s.submit(ctx, ActionTuneVariable, m, candidate, cfg)
}

// conformLiteral checks a proposed literal against the current one and
// renders numbers in the current kind, so an int tunable stays an int.
func conformLiteral(old zone.Value, proposed string) (string, error) {
	nv := zone.ParseLiteral(proposed)
	if nv.Opaque() {
		return "", fmt.Errorf("%w: %q is not a literal", domain.ErrParseFailure, proposed)
	}
	if !zone.SameShape(old, nv) {
		return "", fmt.Errorf("%w: %s literal cannot replace %s", domain.ErrParseFailure, nv.Kind, old.Kind)
	}
	if old.Kind.Numeric() && nv.Kind != old.Kind {
		return zone.FormatNumber(nv.Number, old.Kind)
	}
	return nv.Raw, nil
}

// growExtension asks cognition for a new block and registers it alongside
// the existing ones.
func (s *Scheduler) growExtension(ctx context.Context, source string, cfg *Configuration) (string, error) {
	pc, err := s.promptContext(ctx, domain.ProposeBlock, cfg)
	if err != nil {
		return "", err
	}
	text, err := s.cognition.Propose(ctx, pc)
	if err != nil {
		return "", err
	}
	p, err := llm.ParseBlockProposal(text)
	if err != nil {
		return "", err
	}
	if err := zone.ValidateBlock(cfg.Package, p.Code); err != nil {
		return "", fmt.Errorf("extension %s: %w", p.Name, err)
	}

	b := zone.Block{Name: p.Name, Description: p.Description, Category: p.Category}
	candidate, err := zone.AppendBlock(source, p.Code, b, s.now())
	if err != nil {
		return "", err
	}

	reason := p.Description
	if reason == "" {
		reason = fmt.Sprintf("curious about %s", p.Category)
	}
	m := &domain.Mutation{
		Kind:         domain.MutationBlock,
		VariableName: p.Name,
		NewValue:     p.Code,
		Reasoning:    reason,
		Origin:       s.origin,
	}
	return s.submit(ctx, ActionGrowExtension, m, candidate, cfg)
}

// submit opens the audit record, runs the pipeline and either restarts or
// finalizes the rejection. ErrCommitIO leaves the record pending for
// reconciliation at the next start.
func (s *Scheduler) submit(ctx context.Context, action Action, m *domain.Mutation, candidate string, cfg *Configuration) (string, error) {
	if err := s.store.BeginMutation(ctx, m); err != nil {
		return "", fmt.Errorf("begin mutation: %w", err)
	}

	out, err := s.pipeline.Run(ctx, pipeline.Candidate{
		Source:    candidate,
		Reasoning: m.Reasoning,
		Origin:    s.origin,
	})
	if err != nil {
		return "", err
	}

	if out.Committed() {
		outcome := fmt.Sprintf("committed %s %s", m.Kind, m.VariableName)
		if m.Kind == domain.MutationVariable {
			outcome = fmt.Sprintf("committed %s: %s -> %s", m.VariableName, m.OldValue, m.NewValue)
		}
		return "", s.restart(ctx, action, m, outcome)
	}

	if err := s.store.FinalizeMutation(ctx, m.ID, false, string(out.State)+": "+out.Reason); err != nil {
		return "", fmt.Errorf("finalize rejected mutation: %w", err)
	}
	s.emotions.Nudge(emotion.Anxiety, cfg.NudgeStrength)
	s.emotions.Nudge(emotion.Boredom, -cfg.NudgeStrength)
	s.emotions.Nudge(emotion.Satisfaction, -cfg.NudgeStrength/2)
	s.logger.Info("mutation rejected",
		zap.String("variable", m.VariableName),
		zap.String("kind", string(m.Kind)),
		zap.String("reason", out.Reason),
	)
	return "rejected: " + out.Reason, nil
}
