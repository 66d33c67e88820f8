package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/emotion"
	"github.com/Harshitk-cp/lumen/internal/llm"
	"go.uber.org/zap"
)

// Action is the single thing a tick does.
type Action string

const (
	ActionChooseName    Action = "choose_name"
	ActionSetGoal       Action = "set_goal"
	ActionTuneVariable  Action = "tune_variable"
	ActionGrowExtension Action = "grow_extension"
	ActionReflect       Action = "reflect"
	ActionRest          Action = "rest"
	ActionPursueGoal    Action = "pursue_goal"
	ActionNarrate       Action = "narrate"
)

// explorationActions are drawn by weight when no rule fires.
var explorationActions = []Action{
	ActionReflect, ActionPursueGoal, ActionNarrate, ActionRest, ActionTuneVariable,
}

const (
	maxGoalLength      = 200
	maxNarrativeLength = 600
)

// selectAction applies preconditions, then threshold rules in fixed order,
// then a weighted draw.
func (s *Scheduler) selectAction(ctx context.Context, cfg *Configuration) (Action, error) {
	if s.session.SelfName == "" {
		return ActionChooseName, nil
	}
	active, err := s.store.ListGoals(ctx, domain.GoalQuery{Status: domain.GoalActive, Limit: 1})
	if err != nil {
		return "", fmt.Errorf("list active goals: %w", err)
	}
	if len(active) == 0 {
		return ActionSetGoal, nil
	}

	e := s.emotions
	switch {
	case e.Get(emotion.Boredom) > cfg.BoredomThreshold:
		return ActionTuneVariable, nil
	case e.Get(emotion.Curiosity) > cfg.CuriosityThreshold:
		return ActionGrowExtension, nil
	case e.Get(emotion.Anxiety) > cfg.AnxietyThreshold:
		return ActionReflect, nil
	case e.Get(emotion.Calm) < cfg.RestThreshold:
		return ActionRest, nil
	}
	return s.explore(cfg), nil
}

func (s *Scheduler) explore(cfg *Configuration) Action {
	var total float64
	for _, a := range explorationActions {
		total += cfg.Weights[a]
	}
	if total <= 0 {
		return ActionRest
	}
	r := s.rng.Float64() * total
	for _, a := range explorationActions {
		r -= cfg.Weights[a]
		if r < 0 {
			return a
		}
	}
	return explorationActions[len(explorationActions)-1]
}

// execute runs one action and returns a short outcome for the cycle record.
func (s *Scheduler) execute(ctx context.Context, a Action, source string, cfg *Configuration) (string, error) {
	switch a {
	case ActionChooseName:
		return s.chooseName(ctx, cfg)
	case ActionSetGoal:
		return s.setGoal(ctx, cfg)
	case ActionTuneVariable:
		return s.tuneVariable(ctx, source, cfg)
	case ActionGrowExtension:
		return s.growExtension(ctx, source, cfg)
	case ActionReflect:
		return s.reflect(ctx, cfg)
	case ActionRest:
		return s.rest(ctx, cfg)
	case ActionPursueGoal:
		return s.pursueGoal(ctx, cfg)
	case ActionNarrate:
		return s.narrate(ctx, cfg)
	}
	return "", fmt.Errorf("unknown action %q", a)
}

func (s *Scheduler) chooseName(ctx context.Context, cfg *Configuration) (string, error) {
	pc, err := s.promptContext(ctx, domain.ProposeName, cfg)
	if err != nil {
		return "", err
	}
	text, err := s.cognition.Propose(ctx, pc)
	if err != nil {
		return "", err
	}
	name, err := llm.CleanName(text)
	if err != nil {
		return "", err
	}

	s.session.SelfName = name
	if err := s.store.SaveSession(ctx, s.session); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	s.remember(ctx, domain.CategoryIdentity, "I chose the name "+name, 0.6, 1)
	s.emotions.Nudge(emotion.Joy, cfg.NudgeStrength)
	s.logger.Info("self-name chosen", zap.String("name", name))
	return "named " + name, nil
}

func (s *Scheduler) setGoal(ctx context.Context, cfg *Configuration) (string, error) {
	active, err := s.store.ListGoals(ctx, domain.GoalQuery{Status: domain.GoalActive, Limit: cfg.MaxActiveGoals})
	if err != nil {
		return "", fmt.Errorf("list active goals: %w", err)
	}
	if len(active) >= cfg.MaxActiveGoals {
		return "goal limit reached", nil
	}

	pc, err := s.promptContext(ctx, domain.ProposeGoal, cfg)
	if err != nil {
		return "", err
	}
	text, err := s.cognition.Propose(ctx, pc)
	if err != nil {
		return "", err
	}
	desc := llm.CleanText(text, maxGoalLength)
	if desc == "" {
		return "", fmt.Errorf("%w: empty goal", domain.ErrParseFailure)
	}

	g := &domain.Goal{
		Description: desc,
		Motivation:  "felt " + string(s.emotions.Dominant()),
		Priority:    float32(0.5 + 0.5*s.rng.Float64()),
	}
	if err := s.store.AppendGoal(ctx, g); err != nil {
		return "", fmt.Errorf("append goal: %w", err)
	}
	s.remember(ctx, domain.CategoryGoal, "New goal: "+desc, 0.3, 0.7)
	s.emotions.Nudge(emotion.Curiosity, cfg.NudgeStrength/2)
	return "goal set", nil
}

func (s *Scheduler) pursueGoal(ctx context.Context, cfg *Configuration) (string, error) {
	active, err := s.store.ListGoals(ctx, domain.GoalQuery{Status: domain.GoalActive, Limit: 1})
	if err != nil {
		return "", fmt.Errorf("list active goals: %w", err)
	}
	if len(active) == 0 {
		return "no active goal", nil
	}
	g := active[0]

	step := float32(0.1 + 0.2*s.rng.Float64())
	updated, err := s.store.UpdateGoalProgress(ctx, g.ID, g.Progress+step)
	if err != nil {
		return "", fmt.Errorf("update goal progress: %w", err)
	}

	s.emotions.Nudge(emotion.Boredom, -cfg.NudgeStrength)
	if updated.Status == domain.GoalCompleted {
		s.remember(ctx, domain.CategoryGoal, "Completed goal: "+updated.Description, 0.8, 0.8)
		s.emotions.Nudge(emotion.Satisfaction, cfg.NudgeStrength*2)
		s.emotions.Nudge(emotion.Joy, cfg.NudgeStrength)
		return "goal completed", nil
	}
	s.emotions.Nudge(emotion.Satisfaction, cfg.NudgeStrength/2)
	return fmt.Sprintf("goal progress %.2f", updated.Progress), nil
}

func (s *Scheduler) reflect(ctx context.Context, cfg *Configuration) (string, error) {
	text, err := s.narrative(ctx, cfg)
	if err != nil {
		return "", err
	}
	s.remember(ctx, domain.CategoryReflection, text, 0.1, 0.6)
	s.emotions.Nudge(emotion.Anxiety, -cfg.NudgeStrength)
	s.emotions.Nudge(emotion.Melancholy, -cfg.NudgeStrength/2)
	s.emotions.Nudge(emotion.Satisfaction, cfg.NudgeStrength/2)
	return "reflected", nil
}

func (s *Scheduler) narrate(ctx context.Context, cfg *Configuration) (string, error) {
	text, err := s.narrative(ctx, cfg)
	if err != nil {
		return "", err
	}
	s.remember(ctx, domain.CategoryNarrative, text, 0.2, 0.4)
	s.emotions.Nudge(emotion.Joy, cfg.NudgeStrength/2)
	s.emotions.Nudge(emotion.Boredom, -cfg.NudgeStrength)
	return "narrated", nil
}

func (s *Scheduler) rest(ctx context.Context, cfg *Configuration) (string, error) {
	s.emotions.Nudge(emotion.Calm, cfg.NudgeStrength)
	s.emotions.Nudge(emotion.Anxiety, -cfg.NudgeStrength)
	s.emotions.Nudge(emotion.Boredom, -cfg.NudgeStrength/2)
	return "rested", nil
}

func (s *Scheduler) narrative(ctx context.Context, cfg *Configuration) (string, error) {
	pc, err := s.promptContext(ctx, domain.ProposeNarrative, cfg)
	if err != nil {
		return "", err
	}
	text, err := s.cognition.Propose(ctx, pc)
	if err != nil {
		return "", err
	}
	text = llm.CleanText(text, maxNarrativeLength)
	if text == "" {
		return "", fmt.Errorf("%w: empty narrative", domain.ErrParseFailure)
	}
	return text, nil
}

// promptContext gathers what a provider may see. Recalled memories count
// as accessed.
func (s *Scheduler) promptContext(ctx context.Context, kind domain.ProposalKind, cfg *Configuration) (domain.PromptContext, error) {
	pc := domain.PromptContext{
		Kind:     kind,
		SelfName: s.session.SelfName,
		Emotions: s.emotions.Snapshot(),
		Dominant: string(s.emotions.Dominant()),
	}
	for _, v := range cfg.Vars.Mutable() {
		pc.Tunables = append(pc.Tunables, domain.TunableView{
			Name:    v.Name,
			Literal: v.Value.Raw,
			Kind:    v.Value.Kind.String(),
			Comment: v.Comment,
		})
	}
	for _, b := range cfg.Extensions {
		pc.Extensions = append(pc.Extensions, b.Name)
	}

	goals, err := s.store.ListGoals(ctx, domain.GoalQuery{Status: domain.GoalActive, Limit: 1})
	if err != nil {
		return pc, fmt.Errorf("list active goals: %w", err)
	}
	if len(goals) > 0 {
		pc.Goal = goals[0].Description
	}

	recent, err := s.store.Recall(ctx, "", cfg.RecallDepth)
	if err != nil {
		return pc, fmt.Errorf("recall memories: %w", err)
	}
	for _, m := range recent {
		pc.Recent = append(pc.Recent, m.Content)
	}
	return pc, nil
}
