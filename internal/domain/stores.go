package domain

import (
	"context"

	"github.com/google/uuid"
)

type MemoryStore interface {
	AppendMemory(ctx context.Context, m *Memory) error
	QueryMemories(ctx context.Context, q MemoryQuery) ([]Memory, error)
	// Recall ranks by importance and recency and counts the access.
	Recall(ctx context.Context, category MemoryCategory, limit int) ([]MemoryWithScore, error)
}

type GoalStore interface {
	AppendGoal(ctx context.Context, g *Goal) error
	ListGoals(ctx context.Context, q GoalQuery) ([]Goal, error)
	UpdateGoalProgress(ctx context.Context, id uuid.UUID, progress float32) (*Goal, error)
}

type MutationStore interface {
	BeginMutation(ctx context.Context, m *Mutation) error
	FinalizeMutation(ctx context.Context, id uuid.UUID, accepted bool, reasoning string) error
	ListMutations(ctx context.Context, q MutationQuery) ([]Mutation, error)
	PendingMutations(ctx context.Context) ([]Mutation, error)
}

type EmotionStore interface {
	AppendEmotion(ctx context.Context, s *EmotionSample) error
	LatestEmotion(ctx context.Context) (*EmotionSample, error)
	ListEmotions(ctx context.Context, limit int) ([]EmotionSample, error)
}

type CycleStore interface {
	AppendCycle(ctx context.Context, c *Cycle) error
	ListCycles(ctx context.Context, limit int) ([]Cycle, error)
	LastCycleNumber(ctx context.Context) (int64, error)
}

type SessionStore interface {
	LoadSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
}

// StateStore is the single owner of every persisted record kind.
type StateStore interface {
	MemoryStore
	GoalStore
	MutationStore
	EmotionStore
	CycleStore
	SessionStore
}

// ProposalKind selects what a cognition call is asked to produce.
type ProposalKind string

const (
	ProposeVariable  ProposalKind = "variable"
	ProposeBlock     ProposalKind = "block"
	ProposeNarrative ProposalKind = "narrative"
	ProposeName      ProposalKind = "name"
	ProposeGoal      ProposalKind = "goal"
)

// TunableView is a mutable variable as presented to a cognition provider.
type TunableView struct {
	Name    string `json:"name"`
	Literal string `json:"literal"`
	Kind    string `json:"kind"`
	Comment string `json:"comment,omitempty"`
}

// PromptContext is everything a provider may see when producing a candidate.
type PromptContext struct {
	Kind       ProposalKind
	SelfName   string
	Emotions   map[string]float32
	Dominant   string
	Tunables   []TunableView
	Extensions []string
	Goal       string
	Recent     []string
}

// CognitionClient produces untrusted candidate text. Unavailability is an
// expected outcome reported as ErrCognitionUnavailable.
type CognitionClient interface {
	Propose(ctx context.Context, pc PromptContext) (string, error)
}
