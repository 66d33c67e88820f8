package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndQueryMemories(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.Memory{
		{Category: domain.CategoryEpisodic, Content: "woke up", Valence: 0.2, Importance: 0.3, CreatedAt: base},
		{Category: domain.CategoryBadMutation, Content: "broken candidate", Valence: -0.6, Importance: 0.8, CreatedAt: base.Add(time.Minute)},
		{Category: domain.CategoryEpisodic, Content: "looked around", Valence: 3, Importance: 2, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, s.AppendMemory(ctx, &records[i]))
		assert.NotEqual(t, uuid.Nil, records[i].ID)
	}

	// Out-of-range values are clamped on write.
	assert.Equal(t, float32(1), records[2].Valence)
	assert.Equal(t, float32(1), records[2].Importance)

	newest, err := s.QueryMemories(ctx, domain.MemoryQuery{Category: domain.CategoryEpisodic})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "looked around", newest[0].Content)
	assert.Equal(t, "woke up", newest[1].Content)

	negative, err := s.QueryMemories(ctx, domain.MemoryQuery{NegativeOnly: true})
	require.NoError(t, err)
	require.Len(t, negative, 1)
	assert.Equal(t, domain.CategoryBadMutation, negative[0].Category)

	important, err := s.QueryMemories(ctx, domain.MemoryQuery{MinImportance: 0.5, OrderBy: domain.OrderImportance})
	require.NoError(t, err)
	require.Len(t, important, 2)
	assert.Equal(t, "looked around", important[0].Content)

	limited, err := s.QueryMemories(ctx, domain.MemoryQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestQueryCountsAccess(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	m := &domain.Memory{Category: domain.CategoryReflection, Content: "who am I", Importance: 0.5}
	require.NoError(t, s.AppendMemory(ctx, m))

	for want := 1; want <= 3; want++ {
		got, err := s.QueryMemories(ctx, domain.MemoryQuery{Category: domain.CategoryReflection})
		require.NoError(t, err)
		require.Len(t, got, 1)
		if got[0].AccessCount != want {
			t.Errorf("access count = %d, want %d", got[0].AccessCount, want)
		}
	}
}

func TestRecallRanksImportanceAndRecency(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	add := func(content string, importance float32, age time.Duration) {
		require.NoError(t, s.AppendMemory(ctx, &domain.Memory{
			Category:   domain.CategoryEpisodic,
			Content:    content,
			Importance: importance,
			CreatedAt:  now.Add(-age),
		}))
	}
	add("old trivia", 0.1, 48*time.Hour)
	add("old milestone", 0.95, 48*time.Hour)
	add("fresh trivia", 0.1, time.Minute)
	add("fresh milestone", 0.9, time.Minute)

	got, err := s.Recall(ctx, domain.CategoryEpisodic, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "fresh milestone", got[0].Content)
	assert.Equal(t, "old milestone", got[1].Content)
	assert.Equal(t, "fresh trivia", got[2].Content)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, 1, got[0].AccessCount)

	other, err := s.Recall(ctx, domain.CategoryIdentity, 5)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAppendMemoryRejectsUnknownCategory(t *testing.T) {
	s := openTestStore(t)
	err := s.AppendMemory(context.Background(), &domain.Memory{Category: "gossip", Content: "x"})
	assert.Error(t, err)
}

func TestGoalProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	g := &domain.Goal{Description: "learn to dream", Priority: 0.7}
	require.NoError(t, s.AppendGoal(ctx, g))
	assert.Equal(t, domain.GoalActive, g.Status)

	updated, err := s.UpdateGoalProgress(ctx, g.ID, 0.4)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, updated.Progress, 1e-6)
	assert.Nil(t, updated.CompletedAt)

	_, err = s.UpdateGoalProgress(ctx, g.ID, 0.2)
	assert.ErrorIs(t, err, domain.ErrGoalRegression)

	updated, err = s.UpdateGoalProgress(ctx, g.ID, 1.3)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.InDelta(t, 1.0, updated.Progress, 1e-6)
	completedAt := *updated.CompletedAt

	again, err := s.UpdateGoalProgress(ctx, g.ID, 1)
	require.NoError(t, err)
	assert.True(t, completedAt.Equal(*again.CompletedAt))

	active, err := s.ListGoals(ctx, domain.GoalQuery{Status: domain.GoalActive})
	require.NoError(t, err)
	assert.Empty(t, active)

	done, err := s.ListGoals(ctx, domain.GoalQuery{Status: domain.GoalCompleted})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, g.ID, done[0].ID)

	_, err = s.UpdateGoalProgress(ctx, uuid.New(), 0.5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListGoalsOrdersByPriority(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i, p := range []float32{0.2, 0.9, 0.5} {
		require.NoError(t, s.AppendGoal(ctx, &domain.Goal{Description: fmt.Sprintf("goal %d", i), Priority: p}))
	}
	goals, err := s.ListGoals(ctx, domain.GoalQuery{})
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, "goal 1", goals[0].Description)
	assert.Equal(t, "goal 2", goals[1].Description)
	assert.Equal(t, "goal 0", goals[2].Description)

	assert.Error(t, s.AppendGoal(ctx, &domain.Goal{}))
}

func TestMutationFinalizedOnce(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	m := &domain.Mutation{VariableName: "BOREDOM_THRESHOLD", OldValue: "0.99", NewValue: "0.80", Reasoning: "restless"}
	require.NoError(t, s.BeginMutation(ctx, m))
	assert.True(t, m.Pending())

	pending, err := s.PendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, m.ID, pending[0].ID)
	assert.Equal(t, domain.MutationVariable, pending[0].Kind)

	require.NoError(t, s.FinalizeMutation(ctx, m.ID, true, ""))

	err = s.FinalizeMutation(ctx, m.ID, false, "second verdict")
	assert.ErrorIs(t, err, domain.ErrMutationFinalized)

	err = s.FinalizeMutation(ctx, uuid.New(), true, "")
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err = s.PendingMutations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	accepted := true
	list, err := s.ListMutations(ctx, domain.MutationQuery{VariableName: "BOREDOM_THRESHOLD", Accepted: &accepted})
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	require.NotNil(t, got.Accepted)
	assert.True(t, *got.Accepted)
	assert.Equal(t, "0.99", got.OldValue)
	assert.Equal(t, "0.80", got.NewValue)
	assert.Equal(t, "restless", got.Reasoning)
	assert.NotNil(t, got.FinalizedAt)
}

func TestMutationRejectionReasoning(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	m := &domain.Mutation{Kind: domain.MutationBlock, VariableName: "stargaze", Reasoning: "grow"}
	require.NoError(t, s.BeginMutation(ctx, m))
	require.NoError(t, s.FinalizeMutation(ctx, m.ID, false, "syntax: expected '}'"))

	rejected := false
	list, err := s.ListMutations(ctx, domain.MutationQuery{Accepted: &rejected})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "syntax: expected '}'", list[0].Reasoning)
	assert.Equal(t, domain.MutationBlock, list[0].Kind)
}

func TestEmotionsAndCycles(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LatestEmotion(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.LastCycleNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.AppendEmotion(ctx, &domain.EmotionSample{
			Values:   map[string]float32{"joy": float32(i) / 10, "boredom": 0.5},
			Dominant: "boredom",
			Valence:  -0.1,
		}))
		require.NoError(t, s.AppendCycle(ctx, &domain.Cycle{CycleNumber: int64(i), Action: "rest", Outcome: "ok"}))
	}

	latest, err := s.LatestEmotion(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, latest.Values["joy"], 1e-6)
	assert.Equal(t, "boredom", latest.Dominant)

	samples, err := s.ListEmotions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	n, err = s.LastCycleNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cycles, err := s.ListCycles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, cycles, 3)
	assert.Equal(t, int64(3), cycles[0].CycleNumber)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	sess, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Empty(t, sess.SelfName)

	first := time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC)
	sess.SelfName = "Lumen"
	sess.TotalRestarts = 4
	sess.FirstAwakening = first
	require.NoError(t, s.SaveSession(ctx, sess))
	sess.TotalCycles = 9
	require.NoError(t, s.SaveSession(ctx, sess))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lumen", got.SelfName)
	assert.Equal(t, int64(4), got.TotalRestarts)
	assert.Equal(t, int64(9), got.TotalCycles)
	assert.True(t, got.FirstAwakening.Equal(first))
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	require.NoError(t, err)
	defer in.Close()
	out, err := os.Create(dst)
	require.NoError(t, err)
	_, err = io.Copy(out, in)
	require.NoError(t, err)
	require.NoError(t, out.Close())
}

// snapshot copies the database and its log while the store is still open,
// which is what a kill -9 leaves behind.
func snapshot(t *testing.T, path string) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), "crashed.db")
	copyFile(t, path, dst)
	copyFile(t, path+"-wal", dst+"-wal")
	return dst
}

func TestDurabilityAfterUncleanShutdown(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, s.AppendMemory(ctx, &domain.Memory{
			Category: domain.CategoryEpisodic,
			Content:  fmt.Sprintf("record %d", i),
		}))
	}

	crashed := snapshot(t, s.Path())

	t.Run("all committed records survive", func(t *testing.T) {
		reopened, err := Open(ctx, crashed)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.QueryMemories(ctx, domain.MemoryQuery{Limit: n * 2})
		require.NoError(t, err)
		assert.Len(t, got, n)
	})

	t.Run("torn log tail is discarded", func(t *testing.T) {
		torn := snapshot(t, s.Path())
		f, err := os.OpenFile(torn+"-wal", os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		require.NoError(t, err)
		_, err = f.Write([]byte("half-written frame \x00\x01\x02\x03 garbage"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		reopened, err := Open(ctx, torn)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.QueryMemories(ctx, domain.MemoryQuery{Limit: n * 2})
		require.NoError(t, err)
		assert.Len(t, got, n)
		for _, m := range got {
			assert.Regexp(t, `^record \d+$`, m.Content)
		}
	})
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	junk := make([]byte, 0, 8192)
	for len(junk) < 8192 {
		junk = append(junk, "this is not a database file. "...)
	}
	require.NoError(t, os.WriteFile(path, junk, 0o644))

	_, err := Open(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrJournalCorruption)
}
