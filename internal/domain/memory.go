package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemoryCategory groups memory records for retrieval.
type MemoryCategory string

const (
	CategoryEpisodic    MemoryCategory = "episodic"
	CategoryReflection  MemoryCategory = "reflection"
	CategoryNarrative   MemoryCategory = "narrative"
	CategoryIdentity    MemoryCategory = "identity"
	CategoryGoal        MemoryCategory = "goal"
	CategoryMutation    MemoryCategory = "mutation"
	CategoryBadMutation MemoryCategory = "bad_mutation"
	CategoryExtension   MemoryCategory = "extension"
	CategoryError       MemoryCategory = "error"
)

func ValidMemoryCategory(c string) bool {
	switch MemoryCategory(c) {
	case CategoryEpisodic, CategoryReflection, CategoryNarrative, CategoryIdentity,
		CategoryGoal, CategoryMutation, CategoryBadMutation, CategoryExtension, CategoryError:
		return true
	}
	return false
}

// Memory is an append-only note. Only AccessCount changes after insertion.
type Memory struct {
	ID          uuid.UUID      `json:"id"`
	Category    MemoryCategory `json:"category"`
	Content     string         `json:"content"`
	Valence     float32        `json:"valence"`
	Importance  float32        `json:"importance"`
	AccessCount int            `json:"access_count"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Normalize clamps valence to [-1,1] and importance to [0,1].
func (m *Memory) Normalize() {
	m.Valence = ClampSigned(m.Valence)
	m.Importance = Clamp01(m.Importance)
}

// MemoryOrder selects the ranking used by QueryMemories.
type MemoryOrder string

const (
	OrderNewest     MemoryOrder = "newest"
	OrderImportance MemoryOrder = "importance"
	OrderRelevance  MemoryOrder = "relevance"
)

type MemoryQuery struct {
	Category      MemoryCategory
	MinImportance float32
	NegativeOnly  bool
	OrderBy       MemoryOrder
	Limit         int
}

type MemoryWithScore struct {
	Memory
	Score float32 `json:"score"`
}

func Clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func ClampSigned(v float32) float32 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
