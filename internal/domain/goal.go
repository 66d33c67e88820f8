package domain

import (
	"time"

	"github.com/google/uuid"
)

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

func ValidGoalStatus(s string) bool {
	switch GoalStatus(s) {
	case GoalActive, GoalCompleted:
		return true
	}
	return false
}

// Goal is a self-set objective. Progress only increases; reaching 1.0
// completes the goal and stamps CompletedAt.
type Goal struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	Motivation  string     `json:"motivation,omitempty"`
	Priority    float32    `json:"priority"`
	Progress    float32    `json:"progress"`
	Status      GoalStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type GoalQuery struct {
	Status GoalStatus
	Limit  int
}
