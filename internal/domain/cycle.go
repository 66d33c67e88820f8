package domain

import (
	"time"
)

// EmotionSample is a per-cycle snapshot of every emotional scalar.
type EmotionSample struct {
	ID        int64              `json:"id"`
	Values    map[string]float32 `json:"values"`
	Dominant  string             `json:"dominant"`
	Valence   float32            `json:"valence"`
	CreatedAt time.Time          `json:"created_at"`
}

// Cycle records the single action taken by one scheduler tick.
type Cycle struct {
	ID          int64     `json:"id"`
	CycleNumber int64     `json:"cycle_number"`
	Action      string    `json:"action"`
	Outcome     string    `json:"outcome"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session carries identity and continuity counters across restarts.
type Session struct {
	SelfName       string    `json:"self_name,omitempty"`
	TotalCycles    int64     `json:"total_cycles"`
	TotalRestarts  int64     `json:"total_restarts"`
	FirstAwakening time.Time `json:"first_awakening"`
	LastStart      time.Time `json:"last_start"`
	ArchivedBackup string    `json:"archived_backup,omitempty"`
}
