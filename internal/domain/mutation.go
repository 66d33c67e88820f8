package domain

import (
	"time"

	"github.com/google/uuid"
)

// MutationKind distinguishes a tunable change from a grown code block.
type MutationKind string

const (
	MutationVariable MutationKind = "variable"
	MutationBlock    MutationKind = "block"
)

// Mutation is one entry of the self-modification audit trail. It is created
// pending (Accepted == nil) before a candidate is proposed and finalized
// exactly once after the pipeline accepts or rejects it.
type Mutation struct {
	ID           uuid.UUID    `json:"id"`
	Kind         MutationKind `json:"kind"`
	VariableName string       `json:"variable_name"`
	OldValue     string       `json:"old_value"`
	NewValue     string       `json:"new_value"`
	Accepted     *bool        `json:"accepted,omitempty"`
	Reasoning    string       `json:"reasoning"`
	Origin       string       `json:"origin,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	FinalizedAt  *time.Time   `json:"finalized_at,omitempty"`
}

func (m Mutation) Pending() bool {
	return m.Accepted == nil
}

type MutationQuery struct {
	VariableName string
	Accepted     *bool
	Limit        int
}
