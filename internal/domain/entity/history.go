package entity

import "time"

// TransitionHistory is the audit trail of an engagement
type TransitionHistory struct {
	ID             int64     `json:"id"`
	EngagementID   int64     `json:"engagement_id"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	Action         string    `json:"action"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Remarks        string    `json:"remarks,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
