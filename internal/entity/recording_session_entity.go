package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a recording session.
type SessionState string

const (
	SessionCreated            SessionState = "CREATED"
	SessionActive             SessionState = "ACTIVE"
	SessionFinalizing         SessionState = "FINALIZING"
	SessionCompleted          SessionState = "COMPLETED"
	SessionPartiallyCompleted SessionState = "PARTIALLY_COMPLETED"
	SessionFailed             SessionState = "FAILED"
)

// sessionTransitions holds the forward edges of the lifecycle.
// FAILED is reachable from any non-terminal state and is handled
// separately in CanTransitionTo.
var sessionTransitions = map[SessionState][]SessionState{
	SessionCreated:    {SessionActive},
	SessionActive:     {SessionFinalizing},
	SessionFinalizing: {SessionCompleted, SessionPartiallyCompleted},
}

// Terminal reports whether no further transitions are allowed from s.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionCompleted, SessionPartiallyCompleted, SessionFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
// States are never revisited: every edge moves strictly forward.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	if next == SessionFailed {
		return !s.Terminal()
	}
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type RecordingSession struct {
	Id      uuid.UUID `gorm:"type:uuid;primaryKey"`
	TraceId uuid.UUID `gorm:"type:uuid;index"`
	UserId  uuid.UUID `gorm:"type:uuid;index"`
	State   SessionState

	// StopReason records why the session left ACTIVE: "client_stop",
	// "idle_timeout" or "aborted".
	StopReason string

	// Transcript aggregates, mutated only while ACTIVE and frozen once
	// finalization starts.
	SegmentCount    int
	AudioDurationMs int64
	AvgConfidence   float64

	StartedAt   *time.Time
	FinalizedAt *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
