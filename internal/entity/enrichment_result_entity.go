package entity

import (
	"time"

	"github.com/google/uuid"
)

// Post-processing stage names. Order here is the dispatch order, though the
// stages themselves are independent and run concurrently.
const (
	StageRefinement = "refinement"
	StageAnalytics  = "analytics"
	StageTasks      = "tasks"
	StageSummary    = "summary"
)

// EnrichmentStages lists every stage a finalizing session must resolve.
func EnrichmentStages() []string {
	return []string{StageRefinement, StageAnalytics, StageTasks, StageSummary}
}

// EnrichmentStatus is the terminal-or-not state of a single stage run.
type EnrichmentStatus string

const (
	EnrichmentPending EnrichmentStatus = "pending"
	EnrichmentRunning EnrichmentStatus = "running"
	EnrichmentReady   EnrichmentStatus = "ready"
	EnrichmentFailed  EnrichmentStatus = "failed"
)

// EnrichmentResult is the outcome of one post-processing stage for one
// session. At most one row exists per (session, stage); re-running a READY
// stage is a no-op unless forced.
type EnrichmentResult struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId   uuid.UUID `gorm:"type:uuid;index"`
	Stage       string
	Status      EnrichmentStatus
	Payload     map[string]interface{}
	ErrorDetail string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Resolved reports whether the stage reached a terminal status.
func (r *EnrichmentResult) Resolved() bool {
	return r.Status == EnrichmentReady || r.Status == EnrichmentFailed
}
