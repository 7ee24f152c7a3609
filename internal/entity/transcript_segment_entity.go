package entity

import (
	"time"

	"github.com/google/uuid"
)

// SegmentKind distinguishes provisional hypotheses from committed transcript.
type SegmentKind string

const (
	SegmentInterim SegmentKind = "interim"
	SegmentFinal   SegmentKind = "final"
)

// TranscriptSegment is one recognized span of speech. FINAL segments are
// append-only rows in transcript_segments; INTERIM segments only ever live
// in the reconciler's in-memory view and are replaced in place until a
// FINAL supersedes them.
type TranscriptSegment struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId  uuid.UUID `gorm:"type:uuid;index"`
	Kind       SegmentKind
	Text       string
	StartMs    int64
	EndMs      int64
	Confidence float64

	// Fingerprint identifies a segment across provider retries: a hash of
	// the normalized text plus the window rounded to a coarse bucket.
	Fingerprint string

	// OutOfOrder marks a FINAL that arrived with StartMs earlier than the
	// latest committed EndMs. The segment is still stored; readers re-sort.
	OutOfOrder bool

	CreatedAt time.Time
}

// DurationMs returns the window length, never negative.
func (s *TranscriptSegment) DurationMs() int64 {
	if s.EndMs <= s.StartMs {
		return 0
	}
	return s.EndMs - s.StartMs
}
