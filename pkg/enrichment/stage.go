package enrichment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Utterance is one final transcript segment handed to the stages.
type Utterance struct {
	Text       string
	StartMs    int64
	EndMs      int64
	Confidence float64
}

// Input carries everything a stage needs about a finalized session. Transcript
// is the final segments joined in start-time order; Utterances preserves the
// per-segment timing for stages that need it.
type Input struct {
	SessionID       uuid.UUID
	TraceID         uuid.UUID
	Transcript      string
	Utterances      []Utterance
	AudioDurationMs int64
}

// ErrMalformedOutput marks a stage failure caused by unparsable model output.
// Retrying won't help, the caller should record the failure as-is.
var ErrMalformedOutput = errors.New("malformed model output")

// Stage is one unit of post-processing work. A stage failure never implies
// anything about its siblings; callers isolate each Run.
type Stage interface {
	Name() string

	// Run produces the stage payload. Implementations must be safe to
	// re-run for the same input.
	Run(ctx context.Context, in Input) (map[string]interface{}, error)
}

// cleanModelJSON strips the markdown fences models like to wrap JSON in.
func cleanModelJSON(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
