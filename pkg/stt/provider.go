package stt

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind tells whether a result is a provisional hypothesis or settled text.
type Kind string

const (
	KindInterim Kind = "interim"
	KindFinal   Kind = "final"
)

// Chunk is one piece of session audio submitted for transcription.
type Chunk struct {
	SessionID uuid.UUID
	TraceID   uuid.UUID
	SeqNo     int

	// OffsetMs is where this chunk sits on the session timeline. DurationMs
	// is derived by the caller from the PCM length; providers that return no
	// timings fall back to [OffsetMs, OffsetMs+DurationMs].
	OffsetMs   int64
	DurationMs int64

	Audio []byte
}

// Result is a single transcription hypothesis for a chunk.
type Result struct {
	Text       string
	Kind       Kind
	Confidence float64
	StartMs    int64
	EndMs      int64
}

// Provider is the external speech-to-text capability.
type Provider interface {
	Transcribe(ctx context.Context, chunk Chunk) (*Result, error)
}

// ProviderError classifies a transcription failure. Transient errors
// (timeouts, rate limits, upstream 5xx) are worth retrying with backoff;
// permanent ones (invalid audio) are not.
type ProviderError struct {
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Transient {
		return fmt.Sprintf("stt: transient provider error: %v", e.Err)
	}
	return fmt.Sprintf("stt: permanent provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retriable provider error.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return false
}

// classifyStatus maps an HTTP status from a provider to transient/permanent.
func classifyStatus(status int) bool {
	switch {
	case status == 408 || status == 429:
		return true
	case status >= 500:
		return true
	}
	return false
}
