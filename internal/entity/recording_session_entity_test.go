package entity

import (
	"testing"
)

func TestSessionStateCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from SessionState
		to   SessionState
		want bool
	}{
		{name: "created to active", from: SessionCreated, to: SessionActive, want: true},
		{name: "active to finalizing", from: SessionActive, to: SessionFinalizing, want: true},
		{name: "finalizing to completed", from: SessionFinalizing, to: SessionCompleted, want: true},
		{name: "finalizing to partially completed", from: SessionFinalizing, to: SessionPartiallyCompleted, want: true},
		{name: "created to failed", from: SessionCreated, to: SessionFailed, want: true},
		{name: "active to failed", from: SessionActive, to: SessionFailed, want: true},
		{name: "finalizing to failed", from: SessionFinalizing, to: SessionFailed, want: true},
		{name: "created skips to finalizing", from: SessionCreated, to: SessionFinalizing, want: false},
		{name: "created skips to completed", from: SessionCreated, to: SessionCompleted, want: false},
		{name: "active skips to completed", from: SessionActive, to: SessionCompleted, want: false},
		{name: "active to partially completed", from: SessionActive, to: SessionPartiallyCompleted, want: false},
		{name: "completed is terminal", from: SessionCompleted, to: SessionFailed, want: false},
		{name: "partially completed is terminal", from: SessionPartiallyCompleted, to: SessionFailed, want: false},
		{name: "failed is terminal", from: SessionFailed, to: SessionActive, want: false},
		{name: "no self transition", from: SessionActive, to: SessionActive, want: false},
		{name: "no backward transition", from: SessionFinalizing, to: SessionActive, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSessionStateTerminal(t *testing.T) {
	terminal := []SessionState{SessionCompleted, SessionPartiallyCompleted, SessionFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("Terminal(%s) = false, want true", s)
		}
	}

	live := []SessionState{SessionCreated, SessionActive, SessionFinalizing}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("Terminal(%s) = true, want false", s)
		}
	}
}

func TestDedupeKeyFor(t *testing.T) {
	tests := []struct {
		name          string
		eventType     string
		discriminator string
		want          string
	}{
		{name: "lifecycle event keys on type alone", eventType: EventRecordStop, discriminator: "", want: "record_stop"},
		{name: "stage event carries stage name", eventType: EventStageReady, discriminator: StageSummary, want: "stage_ready:summary"},
		{name: "segment event carries fingerprint", eventType: EventSegmentFinal, discriminator: "ab12cd", want: "segment_final:ab12cd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DedupeKeyFor(tt.eventType, tt.discriminator); got != tt.want {
				t.Errorf("DedupeKeyFor() = %q, want %q", got, tt.want)
			}
		})
	}
}
