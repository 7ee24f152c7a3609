package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/capitalrow/MinaProd-sub007/pkg/llm"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func TestParseTaskItems(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantCount int
		wantErr   bool
	}{
		{
			name:      "bare array",
			response:  `[{"text": "ship the release", "owner": "dana", "due_hint": "friday"}]`,
			wantCount: 1,
		},
		{
			name: "fenced array",
			response: "```json\n" +
				`[{"text": "review the doc"}, {"text": "book the room", "due_hint": "next week"}]` +
				"\n```",
			wantCount: 2,
		},
		{
			name:      "items wrapper",
			response:  `{"items": [{"text": "follow up"}]}`,
			wantCount: 1,
		},
		{
			name:      "empty array",
			response:  `[]`,
			wantCount: 0,
		},
		{
			name:      "blank text entries dropped",
			response:  `[{"text": "  "}, {"text": "real task"}]`,
			wantCount: 1,
		},
		{
			name:     "prose instead of JSON",
			response: "Sure! Here are the action items I found.",
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
		{
			name:     "object without items",
			response: `{"tasks": []}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := parseTaskItems(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseTaskItems() expected error, got nil")
				}
				if !errors.Is(err, ErrMalformedOutput) {
					t.Errorf("error = %v, want ErrMalformedOutput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTaskItems() error = %v", err)
			}
			if len(items) != tt.wantCount {
				t.Errorf("len(items) = %d, want %d", len(items), tt.wantCount)
			}
		})
	}
}

func TestTasksRunEmptyTranscript(t *testing.T) {
	stage := NewTasksStage(&stubLLM{response: "should not be called"})

	payload, err := stage.Run(context.Background(), Input{Transcript: "   "})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if items := payload["items"].([]TaskItem); len(items) != 0 {
		t.Errorf("items = %v, want empty", items)
	}
}

func TestSummaryParseFallback(t *testing.T) {
	summary, keyPoints := parseSummary(`{"summary": "We planned the launch.", "key_points": ["date set", "owners assigned"]}`)
	if summary != "We planned the launch." {
		t.Errorf("summary = %q", summary)
	}
	if len(keyPoints) != 2 {
		t.Errorf("key_points = %v, want 2 entries", keyPoints)
	}

	// Non-JSON answers degrade to a raw-text summary.
	summary, keyPoints = parseSummary("The team discussed the launch plan.")
	if summary != "The team discussed the launch plan." {
		t.Errorf("fallback summary = %q", summary)
	}
	if len(keyPoints) != 0 {
		t.Errorf("fallback key_points = %v, want empty", keyPoints)
	}
}
