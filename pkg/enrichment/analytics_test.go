package enrichment

import (
	"context"
	"math"
	"testing"
)

func TestAnalyticsRun(t *testing.T) {
	stage := NewAnalyticsStage()
	in := Input{
		Transcript:      "Um okay let's ship the release notes tomorrow",
		AudioDurationMs: 12000,
		Utterances: []Utterance{
			{Text: "Um okay", StartMs: 0, EndMs: 2000, Confidence: 0.4},
			{Text: "let's ship the release", StartMs: 5000, EndMs: 9000, Confidence: 0.7},
			{Text: "notes tomorrow", StartMs: 9500, EndMs: 12000, Confidence: 0.95},
		},
	}

	payload, err := stage.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := payload["word_count"].(int); got != 8 {
		t.Errorf("word_count = %d, want 8", got)
	}
	if got := payload["duration_ms"].(int64); got != 12000 {
		t.Errorf("duration_ms = %d, want 12000", got)
	}
	if got := payload["longest_silence_ms"].(int64); got != 3000 {
		t.Errorf("longest_silence_ms = %d, want 3000", got)
	}

	// 8 words over 12s = 40 words/min.
	if got := payload["words_per_minute"].(float64); got != 40.0 {
		t.Errorf("words_per_minute = %v, want 40.0", got)
	}

	// One "Um" filler out of 8 words.
	if got := payload["filler_ratio"].(float64); math.Abs(got-0.125) > 1e-9 {
		t.Errorf("filler_ratio = %v, want 0.125", got)
	}

	// Duration-weighted: (0.4*2000 + 0.7*4000 + 0.95*2500) / 8500.
	wantConf := (0.4*2000 + 0.7*4000 + 0.95*2500) / 8500
	if got := payload["avg_confidence"].(float64); math.Abs(got-wantConf) > 1e-9 {
		t.Errorf("avg_confidence = %v, want %v", got, wantConf)
	}

	dist := payload["confidence_distribution"].(map[string]int)
	if dist["low"] != 1 || dist["medium"] != 1 || dist["high"] != 1 {
		t.Errorf("confidence_distribution = %v, want one of each", dist)
	}
}

func TestAnalyticsRunEmpty(t *testing.T) {
	stage := NewAnalyticsStage()

	payload, err := stage.Run(context.Background(), Input{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := payload["word_count"].(int); got != 0 {
		t.Errorf("word_count = %d, want 0", got)
	}
	if got := payload["words_per_minute"].(float64); got != 0.0 {
		t.Errorf("words_per_minute = %v, want 0", got)
	}
	if got := payload["avg_confidence"].(float64); got != 0.0 {
		t.Errorf("avg_confidence = %v, want 0", got)
	}
	if got := payload["filler_ratio"].(float64); got != 0.0 {
		t.Errorf("filler_ratio = %v, want 0", got)
	}
}

func TestAnalyticsStageName(t *testing.T) {
	if got := NewAnalyticsStage().Name(); got != "analytics" {
		t.Errorf("Name() = %q, want %q", got, "analytics")
	}
}
