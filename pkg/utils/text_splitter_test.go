package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInputPassesThrough(t *testing.T) {
	got := SplitText("short transcript", 100, 10)
	if len(got) != 1 || got[0] != "short transcript" {
		t.Fatalf("expected single untouched chunk, got %v", got)
	}
}

func TestSplitTextBreaksOnSpaces(t *testing.T) {
	got := SplitText("aaaa bbbb cccc dddd", 10, 3)
	want := []string{"aaaa bbbb", "bbb cccc", "ccc dddd"}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitTextChunkSizeIsRespected(t *testing.T) {
	text := strings.Repeat("word ", 200)
	for _, chunk := range SplitText(text, 50, 10) {
		if n := len([]rune(chunk)); n > 50 {
			t.Errorf("chunk of %d runes exceeds the limit: %q", n, chunk)
		}
	}
}

func TestSplitTextUnbrokenTokenIsCutMidWord(t *testing.T) {
	got := SplitText(strings.Repeat("x", 25), 10, 3)
	want := []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxxxxxxx", "xxxx"}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitTextDegenerateOverlapDoesNotLoop(t *testing.T) {
	got := SplitText(strings.Repeat("ab ", 40), 10, 10)
	if len(got) == 0 {
		t.Fatal("expected chunks for long input")
	}
	joined := strings.Join(got, " ")
	if !strings.Contains(joined, "ab") {
		t.Fatalf("content lost during split: %v", got)
	}
}
