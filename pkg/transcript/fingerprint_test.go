package transcript

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases", in: "Hello World", want: "hello world"},
		{name: "strips punctuation", in: "Hello, world!", want: "hello world"},
		{name: "collapses whitespace", in: "hello   \t world", want: "hello world"},
		{name: "trims edges", in: "  hello world  ", want: "hello world"},
		{name: "keeps digits", in: "Meeting at 10:30", want: "meeting at 1030"},
		{name: "empty", in: "", want: ""},
		{name: "punctuation only", in: "?!...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFingerprintStability(t *testing.T) {
	base := Fingerprint("Hello world", 1000, 2500, 1000)

	// Cosmetic differences collapse onto the same fingerprint.
	same := []struct {
		name    string
		text    string
		startMs int64
		endMs   int64
	}{
		{name: "punctuation and case", text: "hello, World!", startMs: 1000, endMs: 2500},
		{name: "jittered timings inside bucket", text: "Hello world", startMs: 1080, endMs: 2460},
	}
	for _, tt := range same {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fingerprint(tt.text, tt.startMs, tt.endMs, 1000); got != base {
				t.Errorf("Fingerprint(%q, %d, %d) = %s, want %s", tt.text, tt.startMs, tt.endMs, got, base)
			}
		})
	}

	// Different text or a different window is a different utterance.
	different := []struct {
		name    string
		text    string
		startMs int64
		endMs   int64
	}{
		{name: "different text", text: "hello there world", startMs: 1000, endMs: 2500},
		{name: "shifted window", text: "Hello world", startMs: 4000, endMs: 5500},
	}
	for _, tt := range different {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fingerprint(tt.text, tt.startMs, tt.endMs, 1000); got == base {
				t.Errorf("Fingerprint(%q, %d, %d) collided with base", tt.text, tt.startMs, tt.endMs)
			}
		})
	}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     int64
		want                           float64
	}{
		{name: "disjoint", aStart: 0, aEnd: 1000, bStart: 2000, bEnd: 3000, want: 0},
		{name: "touching edges", aStart: 0, aEnd: 1000, bStart: 1000, bEnd: 2000, want: 0},
		{name: "identical", aStart: 0, aEnd: 1000, bStart: 0, bEnd: 1000, want: 1},
		{name: "contained", aStart: 0, aEnd: 4000, bStart: 1000, bEnd: 2000, want: 1},
		{name: "half of shorter", aStart: 0, aEnd: 1000, bStart: 500, bEnd: 1500, want: 0.5},
		{name: "zero length window", aStart: 500, aEnd: 500, bStart: 0, bEnd: 1000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapRatio(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("overlapRatio() = %f, want %f", got, tt.want)
			}
		})
	}
}
