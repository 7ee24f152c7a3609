package transcript

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// DefaultWindowMs is the bucket size used to round segment windows when
// fingerprinting. Provider retries jitter timings by tens of milliseconds;
// a one second bucket absorbs that without gluing distinct utterances.
const DefaultWindowMs int64 = 1000

// NormalizeText lowers the text, strips punctuation and collapses whitespace
// so that provider re-deliveries with cosmetic differences fingerprint alike.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Fingerprint hashes the normalized text together with the window rounded to
// windowMs buckets. Two results carrying the same utterance in roughly the
// same window collide on purpose.
func Fingerprint(text string, startMs, endMs, windowMs int64) string {
	if windowMs <= 0 {
		windowMs = DefaultWindowMs
	}

	key := fmt.Sprintf("%s:%d:%d", NormalizeText(text), roundToBucket(startMs, windowMs), roundToBucket(endMs, windowMs))
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func roundToBucket(ms, windowMs int64) int64 {
	return (ms + windowMs/2) / windowMs
}

// overlapRatio measures how much two windows intersect, relative to the
// shorter one. Degenerate zero-length windows never overlap.
func overlapRatio(aStart, aEnd, bStart, bEnd int64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}

	minLen := aEnd - aStart
	if l := bEnd - bStart; l < minLen {
		minLen = l
	}
	if minLen <= 0 {
		return 0
	}

	return float64(end-start) / float64(minLen)
}
