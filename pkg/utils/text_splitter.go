package utils

import (
	"strings"
	"unicode"
)

// SplitText cuts text into chunks of at most chunkSize runes for embedding,
// overlapping consecutive chunks by roughly overlap runes so phrases keep
// their neighbours across a boundary. Cuts land on the last space before the
// limit; a single unbroken token longer than chunkSize is split mid-word.
func SplitText(text string, chunkSize int, overlap int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			tail := strings.TrimSpace(string(runes[start:]))
			if tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		cut := end
		if idx := lastSpaceBefore(runes, start, end); idx > start {
			cut = idx
		}

		piece := strings.TrimSpace(string(runes[start:cut]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

func lastSpaceBefore(runes []rune, from, to int) int {
	for i := to - 1; i > from; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
