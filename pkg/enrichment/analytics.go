package enrichment

import (
	"context"
	"math"
	"strings"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
)

// Tokens counted as filler when they stand alone.
var fillerWords = map[string]struct{}{
	"um":  {},
	"uh":  {},
	"uhm": {},
	"erm": {},
	"er":  {},
	"ah":  {},
	"hmm": {},
	"mhm": {},
}

// AnalyticsStage computes speech statistics locally, no model involved. It
// cannot fail on provider errors, which keeps at least one stage resolvable
// when every upstream AI dependency is down.
type AnalyticsStage struct{}

func NewAnalyticsStage() *AnalyticsStage {
	return &AnalyticsStage{}
}

func (s *AnalyticsStage) Name() string {
	return entity.StageAnalytics
}

func (s *AnalyticsStage) Run(ctx context.Context, in Input) (map[string]interface{}, error) {
	wordCount := 0
	fillerCount := 0
	for _, token := range strings.Fields(in.Transcript) {
		wordCount++
		token = strings.ToLower(strings.Trim(token, ".,!?;:\"'()"))
		if _, ok := fillerWords[token]; ok {
			fillerCount++
		}
	}

	durationMs := in.AudioDurationMs
	var weightedConf, confWeight float64
	var longestSilenceMs, lastEndMs int64
	distribution := map[string]int{"low": 0, "medium": 0, "high": 0}

	for i, u := range in.Utterances {
		if u.EndMs > durationMs {
			durationMs = u.EndMs
		}
		if w := float64(u.EndMs - u.StartMs); w > 0 {
			weightedConf += u.Confidence * w
			confWeight += w
		}
		switch {
		case u.Confidence < 0.5:
			distribution["low"]++
		case u.Confidence < 0.8:
			distribution["medium"]++
		default:
			distribution["high"]++
		}
		if i > 0 {
			if gap := u.StartMs - lastEndMs; gap > longestSilenceMs {
				longestSilenceMs = gap
			}
		}
		if u.EndMs > lastEndMs {
			lastEndMs = u.EndMs
		}
	}

	avgConfidence := 0.0
	if confWeight > 0 {
		avgConfidence = weightedConf / confWeight
	}

	wordsPerMinute := 0.0
	if durationMs > 0 {
		wordsPerMinute = float64(wordCount) / (float64(durationMs) / 60000.0)
		wordsPerMinute = math.Round(wordsPerMinute*10) / 10
	}

	fillerRatio := 0.0
	if wordCount > 0 {
		fillerRatio = float64(fillerCount) / float64(wordCount)
	}

	return map[string]interface{}{
		"word_count":              wordCount,
		"duration_ms":             durationMs,
		"words_per_minute":        wordsPerMinute,
		"avg_confidence":          avgConfidence,
		"confidence_distribution": distribution,
		"filler_ratio":            fillerRatio,
		"longest_silence_ms":      longestSilenceMs,
	}, nil
}
