package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/pkg/llm"
)

// SummaryStage produces a short abstract plus key points. Unlike tasks, a
// non-JSON answer is still usable, so parsing falls back to treating the raw
// response as the summary.
type SummaryStage struct {
	llmProvider llm.LLMProvider
}

func NewSummaryStage(llmProvider llm.LLMProvider) *SummaryStage {
	return &SummaryStage{llmProvider: llmProvider}
}

func (s *SummaryStage) Name() string {
	return entity.StageSummary
}

func (s *SummaryStage) Run(ctx context.Context, in Input) (map[string]interface{}, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" {
		return map[string]interface{}{"summary": "", "key_points": []string{}}, nil
	}

	prompt := fmt.Sprintf(`<task>
Summarize this transcript.

REQUIREMENTS:
1. "summary" is 2-4 sentences covering what was discussed and decided
2. "key_points" lists the 3-6 most important takeaways, each one sentence
3. Respond with ONLY this JSON object, no prose:
{"summary": "...", "key_points": ["..."]}

TRANSCRIPT:
%s
</task>`, transcript)

	response, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3), llm.WithMaxTokens(700))
	if err != nil {
		return nil, fmt.Errorf("summary generate: %w", err)
	}

	summary, keyPoints := parseSummary(response)
	return map[string]interface{}{
		"summary":    summary,
		"key_points": keyPoints,
	}, nil
}

func parseSummary(response string) (string, []string) {
	cleaned := cleanModelJSON(response)

	var parsed struct {
		Summary   string   `json:"summary"`
		KeyPoints []string `json:"key_points"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.Summary != "" {
		if parsed.KeyPoints == nil {
			parsed.KeyPoints = []string{}
		}
		return parsed.Summary, parsed.KeyPoints
	}

	return cleaned, []string{}
}
