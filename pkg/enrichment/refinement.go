package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/pkg/llm"
)

// RefinementStage rewrites the raw transcript into readable prose: filler
// words dropped, punctuation and casing restored, obvious mistranscriptions
// smoothed over. The wording must stay faithful to what was said.
type RefinementStage struct {
	llmProvider llm.LLMProvider
}

func NewRefinementStage(llmProvider llm.LLMProvider) *RefinementStage {
	return &RefinementStage{llmProvider: llmProvider}
}

func (s *RefinementStage) Name() string {
	return entity.StageRefinement
}

func (s *RefinementStage) Run(ctx context.Context, in Input) (map[string]interface{}, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" {
		return map[string]interface{}{"text": ""}, nil
	}

	prompt := fmt.Sprintf(`<task>
Clean up this raw speech-to-text transcript.

REQUIREMENTS:
1. Remove filler words (um, uh, you know) and false starts
2. Fix punctuation, casing and obvious transcription mistakes
3. Keep the speaker's wording and meaning, do not summarize
4. Output ONLY the cleaned transcript, no preamble

TRANSCRIPT:
%s
</task>`, transcript)

	response, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("refinement generate: %w", err)
	}

	refined := strings.TrimSpace(response)
	if refined == "" {
		refined = transcript
	}

	return map[string]interface{}{"text": refined}, nil
}
