package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/pkg/llm"
)

// TaskItem is one extracted action item.
type TaskItem struct {
	Text    string `json:"text"`
	Owner   string `json:"owner,omitempty"`
	DueHint string `json:"due_hint,omitempty"`
}

// TasksStage extracts action items from the transcript. The model must answer
// with strict JSON; anything unparsable fails the stage.
type TasksStage struct {
	llmProvider llm.LLMProvider
}

func NewTasksStage(llmProvider llm.LLMProvider) *TasksStage {
	return &TasksStage{llmProvider: llmProvider}
}

func (s *TasksStage) Name() string {
	return entity.StageTasks
}

func (s *TasksStage) Run(ctx context.Context, in Input) (map[string]interface{}, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" {
		return map[string]interface{}{"items": []TaskItem{}}, nil
	}

	prompt := fmt.Sprintf(`<task>
Extract action items from this meeting transcript.

REQUIREMENTS:
1. Only include concrete commitments or requests ("X will do Y", "we need to Z")
2. "owner" is the person responsible if named, otherwise ""
3. "due_hint" is any mentioned timing ("by Friday", "next sprint"), otherwise ""
4. Return an empty array if there are no action items
5. Respond with ONLY a JSON array, no prose:
[{"text": "...", "owner": "...", "due_hint": "..."}]

TRANSCRIPT:
%s
</task>`, transcript)

	response, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("tasks generate: %w", err)
	}

	items, err := parseTaskItems(response)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{"items": items}, nil
}

// parseTaskItems accepts a bare JSON array or an {"items": [...]} wrapper,
// with or without markdown fences. Anything else is malformed.
func parseTaskItems(response string) ([]TaskItem, error) {
	cleaned := cleanModelJSON(response)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	var items []TaskItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		var wrapped struct {
			Items []TaskItem `json:"items"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil || wrapped.Items == nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, truncateForError(cleaned))
		}
		items = wrapped.Items
	}

	kept := make([]TaskItem, 0, len(items))
	for _, item := range items {
		item.Text = strings.TrimSpace(item.Text)
		if item.Text == "" {
			continue
		}
		kept = append(kept, item)
	}
	return kept, nil
}

func truncateForError(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
