package factory

import (
	"fmt"

	"github.com/capitalrow/MinaProd-sub007/pkg/llm"
	"github.com/capitalrow/MinaProd-sub007/pkg/llm/huggingface"
	"github.com/capitalrow/MinaProd-sub007/pkg/llm/ollama"
)

// NewLLMProvider selects the generation backend from config. Ollama covers
// local development; huggingface is the hosted path.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		if apiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
