package llm

import (
	"context"
)

// Option tunes a single generation call.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	// Model overrides the provider's default model for this call.
	Model string
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider is a one-shot text generation backend. Enrichment stages build
// a complete prompt per call; no conversation state crosses calls.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
