package impact

import (
	"context"

	"impactscan/internal/llm"
	"impactscan/internal/llmmap"
)

// llmAdapter adapts *llm.Client to llmmap.Generator, translating the
// option types across the package boundary.
type llmAdapter struct {
	client *llm.Client
}

func (a llmAdapter) GenerateText(ctx context.Context, prompt string, opts llmmap.GenerationOptions) (string, error) {
	return a.client.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		MaxTokens:      opts.MaxTokens,
		Temperature:    opts.Temperature,
		Model:          opts.Model,
		ResponseSchema: opts.ResponseSchema,
	})
}
