package impact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"impactscan/internal/core"
	"impactscan/internal/llm"
	"impactscan/internal/llmmap"
)

// DefaultExtractionConcurrency is the fan-out cap for the extraction stage.
const DefaultExtractionConcurrency = 128

var rawImpactSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"nivel_relevancia":    {Type: genai.TypeInteger},
		"extracto_interno":    {Type: genai.TypeString},
		"extracto_articulo":   {Type: genai.TypeString},
		"descripcion_impacto": {Type: genai.TypeString},
	},
	Required: []string{"nivel_relevancia", "extracto_interno", "extracto_articulo", "descripcion_impacto"},
}

// Extractor renders each CandidatePair into the extraction prompt and
// returns the surviving (relevance != 0) results, one per candidate pair,
// in the candidate pairs' original order.
type Extractor struct {
	mapper *llmmap.Map
}

// NewExtractor constructs an Extractor backed by the given LLM client.
// concurrency defaults to DefaultExtractionConcurrency when <= 0.
func NewExtractor(client *llm.Client, concurrency int) *Extractor {
	return NewExtractorWithGenerator(llmAdapter{client: client}, concurrency)
}

// NewExtractorWithGenerator constructs an Extractor against any
// llmmap.Generator, independent of the production *llm.Client. Used to wire
// a fake generator in tests that exercise the pipeline end to end.
func NewExtractorWithGenerator(gen llmmap.Generator, concurrency int) *Extractor {
	if concurrency <= 0 {
		concurrency = DefaultExtractionConcurrency
	}
	mapper := llmmap.New(gen, renderItem, concurrency, llmmap.GenerationOptions{
		MaxTokens:      2048,
		Temperature:    0.1,
		ResponseSchema: rawImpactSchema,
	})
	return &Extractor{mapper: mapper}
}

// candidateResult couples a CandidatePair with the RawImpact the LLM
// returned for it; impacts with relevance == 0 are filtered out by Extract.
type candidateResult struct {
	pair   core.CandidatePair
	impact core.RawImpact
}

// Extract issues one extraction call per candidate pair and returns the
// surviving (pair, impact) results, preserving the pairs' original order.
func (e *Extractor) Extract(ctx context.Context, pairs []core.CandidatePair) ([]candidateResult, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	inputs := make([]any, len(pairs))
	for i, p := range pairs {
		inputs[i] = renderCandidateText(p)
	}

	raw, err := e.mapper.Run(ctx, extractionTemplate, inputs, parseRawImpact)
	if err != nil {
		return nil, fmt.Errorf("extract impacts: %w", err)
	}

	out := make([]candidateResult, 0, len(pairs))
	for i, r := range raw {
		impact, ok := r.(core.RawImpact)
		if !ok {
			return nil, fmt.Errorf("extract impacts: unexpected result type at index %d", i)
		}
		if impact.Relevance == 0 {
			continue
		}
		out = append(out, candidateResult{pair: pairs[i], impact: impact})
	}

	return out, nil
}

func renderCandidateText(p core.CandidatePair) string {
	return fmt.Sprintf("## Documento Interno de la Empresa:\n\n%s\n\nArtículo de ley:\n\n%s", p.PageText, p.ArticleText)
}

func renderItem(template string, input any) (string, error) {
	text, ok := input.(string)
	if !ok {
		return "", fmt.Errorf("render item: expected string input, got %T", input)
	}
	return strings.Replace(template, "{{item}}", text, 1), nil
}

func parseRawImpact(raw string) (any, error) {
	var impact core.RawImpact
	if err := json.Unmarshal([]byte(raw), &impact); err != nil {
		return nil, fmt.Errorf("parse raw impact: %w", err)
	}
	return impact, nil
}
