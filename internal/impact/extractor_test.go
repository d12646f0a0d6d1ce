package impact

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"impactscan/internal/core"
	"impactscan/internal/llmmap"
)

// scriptedExtractionGenerator returns a RawImpact JSON payload whose
// relevance depends on a marker substring in the rendered prompt, so each
// candidate pair can be driven to a distinct outcome.
type scriptedExtractionGenerator struct {
	relevanceByMarker map[string]int
}

func (g *scriptedExtractionGenerator) GenerateText(ctx context.Context, prompt string, opts llmmap.GenerationOptions) (string, error) {
	for marker, relevance := range g.relevanceByMarker {
		if strings.Contains(prompt, marker) {
			return fmt.Sprintf(
				`{"nivel_relevancia": %d, "extracto_interno": "interno", "extracto_articulo": "articulo", "descripcion_impacto": "descripcion"}`,
				relevance,
			), nil
		}
	}
	return `{"nivel_relevancia": 0, "extracto_interno": "", "extracto_articulo": "", "descripcion_impacto": ""}`, nil
}

func newTestExtractor(gen llmmap.Generator) *Extractor {
	mapper := llmmap.New(gen, renderItem, 4, llmmap.GenerationOptions{ResponseSchema: rawImpactSchema})
	return &Extractor{mapper: mapper}
}

func TestExtract_DiscardsZeroRelevancePairs(t *testing.T) {
	gen := &scriptedExtractionGenerator{relevanceByMarker: map[string]int{"marker-relevant": 80}}
	e := newTestExtractor(gen)

	pairs := []core.CandidatePair{
		{BillID: "b1", PageText: "marker-relevant page", ArticleRef: core.Article{Number: 1}},
		{BillID: "b1", PageText: "irrelevant page", ArticleRef: core.Article{Number: 2}},
	}

	out, err := e.Extract(context.Background(), pairs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving result after zero-relevance filter, got %d", len(out))
	}
	if out[0].pair.ArticleRef.Number != 1 {
		t.Fatalf("expected the relevant pair to survive, got article %d", out[0].pair.ArticleRef.Number)
	}
	if out[0].impact.Relevance != 80 {
		t.Fatalf("expected relevance 80, got %d", out[0].impact.Relevance)
	}
}

func TestExtract_EmptyInputShortCircuits(t *testing.T) {
	gen := &scriptedExtractionGenerator{}
	e := newTestExtractor(gen)

	out, err := e.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output for no pairs, got %v", out)
	}
}

func TestExtract_AllZeroRelevanceYieldsEmptyResult(t *testing.T) {
	gen := &scriptedExtractionGenerator{}
	e := newTestExtractor(gen)

	pairs := []core.CandidatePair{
		{BillID: "b1", PageText: "page one", ArticleRef: core.Article{Number: 1}},
		{BillID: "b1", PageText: "page two", ArticleRef: core.Article{Number: 2}},
	}

	out, err := e.Extract(context.Background(), pairs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result when every relevance is 0, got %d", len(out))
	}
}
