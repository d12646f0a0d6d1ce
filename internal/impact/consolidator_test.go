package impact

import (
	"context"
	"sync/atomic"
	"testing"

	"impactscan/internal/llmmap"
)

// fakeGenerator is a deterministic stand-in for the LLM client, tracking
// invocation count so shortcut behavior can be asserted.
type fakeGenerator struct {
	calls    int32
	response string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, opts llmmap.GenerationOptions) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.response != "" {
		return f.response, nil
	}
	return "## Resumen\nconsolidated", nil
}

func newTestConsolidator(gen *fakeGenerator) *Consolidator {
	opts := llmmap.GenerationOptions{}
	return &Consolidator{
		highMapper: llmmap.New(gen, renderItem, 4, opts),
		lowMapper:  llmmap.New(gen, renderItem, 4, opts),
	}
}

func bucket(billID string, high, low []string) *billBucket {
	b := &billBucket{billID: billID, billTitle: billID, highBucket: high, lowBucket: low}
	return b
}

func TestConsolidate_SingleDescriptionShortcutsTheLLM(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestConsolidator(gen)

	buckets := []*billBucket{bucket("b1", []string{"el unico impacto"}, nil)}

	out, err := c.Consolidate(context.Background(), buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 bill impact, got %d", len(out))
	}
	if out[0].ConsolidatedDescription != "el unico impacto" {
		t.Fatalf("expected verbatim single description, got %q", out[0].ConsolidatedDescription)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no LLM calls for the single-description shortcut, got %d", gen.calls)
	}
}

func TestConsolidate_EmptyBucketReturnsEmptyString(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestConsolidator(gen)

	buckets := []*billBucket{bucket("b1", nil, nil)}

	out, err := c.Consolidate(context.Background(), buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].ConsolidatedDescription != "" {
		t.Fatalf("expected empty consolidated description, got %q", out[0].ConsolidatedDescription)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no LLM calls for an empty bucket, got %d", gen.calls)
	}
}

func TestConsolidate_MultipleDescriptionsInvokeLLM(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestConsolidator(gen)

	buckets := []*billBucket{bucket("b1", []string{"impacto uno", "impacto dos"}, nil)}

	out, err := c.Consolidate(context.Background(), buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly 1 LLM call for 2 descriptions, got %d", gen.calls)
	}
	if out[0].ConsolidatedDescription == "" {
		t.Fatalf("expected a non-empty consolidated description")
	}
}

func TestConsolidate_HighBucketRoutesToHighPromptLowToLow(t *testing.T) {
	highGen := &fakeGenerator{response: "## Resumen\nhigh path"}
	lowGen := &fakeGenerator{response: "## Resumen\nlow path"}
	c := &Consolidator{
		highMapper: llmmap.New(highGen, renderItem, 4, llmmap.GenerationOptions{}),
		lowMapper:  llmmap.New(lowGen, renderItem, 4, llmmap.GenerationOptions{}),
	}

	buckets := []*billBucket{
		bucket("b-high", []string{"a", "b"}, nil),
		bucket("b-low", nil, []string{"c", "d"}),
	}

	out, err := c.Consolidate(context.Background(), buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].ConsolidatedDescription != "## Resumen\nhigh path" {
		t.Fatalf("expected bill with a high-relevance impact to use the high prompt, got %q", out[0].ConsolidatedDescription)
	}
	if out[1].ConsolidatedDescription != "## Resumen\nlow path" {
		t.Fatalf("expected bill with only low-relevance impacts to use the low prompt, got %q", out[1].ConsolidatedDescription)
	}
	if highGen.calls != 1 || lowGen.calls != 1 {
		t.Fatalf("expected exactly 1 call on each mapper, got high=%d low=%d", highGen.calls, lowGen.calls)
	}
}

func TestConsolidate_EmptyInputShortCircuits(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestConsolidator(gen)

	out, err := c.Consolidate(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output for no buckets, got %v", out)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no LLM calls for empty input, got %d", gen.calls)
	}
}
