package llmmap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeGenerator echoes back a deterministic transform of the prompt, and
// optionally fails on a configured substring, tracking how many times it
// was actually invoked (as opposed to served from cache).
type fakeGenerator struct {
	calls   int32
	failOn  string
	failErr error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return "", f.failErr
	}
	return "echo:" + prompt, nil
}

func staticRender(template string, input any) (string, error) {
	s, ok := input.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", input)
	}
	return template + "|" + s, nil
}

func identityParse(raw string) (any, error) { return raw, nil }

func TestRun_PreservesOutputOrder(t *testing.T) {
	gen := &fakeGenerator{}
	m := New(gen, staticRender, 4, GenerationOptions{})

	inputs := make([]any, 50)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("item-%d", i)
	}

	results, err := m.Run(context.Background(), "tmpl", inputs, identityParse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}
	for i, r := range results {
		want := fmt.Sprintf("echo:tmpl|item-%d", i)
		if r.(string) != want {
			t.Fatalf("result %d out of order: got %q want %q", i, r, want)
		}
	}
}

func TestRun_CacheAvoidsRepeatCalls(t *testing.T) {
	gen := &fakeGenerator{}
	m := New(gen, staticRender, 4, GenerationOptions{})

	inputs := []any{"same", "same", "same"}
	if _, err := m.Run(context.Background(), "tmpl", inputs, identityParse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&gen.calls) != 1 {
		t.Fatalf("expected 1 provider call for 3 identical inputs, got %d", gen.calls)
	}

	// A second full Run with the same (template, inputs) must also be
	// served entirely from cache.
	if _, err := m.Run(context.Background(), "tmpl", inputs, identityParse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&gen.calls) != 1 {
		t.Fatalf("expected still 1 provider call after a second identical run, got %d", gen.calls)
	}
}

func TestRun_DisableCacheCallsProviderEveryTime(t *testing.T) {
	gen := &fakeGenerator{}
	m := New(gen, staticRender, 2, GenerationOptions{DisableCache: true})

	inputs := []any{"same", "same"}
	if _, err := m.Run(context.Background(), "tmpl", inputs, identityParse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&gen.calls) != 2 {
		t.Fatalf("expected 2 provider calls with caching disabled, got %d", gen.calls)
	}
}

func TestRun_SingleFailureAbortsMap(t *testing.T) {
	wantErr := errors.New("boom")
	gen := &fakeGenerator{failOn: "item-3", failErr: wantErr}
	m := New(gen, staticRender, 2, GenerationOptions{})

	inputs := make([]any, 8)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("item-%d", i)
	}

	_, err := m.Run(context.Background(), "tmpl", inputs, identityParse)
	if err == nil {
		t.Fatal("expected an error from the failing call")
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped %v, got %v", wantErr, err)
	}
}

func TestClear_ReturnsRemovedCountAndEmptiesCache(t *testing.T) {
	gen := &fakeGenerator{}
	m := New(gen, staticRender, 2, GenerationOptions{})

	inputs := []any{"a", "b", "c"}
	if _, err := m.Run(context.Background(), "tmpl", inputs, identityParse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	removed := m.Clear()
	if removed != 3 {
		t.Fatalf("expected 3 entries removed, got %d", removed)
	}
	if second := m.Clear(); second != 0 {
		t.Fatalf("expected cache empty after Clear, got %d remaining", second)
	}

	if _, err := m.Run(context.Background(), "tmpl", inputs, identityParse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&gen.calls) != 6 {
		t.Fatalf("expected 3 new calls after clearing cache (total 6), got %d", gen.calls)
	}
}

func TestRunPipeline_ThreadsStagesInOrder(t *testing.T) {
	gen := &fakeGenerator{}
	m := New(gen, staticRender, 2, GenerationOptions{})

	stages := []Stage{
		{Template: "stage1", Parse: identityParse},
		{Template: "stage2", Parse: identityParse},
	}

	results, err := m.RunPipeline(context.Background(), stages, []any{"x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "echo:stage2|echo:stage1|x"
	if results[0].(string) != want {
		t.Fatalf("expected %q, got %q", want, results[0])
	}
}
