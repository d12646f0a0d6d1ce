// Package llmmap implements a bounded-concurrency fan-out over an LLM
// client: a semaphore channel plus a WaitGroup feeding a mutex-guarded,
// order-preserving results slice.
package llmmap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"impactscan/internal/logger"
)

// Generator issues a single LLM call for a rendered prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}

// GenerationOptions configures a single call issued by Map.
type GenerationOptions struct {
	MaxTokens      int32
	Temperature    float32
	Model          string
	ResponseSchema *genai.Schema // non-nil requests structured-output mode from the Generator
	DisableCache   bool          // bypass the in-process response cache entirely
}

// Renderer turns a template identifier and an input into the literal prompt
// sent to the Generator. Kept as a function type so callers can close over
// whatever templating they use.
type Renderer func(template string, input any) (string, error)

// Parser turns the raw text returned by the Generator into the caller's
// desired output type. Returning an error aborts the whole Map.
type Parser func(raw string) (any, error)

// Map applies a single template against a slice of inputs with bounded
// concurrency, an in-process response cache, and ordered results. The first
// error from any worker cancels the remaining in-flight calls and is
// returned; partial results are discarded.
type Map struct {
	generator   Generator
	render      Renderer
	concurrency int
	opts        GenerationOptions

	mu    sync.Mutex
	cache map[string]string // digest(template):digest(rendered prompt) -> raw response
}

// New constructs a Map. concurrency defaults to 1 when <= 0.
func New(generator Generator, render Renderer, concurrency int, opts GenerationOptions) *Map {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Map{
		generator:   generator,
		render:      render,
		concurrency: concurrency,
		opts:        opts,
		cache:       make(map[string]string),
	}
}

// Run executes template against every input, preserving the input order in
// the returned slice. parse is applied to each raw response; its result
// populates the corresponding output slot.
func (m *Map) Run(ctx context.Context, template string, inputs []any, parse Parser) ([]any, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	results := make([]any, len(inputs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		resMu    sync.Mutex
		sem      = make(chan struct{}, m.concurrency)
		firstErr error
		once     sync.Once
	)

	recordErr := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, input := range inputs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(index int, input any) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			raw, err := m.call(ctx, template, input)
			if err != nil {
				recordErr(fmt.Errorf("llmmap call %d: %w", index, err))
				return
			}

			parsed, err := parse(raw)
			if err != nil {
				recordErr(fmt.Errorf("llmmap parse %d: %w", index, err))
				return
			}

			resMu.Lock()
			results[index] = parsed
			resMu.Unlock()
		}(i, input)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Stage is one step of RunPipeline: a template and the parser applied to
// its responses. Used for multi-step extraction flows where a later step
// depends on an earlier one's parsed result.
type Stage struct {
	Template string
	Parse    Parser
}

// RunPipeline executes stages in order, threading results through. Each
// stage's inputs are the previous stage's outputs (the first stage uses the
// caller-supplied inputs).
func (m *Map) RunPipeline(ctx context.Context, stages []Stage, inputs []any) ([]any, error) {
	current := inputs
	for si, stage := range stages {
		next, err := m.Run(ctx, stage.Template, current, stage.Parse)
		if err != nil {
			return nil, err
		}
		// Non-final outputs become the next stage's inputs and must be
		// strings for the renderer.
		if si < len(stages)-1 {
			for i, v := range next {
				if _, ok := v.(string); !ok {
					next[i] = fmt.Sprint(v)
				}
			}
		}
		current = next
	}
	return current, nil
}

func (m *Map) call(ctx context.Context, template string, input any) (string, error) {
	prompt, err := m.render(template, input)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	if m.opts.DisableCache {
		return m.generator.GenerateText(ctx, prompt, m.opts)
	}

	key := digest(template) + ":" + digest(prompt)

	m.mu.Lock()
	cached, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}

	raw, err := m.generator.GenerateText(ctx, prompt, m.opts)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.cache[key] = raw
	m.mu.Unlock()

	return raw, nil
}

// Clear empties the response cache and reports how many entries were
// removed.
func (m *Map) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.cache)
	m.cache = make(map[string]string)
	logger.Info("llmmap cache cleared", "entries_removed", n)
	return n
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
