package impact

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"impactscan/internal/core"
	"impactscan/internal/llm"
	"impactscan/internal/llmmap"
	"impactscan/internal/logger"
)

// DefaultConsolidationConcurrency is the fan-out cap for the consolidation
// stage.
const DefaultConsolidationConcurrency = 32

// Consolidator turns each bill's bucketed impact descriptions into a single
// Markdown-formatted consolidated description.
type Consolidator struct {
	highMapper *llmmap.Map
	lowMapper  *llmmap.Map
}

// NewConsolidator constructs a Consolidator backed by the given LLM client.
// concurrency defaults to DefaultConsolidationConcurrency when <= 0.
func NewConsolidator(client *llm.Client, concurrency int) *Consolidator {
	return NewConsolidatorWithGenerator(llmAdapter{client: client}, concurrency)
}

// NewConsolidatorWithGenerator constructs a Consolidator against any
// llmmap.Generator, independent of the production *llm.Client. Used to wire
// a fake generator in tests that exercise the pipeline end to end.
func NewConsolidatorWithGenerator(gen llmmap.Generator, concurrency int) *Consolidator {
	if concurrency <= 0 {
		concurrency = DefaultConsolidationConcurrency
	}
	opts := llmmap.GenerationOptions{MaxTokens: 2048, Temperature: 0.3}
	return &Consolidator{
		highMapper: llmmap.New(gen, renderItem, concurrency, opts),
		lowMapper:  llmmap.New(gen, renderItem, concurrency, opts),
	}
}

// Consolidate produces one core.BillImpact per bucket, in the buckets'
// original order.
func (c *Consolidator) Consolidate(ctx context.Context, buckets []*billBucket) ([]core.BillImpact, error) {
	if len(buckets) == 0 {
		return nil, nil
	}

	var highInputs, lowInputs []any
	var highIdx, lowIdx []int

	descriptions := make([]string, len(buckets))
	for i, b := range buckets {
		bucketText, skip := shortcutOrText(pickBucket(b))
		if skip {
			descriptions[i] = bucketText
			continue
		}
		if b.useHighRelevancePrompt() {
			highInputs = append(highInputs, bucketText)
			highIdx = append(highIdx, i)
		} else {
			lowInputs = append(lowInputs, bucketText)
			lowIdx = append(lowIdx, i)
		}
	}

	if len(highInputs) > 0 {
		results, err := c.highMapper.Run(ctx, highRelevanceConsolidationTemplate, highInputs, parseRawText)
		if err != nil {
			return nil, fmt.Errorf("consolidate high-relevance bills: %w", err)
		}
		for i, r := range results {
			descriptions[highIdx[i]] = r.(string)
		}
	}

	if len(lowInputs) > 0 {
		results, err := c.lowMapper.Run(ctx, lowRelevanceConsolidationTemplate, lowInputs, parseRawText)
		if err != nil {
			return nil, fmt.Errorf("consolidate low-relevance bills: %w", err)
		}
		for i, r := range results {
			descriptions[lowIdx[i]] = r.(string)
		}
	}

	out := make([]core.BillImpact, len(buckets))
	for i, b := range buckets {
		validateMarkdownStructure(b.billID, descriptions[i])
		out[i] = core.BillImpact{
			BillID:                  b.billID,
			BillTitle:               b.billTitle,
			Impacts:                 b.impacts,
			MaxRelevance:            b.maxRelevance,
			ConsolidatedDescription: descriptions[i],
		}
	}

	return out, nil
}

// pickBucket returns the description bucket the bill is routed through:
// high when non-empty, low otherwise.
func pickBucket(b *billBucket) []string {
	if b.useHighRelevancePrompt() {
		return b.highBucket
	}
	return b.lowBucket
}

// shortcutOrText returns (text, false) when the caller must still invoke the
// LLM, or (description, true) when a shortcut applies: a single description
// is returned verbatim, an empty bucket returns the empty string.
func shortcutOrText(bucket []string) (string, bool) {
	switch len(bucket) {
	case 0:
		return "", true
	case 1:
		return bucket[0], true
	default:
		var sb strings.Builder
		for i, desc := range bucket {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			fmt.Fprintf(&sb, "## Impacto %d\n%s", i+1, desc)
		}
		return sb.String(), false
	}
}

func parseRawText(raw string) (any, error) {
	return raw, nil
}

// validateMarkdownStructure is an observability-only guard: it logs when a
// non-empty consolidated description fails to parse as Markdown containing
// at least one heading. The description is stored as-is regardless.
func validateMarkdownStructure(billID, description string) {
	if strings.TrimSpace(description) == "" {
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse([]byte(description), p)

	hasHeading := false
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if _, ok := node.(*ast.Heading); ok && entering {
			hasHeading = true
			return ast.Terminate
		}
		return ast.GoToNext
	})

	if !hasHeading {
		logger.Warn("consolidated description missing markdown heading", "bill_id", billID)
	}
}
