// Package pipeline wires the conflict-detection and impact-synthesis
// stages into a single PipelineDriver.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"impactscan/internal/core"
	"impactscan/internal/embedding"
	"impactscan/internal/impact"
	"impactscan/internal/logger"
	"impactscan/internal/similarity"
)

// BillStore is the pure-read bill corpus collaborator.
type BillStore interface {
	ListBills() ([]core.Bill, error)
}

// Driver runs the full pipeline: load bills, embed, match, extract,
// aggregate, consolidate.
type Driver struct {
	bills        BillStore
	embedder     *embedding.Service
	matcher      *similarity.Matcher
	extractor    *impact.Extractor
	consolidator *impact.Consolidator
}

// New constructs a Driver from its collaborators.
func New(bills BillStore, embedder *embedding.Service, matcher *similarity.Matcher, extractor *impact.Extractor, consolidator *impact.Consolidator) *Driver {
	return &Driver{
		bills:        bills,
		embedder:     embedder,
		matcher:      matcher,
		extractor:    extractor,
		consolidator: consolidator,
	}
}

// Run executes the pipeline against a document's pages and returns the
// final BillImpact list, in the order bills were first triggered.
func (d *Driver) Run(ctx context.Context, pages []core.DocumentPage) ([]core.BillImpact, error) {
	if len(pages) == 0 {
		logger.Info("pipeline run: no pages, short-circuiting")
		return nil, nil
	}

	bills, err := d.bills.ListBills()
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	if len(bills) == 0 {
		logger.Info("pipeline run: no bills, short-circuiting")
		return nil, nil
	}

	articles := flattenArticles(bills)

	validPages := filterValidPages(pages)
	validArticles := filterValidArticles(articles)

	if len(validPages) == 0 || len(validArticles) == 0 {
		logger.Info("pipeline run: no valid pages or articles, short-circuiting")
		return nil, nil
	}

	pageTexts := make([]string, len(validPages))
	for i, p := range validPages {
		pageTexts[i] = p.Text
	}
	articleTexts := make([]string, len(validArticles))
	for i, a := range validArticles {
		articleTexts[i] = a.Article.SemanticDescription
	}

	// Page and article embeddings have no data dependency on each other;
	// the cache's conflict-ignore insert keeps concurrent writes safe.
	var pageVectors, articleVectors [][]float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if pageVectors, err = d.embedder.Embed(gctx, pageTexts); err != nil {
			return fmt.Errorf("embed pages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if articleVectors, err = d.embedder.Embed(gctx, articleTexts); err != nil {
			return fmt.Errorf("embed articles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pairs := d.matcher.Match(validPages, pageVectors, validArticles, articleVectors)
	logger.Info("pipeline run: candidate pairs built", "count", len(pairs))

	if len(pairs) == 0 {
		return nil, nil
	}

	results, err := d.extractor.Extract(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("extract impacts: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	buckets := impact.Aggregate(results)

	billImpacts, err := d.consolidator.Consolidate(ctx, buckets)
	if err != nil {
		return nil, fmt.Errorf("consolidate impacts: %w", err)
	}

	return billImpacts, nil
}

func flattenArticles(bills []core.Bill) []core.ArticleRef {
	var out []core.ArticleRef
	for _, b := range bills {
		for _, a := range b.Articles {
			out = append(out, core.ArticleRef{BillID: b.ID, BillTitle: b.Title, Article: a})
		}
	}
	return out
}

func filterValidPages(pages []core.DocumentPage) []core.DocumentPage {
	var out []core.DocumentPage
	for _, p := range pages {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

func filterValidArticles(refs []core.ArticleRef) []core.ArticleRef {
	var out []core.ArticleRef
	for _, r := range refs {
		if r.Article.Valid() {
			out = append(out, r)
		}
	}
	return out
}
