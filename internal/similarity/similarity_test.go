package similarity

import (
	"testing"

	"impactscan/internal/core"
)

func TestMatch_ThresholdFiltering(t *testing.T) {
	m := New(DefaultThreshold)

	pages := []core.DocumentPage{{Index: 0, Text: "a"}, {Index: 1, Text: "b"}}
	pageVectors := [][]float64{{1, 0}, {0, 1}}

	articles := []core.ArticleRef{
		{BillID: "b1", BillTitle: "Bill One", Article: core.Article{Number: 1}},
		{BillID: "b1", BillTitle: "Bill One", Article: core.Article{Number: 2}},
	}
	articleVectors := [][]float64{{1, 0}, {0.1, 0.1}}

	pairs := m.Match(pages, pageVectors, articles, articleVectors)

	// Cosine ignores magnitude: article 2's {0.1, 0.1} scores ~0.707 against
	// both pages, while article 1 against page 1 scores 0 and is dropped.
	if len(pairs) != 3 {
		t.Fatalf("expected 3 candidate pairs above threshold, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0].PageIndex != 0 || pairs[0].ArticleRef.Number != 1 {
		t.Fatalf("unexpected pair: %+v", pairs[0])
	}
	if pairs[0].Similarity < DefaultThreshold {
		t.Fatalf("pair similarity %f below threshold %f", pairs[0].Similarity, DefaultThreshold)
	}
}

func TestMatch_ZeroNormVectorSkipped(t *testing.T) {
	m := New(DefaultThreshold)

	pages := []core.DocumentPage{{Index: 0, Text: "a"}}
	pageVectors := [][]float64{{0, 0}}

	articles := []core.ArticleRef{{BillID: "b1", Article: core.Article{Number: 1}}}
	articleVectors := [][]float64{{1, 1}}

	pairs := m.Match(pages, pageVectors, articles, articleVectors)
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs for a zero-norm vector, got %d", len(pairs))
	}
}

func TestMatch_PreservesOriginalPageIndex(t *testing.T) {
	m := New(0.1)

	// Page 0 is dropped by the caller as invalid before this point; only
	// page 2's original index should survive into the CandidatePair.
	pages := []core.DocumentPage{{Index: 2, Text: "c"}}
	pageVectors := [][]float64{{1, 0}}

	articles := []core.ArticleRef{{BillID: "b1", Article: core.Article{Number: 1}}}
	articleVectors := [][]float64{{1, 0}}

	pairs := m.Match(pages, pageVectors, articles, articleVectors)
	if len(pairs) != 1 || pairs[0].PageIndex != 2 {
		t.Fatalf("expected original page index 2 preserved, got %+v", pairs)
	}
}

func TestMatch_SortedDescendingWithinPage(t *testing.T) {
	m := New(0.0)

	pages := []core.DocumentPage{{Index: 0, Text: "a"}}
	pageVectors := [][]float64{{1, 0}}

	articles := []core.ArticleRef{
		{BillID: "b1", Article: core.Article{Number: 1}},
		{BillID: "b1", Article: core.Article{Number: 2}},
	}
	articleVectors := [][]float64{{0.5, 0.5}, {1, 0}}

	pairs := m.Match(pages, pageVectors, articles, articleVectors)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Similarity < pairs[1].Similarity {
		t.Fatalf("expected descending similarity order, got %+v", pairs)
	}
	if pairs[0].ArticleRef.Number != 2 {
		t.Fatalf("expected the exact-match article first, got %+v", pairs[0])
	}
}
