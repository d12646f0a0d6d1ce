// Package similarity filters the page x article embedding space down to
// candidate conflict pairs via cosine similarity.
package similarity

import (
	"math"
	"sort"

	"impactscan/internal/core"
)

// DefaultThreshold is the cosine similarity cutoff below which a (page,
// article) pair is discarded as unrelated.
const DefaultThreshold = 0.325

// MaxArticlesPerPage is a historical configuration knob that Match does not
// enforce; see DESIGN.md.
const MaxArticlesPerPage = 10

// Matcher narrows a page x article embedding space to candidate pairs whose
// cosine similarity meets or exceeds Threshold.
type Matcher struct {
	Threshold float64
}

// New constructs a Matcher with the given threshold. A non-positive
// threshold falls back to DefaultThreshold.
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// Match compares every page embedding against every article embedding and
// returns the candidate pairs meeting the threshold, sorted by similarity
// descending within each page's group. pageVectors and articleVectors must
// align by index with pages and articles respectively.
func (m *Matcher) Match(
	pages []core.DocumentPage,
	pageVectors [][]float64,
	articles []core.ArticleRef,
	articleVectors [][]float64,
) []core.CandidatePair {
	var out []core.CandidatePair

	for pi, page := range pages {
		if pi >= len(pageVectors) || pageVectors[pi] == nil {
			continue
		}

		var pagePairs []core.CandidatePair
		for ai, ref := range articles {
			if ai >= len(articleVectors) || articleVectors[ai] == nil {
				continue
			}

			sim := cosineSimilarity(pageVectors[pi], articleVectors[ai])
			if sim < m.Threshold {
				continue
			}

			pagePairs = append(pagePairs, core.CandidatePair{
				BillID:      ref.BillID,
				BillTitle:   ref.BillTitle,
				ArticleRef:  ref.Article,
				PageIndex:   page.Index,
				Similarity:  sim,
				PageText:    page.Text,
				ArticleText: ref.Article.Text,
			})
		}

		sort.SliceStable(pagePairs, func(i, j int) bool {
			return pagePairs[i].Similarity > pagePairs[j].Similarity
		})

		out = append(out, pagePairs...)
	}

	return out
}

// cosineSimilarity returns 0 when either vector has zero magnitude, rather
// than dividing by zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
