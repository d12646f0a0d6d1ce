package impact

import "impactscan/internal/core"

// highRelevanceThreshold is the lower bound (exclusive) for an ArticleImpact
// to be routed to the high-relevance consolidation prompt.
const highRelevanceThreshold = 50

// billBucket is one bill's accumulated impacts and relevance-partitioned
// description buckets, in the order the bill was first seen.
type billBucket struct {
	billID       string
	billTitle    string
	impacts      []core.ArticleImpact
	maxRelevance int
	highBucket   []string
	lowBucket    []string
}

// Aggregate groups extraction results by bill, preserving first-seen bill
// order and intra-bill impact order (the order candidates were discovered).
// It computes each bill's max_relevance and partitions impact descriptions
// into high (relevance > 50) and low buckets.
func Aggregate(results []candidateResult) []*billBucket {
	var order []string
	byBill := make(map[string]*billBucket)

	for _, r := range results {
		bucket, ok := byBill[r.pair.BillID]
		if !ok {
			bucket = &billBucket{billID: r.pair.BillID, billTitle: r.pair.BillTitle}
			byBill[r.pair.BillID] = bucket
			order = append(order, r.pair.BillID)
		}

		ai := core.ArticleImpact{
			ArticleNumber:     r.pair.ArticleRef.Number,
			InternalExcerpt:   r.impact.InternalExcerpt,
			ArticleExcerpt:    r.impact.ArticleExcerpt,
			Relevance:         r.impact.Relevance,
			ImpactDescription: r.impact.ImpactDescription,
		}
		bucket.impacts = append(bucket.impacts, ai)

		if ai.Relevance > bucket.maxRelevance {
			bucket.maxRelevance = ai.Relevance
		}

		if ai.Relevance > highRelevanceThreshold {
			bucket.highBucket = append(bucket.highBucket, ai.ImpactDescription)
		} else {
			bucket.lowBucket = append(bucket.lowBucket, ai.ImpactDescription)
		}
	}

	out := make([]*billBucket, len(order))
	for i, id := range order {
		out[i] = byBill[id]
	}
	return out
}

// useHighRelevancePrompt reports whether a bucket's high-relevance bucket is
// non-empty, which decides which consolidation prompt it is routed through.
func (b *billBucket) useHighRelevancePrompt() bool {
	return len(b.highBucket) > 0
}
