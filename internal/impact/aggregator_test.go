package impact

import (
	"testing"

	"impactscan/internal/core"
)

func resultFor(billID, billTitle string, articleNumber, relevance int) candidateResult {
	return candidateResult{
		pair: core.CandidatePair{
			BillID:     billID,
			BillTitle:  billTitle,
			ArticleRef: core.Article{Number: articleNumber},
		},
		impact: core.RawImpact{Relevance: relevance, ImpactDescription: "impacto"},
	}
}

func TestAggregate_GroupsByBillPreservingFirstSeenOrder(t *testing.T) {
	results := []candidateResult{
		resultFor("b2", "Bill Two", 1, 70),
		resultFor("b1", "Bill One", 1, 30),
		resultFor("b2", "Bill Two", 2, 20),
	}

	buckets := Aggregate(results)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 bill buckets, got %d", len(buckets))
	}
	if buckets[0].billID != "b2" || buckets[1].billID != "b1" {
		t.Fatalf("expected first-seen bill order [b2, b1], got [%s, %s]", buckets[0].billID, buckets[1].billID)
	}
	if len(buckets[0].impacts) != 2 {
		t.Fatalf("expected bill b2 to accumulate 2 impacts, got %d", len(buckets[0].impacts))
	}
}

func TestAggregate_MaxRelevanceInvariant(t *testing.T) {
	results := []candidateResult{
		resultFor("b1", "Bill One", 1, 30),
		resultFor("b1", "Bill One", 2, 40),
	}

	buckets := Aggregate(results)
	if buckets[0].maxRelevance != 40 {
		t.Fatalf("expected max_relevance 40, got %d", buckets[0].maxRelevance)
	}
}

func TestAggregate_HighLowBucketPartition(t *testing.T) {
	cases := []struct {
		name       string
		relevances []int
		wantHigh   bool
	}{
		{"both at or below 50", []int{30, 40}, false},
		{"exactly 50 is low", []int{50}, false},
		{"one above 50 is high", []int{30, 51}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var results []candidateResult
			for i, r := range c.relevances {
				results = append(results, resultFor("b1", "Bill One", i+1, r))
			}
			buckets := Aggregate(results)
			if got := buckets[0].useHighRelevancePrompt(); got != c.wantHigh {
				t.Fatalf("useHighRelevancePrompt() = %v, want %v", got, c.wantHigh)
			}
		})
	}
}

func TestAggregate_EmptyInputProducesNoBuckets(t *testing.T) {
	buckets := Aggregate(nil)
	if len(buckets) != 0 {
		t.Fatalf("expected no buckets for empty input, got %d", len(buckets))
	}
}
