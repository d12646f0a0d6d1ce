package core

import "testing"

func TestArticleValid(t *testing.T) {
	cases := []struct {
		name string
		desc string
		want bool
	}{
		{"non-empty", "tratamiento de datos personales", true},
		{"empty string", "", false},
		{"whitespace only", "   \t\n", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := Article{Number: 1, SemanticDescription: c.desc}
			if got := a.Valid(); got != c.want {
				t.Errorf("Article{SemanticDescription: %q}.Valid() = %v, want %v", c.desc, got, c.want)
			}
		})
	}
}

func TestDocumentPageValid(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"non-empty", "empresa procesa datos personales", true},
		{"empty string", "", false},
		{"whitespace only", "  ", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := DocumentPage{Index: 0, Text: c.text}
			if got := p.Valid(); got != c.want {
				t.Errorf("DocumentPage{Text: %q}.Valid() = %v, want %v", c.text, got, c.want)
			}
		})
	}
}

func TestDocumentPagePreservesOriginalIndex(t *testing.T) {
	// A page dropped elsewhere as invalid must not shift the index carried
	// by the pages that remain.
	pages := []DocumentPage{
		{Index: 0, Text: ""},
		{Index: 1, Text: "  "},
		{Index: 2, Text: "empresa procesa datos personales"},
	}

	var valid []DocumentPage
	for _, p := range pages {
		if p.Valid() {
			valid = append(valid, p)
		}
	}

	if len(valid) != 1 {
		t.Fatalf("expected 1 valid page, got %d", len(valid))
	}
	if valid[0].Index != 2 {
		t.Fatalf("expected original index 2 preserved, got %d", valid[0].Index)
	}
}

func TestBillImpactMaxRelevanceInvariant(t *testing.T) {
	bi := BillImpact{
		BillID: "b1",
		Impacts: []ArticleImpact{
			{ArticleNumber: 1, Relevance: 30},
			{ArticleNumber: 2, Relevance: 80},
			{ArticleNumber: 3, Relevance: 55},
		},
		MaxRelevance: 80,
	}

	max := 0
	for _, i := range bi.Impacts {
		if i.Relevance > max {
			max = i.Relevance
		}
	}
	if max != bi.MaxRelevance {
		t.Fatalf("max_relevance invariant violated: computed %d, stored %d", max, bi.MaxRelevance)
	}
}
