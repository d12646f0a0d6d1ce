package embedding

import (
	"context"
	"sync/atomic"
	"testing"
)

// fakeProvider returns the vector {len(text), 1} for each input text,
// tracking how many batch calls were actually issued.
type fakeProvider struct {
	batchCalls int32
	batchSizes []int
}

func (f *fakeProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	atomic.AddInt32(&f.batchCalls, 1)
	f.batchSizes = append(f.batchSizes, len(texts))

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

// fakeCache is an in-memory stand-in for the persistent embedding cache.
type fakeCache struct {
	rows    map[string][]float64 // key: hash|model
	gets    int
	inserts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{rows: make(map[string][]float64)}
}

func (c *fakeCache) GetMany(ctx context.Context, hashes []string, model string) (map[string][]float64, error) {
	c.gets++
	out := make(map[string][]float64)
	for _, h := range hashes {
		if v, ok := c.rows[h+"|"+model]; ok {
			out[h] = v
		}
	}
	return out, nil
}

func (c *fakeCache) BulkInsert(ctx context.Context, entries []CacheEntry) error {
	c.inserts++
	for _, e := range entries {
		key := e.TextHash + "|" + e.ModelName
		if _, exists := c.rows[key]; exists {
			continue // conflict-ignore semantics
		}
		c.rows[key] = e.Vector
	}
	return nil
}

func TestEmbed_EmptyInputShortCircuits(t *testing.T) {
	provider := &fakeProvider{}
	cache := newFakeCache()
	svc := New(provider, cache, "gemini-embedding-001", 100)

	out, err := svc.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output for empty input, got %v", out)
	}
	if provider.batchCalls != 0 {
		t.Fatalf("expected no provider calls for empty input, got %d", provider.batchCalls)
	}
}

func TestEmbed_SecondRunHitsCacheOnly(t *testing.T) {
	provider := &fakeProvider{}
	cache := newFakeCache()
	svc := New(provider, cache, "gemini-embedding-001", 100)

	texts := []string{"empresa procesa datos personales", "tratamiento de datos"}

	if _, err := svc.Embed(context.Background(), texts); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if provider.batchCalls != 1 {
		t.Fatalf("expected 1 provider batch call on first run, got %d", provider.batchCalls)
	}

	// Running again against the same texts with a populated cache must make
	// zero provider calls.
	if _, err := svc.Embed(context.Background(), texts); err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if provider.batchCalls != 1 {
		t.Fatalf("expected still 1 provider batch call after cache warm-up, got %d", provider.batchCalls)
	}
}

func TestEmbed_InvalidTextsGetPlaceholderButPreserveAlignment(t *testing.T) {
	provider := &fakeProvider{}
	cache := newFakeCache()
	svc := New(provider, cache, "gemini-embedding-001", 100)

	texts := []string{"", "  ", "empresa procesa datos personales"}
	out, err := svc.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("expected output length %d, got %d", len(texts), len(out))
	}
	for i, v := range out {
		if v == nil {
			t.Fatalf("position %d should have a placeholder-derived vector, got nil", i)
		}
	}
}

func TestEmbed_BatchesMissesAtConfiguredSize(t *testing.T) {
	provider := &fakeProvider{}
	cache := newFakeCache()
	svc := New(provider, cache, "gemini-embedding-001", 2)

	texts := []string{"a", "b", "c", "d", "e"}
	if _, err := svc.Embed(context.Background(), texts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.batchCalls != 3 {
		t.Fatalf("expected 3 batches of size <= 2 for 5 misses, got %d calls: %v", provider.batchCalls, provider.batchSizes)
	}
	for _, sz := range provider.batchSizes {
		if sz > 2 {
			t.Fatalf("batch size %d exceeds configured batch size 2", sz)
		}
	}
}

func TestEmbed_PartialCacheHitOnlyEmbedsMisses(t *testing.T) {
	provider := &fakeProvider{}
	cache := newFakeCache()
	svc := New(provider, cache, "gemini-embedding-001", 100)

	// Warm the cache with one of the two texts.
	if _, err := svc.Embed(context.Background(), []string{"tratamiento de datos"}); err != nil {
		t.Fatalf("warm-up embed: %v", err)
	}

	provider.batchCalls = 0
	provider.batchSizes = nil

	out, err := svc.Embed(context.Background(), []string{"tratamiento de datos", "otro texto nuevo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0] == nil || out[1] == nil {
		t.Fatalf("expected both positions filled, got %v", out)
	}
	if provider.batchCalls != 1 || provider.batchSizes[0] != 1 {
		t.Fatalf("expected exactly 1 miss embedded, got calls=%d sizes=%v", provider.batchCalls, provider.batchSizes)
	}
}
