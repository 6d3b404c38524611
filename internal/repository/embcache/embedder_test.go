package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/db"
	"github.com/kailas-cloud/newsdex/internal/domain"
)

type fakeKV struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

type countingEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	c.calls++
	return c.result, c.err
}

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.5, -1.25},
		TotalTokens: 7,
	}}
	c := New(inner, kv, nil, zap.NewNop())

	first, err := c.Embed(context.Background(), "quantum computing")
	if err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", inner.calls)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss must carry provider usage, got %d", first.TotalTokens)
	}

	second, err := c.Embed(context.Background(), "quantum computing")
	if err != nil {
		t.Fatalf("second Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("hit must not call provider, calls=%d", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit consumes no tokens, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 2 || second.Embedding[0] != 0.5 || second.Embedding[1] != -1.25 {
		t.Errorf("cached vector mismatch: %v", second.Embedding)
	}
}

func TestCachedEmbedder_DistinctTextsDistinctKeys(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	c := New(inner, kv, nil, zap.NewNop())

	if _, err := c.Embed(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", inner.calls)
	}
	if len(kv.data) != 2 {
		t.Errorf("expected 2 cache entries, got %d", len(kv.data))
	}
	for k := range kv.data {
		if len(k) <= len(cacheKeyPrefix) {
			t.Errorf("key %q missing hash suffix", k)
		}
	}
}

func TestCachedEmbedder_StoreErrorsDegradeToProvider(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	c := New(inner, kv, nil, zap.NewNop())

	res, err := c.Embed(context.Background(), "a")
	if err != nil {
		t.Fatalf("store errors must not fail the request: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if inner.calls != 1 {
		t.Errorf("provider calls = %d", inner.calls)
	}
}

func TestCachedEmbedder_CorruptCacheEntryIsMiss(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	c := New(inner, kv, nil, zap.NewNop())

	kv.data[c.cacheKey("a")] = []byte("xyz") // not a multiple of 4

	if _, err := c.Embed(context.Background(), "a"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry must fall through to provider, calls=%d", inner.calls)
	}
}

func TestCachedEmbedder_InnerErrorPropagates(t *testing.T) {
	kv := newFakeKV()
	inner := &countingEmbedder{err: errors.New("api down")}
	c := New(inner, kv, nil, zap.NewNop())

	if _, err := c.Embed(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
	if len(kv.data) != 0 {
		t.Errorf("nothing must be cached on provider error")
	}
}
