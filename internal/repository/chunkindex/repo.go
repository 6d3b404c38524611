package chunkindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/newsdex/internal/db"
	"github.com/kailas-cloud/newsdex/internal/domain"
)

var (
	chunkKeyPrefix = domain.KeyPrefix + "chunk:"
	indexName      = domain.KeyPrefix + "chunks:idx"
)

// store is the consumer interface for the chunk index (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index string, f db.Filter, offset, limit int, fields []string) (*db.SearchResult, error)
}

// HNSWConfig tunes the vector index build.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo is the vector index over embedded article chunks.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a chunk index repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 32, EFConstruct: 400}}
}

// WithHNSW overrides HNSW build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the FT index for the chunk corpus if it is missing.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check chunk index: %w", err)
	}
	if exists {
		return nil
	}

	def := db.NewIndex(indexName).
		Prefix(chunkKeyPrefix).
		Tag(fieldArticleID).
		Tag(fieldSource).
		Tag(fieldCategory).
		Numeric(fieldPublishedAt).
		Numeric(fieldChunkIndex).
		Numeric(fieldWordCount).
		Vector(fieldVector, dim, r.hnsw.M, r.hnsw.EFConstruct).
		Build()

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create chunk index: %w", err)
	}
	return nil
}

// Upsert writes chunks into the corpus in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{
			Key:    chunkKeyPrefix + c.ID,
			Fields: chunkToFields(c),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(chunks), err)
	}
	return nil
}

// Search runs a KNN query with metadata pre-filters and returns scored hits.
func (r *Repo) Search(
	ctx context.Context, embedding []float32, f domain.ChunkFilter, topK int,
) ([]domain.ChunkHit, error) {
	q := &db.KNNQuery{
		IndexName: indexName,
		Vector:    embedding,
		K:         topK,
		Filter:    filterToDB(f),
		ReturnFields: []string{
			fieldContent, fieldArticleID, fieldSource, fieldCategory,
			fieldPublishedAt, fieldChunkIndex, fieldWordCount, "__vector_score",
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	hits := make([]domain.ChunkHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, chunkKeyPrefix)
		hits = append(hits, domain.ChunkHit{
			Chunk: entryToChunk(id, entry.Fields, false),
			Score: entry.Score,
		})
	}
	return hits, nil
}

// ByArticle returns an article's chunks including their stored embeddings,
// ordered by chunk index.
func (r *Repo) ByArticle(ctx context.Context, articleID string, limit int) ([]domain.Chunk, error) {
	f := db.Filter{AnyTags: map[string][]string{fieldArticleID: {articleID}}}
	fields := []string{
		fieldContent, fieldVector, fieldArticleID, fieldSource, fieldCategory,
		fieldPublishedAt, fieldChunkIndex, fieldWordCount,
	}

	sr, err := r.store.SearchList(ctx, indexName, f, 0, limit, fields)
	if err != nil {
		return nil, fmt.Errorf("chunks by article %s: %w", articleID, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, chunkKeyPrefix)
		chunks = append(chunks, entryToChunk(id, entry.Fields, true))
	}
	sortByChunkIndex(chunks)
	return chunks, nil
}

// PublishedSince returns lightweight refs for chunks published after since,
// for corpus-level aggregation (trending).
func (r *Repo) PublishedSince(ctx context.Context, since time.Time, limit int) ([]domain.ChunkRef, error) {
	min := float64(since.Unix())
	f := db.Filter{Numeric: []db.NumericRange{{Field: fieldPublishedAt, Min: &min}}}

	sr, err := r.store.SearchList(ctx, indexName, f, 0, limit,
		[]string{fieldArticleID, fieldCategory, fieldPublishedAt})
	if err != nil {
		return nil, fmt.Errorf("chunks since %s: %w", since.Format(time.RFC3339), err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	refs := make([]domain.ChunkRef, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		c := entryToChunk("", entry.Fields, false)
		refs = append(refs, domain.ChunkRef{
			ArticleID:   c.ArticleID,
			Category:    c.Meta.Category,
			PublishedAt: c.Meta.PublishedAt,
		})
	}
	return refs, nil
}

func sortByChunkIndex(chunks []domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Meta.ChunkIndex < chunks[j].Meta.ChunkIndex
	})
}
