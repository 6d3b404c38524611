package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Config holds chunking settings.
type Config struct {
	ChunkWords   int
	OverlapWords int
}

// Service embeds incoming articles into the chunk index. Re-ingesting an
// article overwrites its chunks: chunk IDs are derived from the article
// ID and position.
type Service struct {
	index    Indexer
	embedder domain.BatchEmbedder
	cfg      Config
	logger   *zap.Logger
}

// New creates an ingest service.
func New(index Indexer, embedder domain.BatchEmbedder, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// EnsureIndex creates the chunk index schema if it is missing.
func (s *Service) EnsureIndex(ctx context.Context, dim int) error {
	return s.index.EnsureIndex(ctx, dim)
}

// Ingest chunks, embeds and indexes one article, returning the number of
// chunks written. The title is folded into the first chunk so headline
// terms stay retrievable.
func (s *Service) Ingest(ctx context.Context, art domain.Article) (int, error) {
	if art.ID == "" {
		return 0, fmt.Errorf("ingest article: missing id")
	}

	texts := chunkText(art.Content, s.cfg.ChunkWords, s.cfg.OverlapWords)
	if len(texts) == 0 {
		return 0, fmt.Errorf("ingest article %s: empty content", art.ID)
	}
	if art.Title != "" {
		texts[0] = art.Title + "\n" + texts[0]
	}

	batch, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, domain.ConversionErr("embed article "+art.ID, domain.TimeoutOr(err))
	}
	if len(batch.Embeddings) != len(texts) {
		return 0, domain.ConversionErr("embed article "+art.ID,
			fmt.Errorf("got %d vectors for %d chunks", len(batch.Embeddings), len(texts)))
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:        art.ID + ":" + strconv.Itoa(i),
			ArticleID: art.ID,
			Content:   text,
			Embedding: batch.Embeddings[i],
			Meta: domain.ChunkMeta{
				Source:      art.Source,
				Category:    art.Category,
				PublishedAt: art.PublishedAt,
				ChunkIndex:  i,
				WordCount:   len(strings.Fields(text)),
			},
		}
	}

	if err := s.index.Upsert(ctx, chunks); err != nil {
		return 0, domain.SearchErr("index article "+art.ID, domain.TimeoutOr(err))
	}

	s.logger.Info("Article ingested",
		zap.String("article_id", art.ID),
		zap.String("source", art.Source),
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", batch.TotalTokens),
	)
	return len(chunks), nil
}
