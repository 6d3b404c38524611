package ingest

import (
	"context"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Indexer is the ingest pipeline's view of the chunk index (ISP).
type Indexer interface {
	EnsureIndex(ctx context.Context, dim int) error
	Upsert(ctx context.Context, chunks []domain.Chunk) error
}
