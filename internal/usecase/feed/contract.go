package feed

import (
	"context"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// ChunkIndex is the feed's view of the vector index (ISP).
type ChunkIndex interface {
	Search(ctx context.Context, embedding []float32, f domain.ChunkFilter, topK int) ([]domain.ChunkHit, error)
	ByArticle(ctx context.Context, articleID string, limit int) ([]domain.Chunk, error)
	PublishedSince(ctx context.Context, since time.Time, limit int) ([]domain.ChunkRef, error)
}

// QueryConverter turns a profile into an embedded query.
type QueryConverter interface {
	FromProfile(ctx context.Context, p domain.Profile) (domain.PreferenceQuery, error)
	Fallback(ctx context.Context) (domain.PreferenceQuery, error)
}

// ProfileSource supplies the user's profile, creating a default one for
// users seen for the first time.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
}
