package chi

import (
	"context"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/usecase/health"
	"github.com/kailas-cloud/newsdex/internal/usecase/usage"
)

// Learner records interactions and derives insights from them.
type Learner interface {
	Track(ctx context.Context, in domain.Interaction) (domain.Interaction, error)
	Analyze(ctx context.Context, userID string) (domain.Insights, error)
	ProposeUpdates(ctx context.Context, userID string) ([]domain.PreferenceChange, error)
	Stats(ctx context.Context, userID string) (domain.InteractionStats, error)
	Reset(ctx context.Context, userID string) error
}

// ProfileManager owns preference profiles and commits learned changes.
type ProfileManager interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
	Update(ctx context.Context, p domain.Profile) (domain.Profile, error)
	Learn(ctx context.Context, userID string) (domain.Profile, []domain.PreferenceChange, error)
	Delete(ctx context.Context, userID string) error
}

// FeedSearcher retrieves personalized, related and trending content.
type FeedSearcher interface {
	SearchByPreferences(ctx context.Context, userID string) (domain.FeedResult, error)
	SimilarArticles(ctx context.Context, articleID string, limit int) ([]domain.ChunkHit, error)
	Trending(ctx context.Context, window time.Duration, limit int) ([]domain.TrendingTopic, error)
}

// Ingester chunks, embeds and indexes incoming articles.
type Ingester interface {
	Ingest(ctx context.Context, art domain.Article) (int, error)
}

// UsageReporter reports embedding token usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period usage.Period) usage.Report
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
