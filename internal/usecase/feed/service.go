package feed

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/metrics"
)

// Config holds search and ranking settings.
type Config struct {
	// MaxResults caps the returned feed size.
	MaxResults int
	// MinRelevanceScore drops candidates below this similarity.
	MinRelevanceScore float64
	// CandidateMultiplier over-fetches so post-filtering still fills the feed.
	CandidateMultiplier int
	CategoryBoost       float64
	SourceBoost         float64
	RecencyMaxBoost     float64
	RecencyDecayHours   float64
	// TrendingScanLimit caps how many chunk refs one trending scan reads.
	TrendingScanLimit int
	// IndexTimeout bounds each vector index round-trip.
	IndexTimeout time.Duration
}

// Service retrieves and ranks personalized feeds. Retrieval runs a
// two-stage state machine: the primary preference query first, then the
// generic fallback when the primary stage yields nothing usable. An empty
// feed is never an error.
type Service struct {
	index     ChunkIndex
	converter QueryConverter
	profiles  ProfileSource
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a feed service.
func New(index ChunkIndex, converter QueryConverter, profiles ProfileSource, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		index:     index,
		converter: converter,
		profiles:  profiles,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SearchByPreferences returns the ranked feed for a user.
func (s *Service) SearchByPreferences(ctx context.Context, userID string) (domain.FeedResult, error) {
	start := time.Now()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.FeedResult{}, err
	}

	q, err := s.converter.FromProfile(ctx, profile)
	if err != nil {
		return domain.FeedResult{}, err
	}

	topK := s.cfg.MaxResults * s.cfg.CandidateMultiplier
	now := s.now().UTC()

	hits, err := s.search(ctx, q.Embedding, s.primaryFilter(profile), topK)
	if err != nil {
		return domain.FeedResult{}, err
	}
	primaryHits := len(hits)
	results := s.rank(hits, profile, now)

	m := domain.SearchMetrics{
		Source:      q.Source,
		PrimaryHits: primaryHits,
	}

	if len(results) == 0 {
		fq, err := s.converter.Fallback(ctx)
		if err != nil {
			return domain.FeedResult{}, err
		}
		// The fallback stage widens retrieval: preferred-source
		// restriction is dropped, explicit exclusions are kept.
		fbHits, err := s.search(ctx, fq.Embedding, s.fallbackFilter(profile), topK)
		if err != nil {
			return domain.FeedResult{}, err
		}
		results = s.rank(fbHits, profile, now)

		m.Source = domain.QueryFallback
		m.FallbackUsed = true
		metrics.FeedFallbackTotal.Inc()
	}

	m.Returned = len(results)
	m.Elapsed = time.Since(start)
	metrics.FeedSearchDuration.WithLabelValues(string(m.Source)).Observe(m.Elapsed.Seconds())

	s.logger.Debug("Feed search completed",
		zap.String("user_id", userID),
		zap.String("source", string(m.Source)),
		zap.Int("primary_hits", m.PrimaryHits),
		zap.Int("returned", m.Returned),
		zap.Duration("elapsed", m.Elapsed),
	)

	return domain.FeedResult{Results: results, Metrics: m}, nil
}

// SimilarArticles returns the best-matching chunks from other articles,
// one per article, nearest first. An unknown article yields an empty
// result, not an error.
func (s *Service) SimilarArticles(ctx context.Context, articleID string, limit int) ([]domain.ChunkHit, error) {
	if limit <= 0 || limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}

	ictx, cancel := s.indexCtx(ctx)
	defer cancel()

	chunks, err := s.index.ByArticle(ictx, articleID, s.cfg.MaxResults*s.cfg.CandidateMultiplier)
	if err != nil {
		return nil, domain.SearchErr("load article chunks", domain.TimeoutOr(err))
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	centroid := meanVector(chunks)
	if centroid == nil {
		return nil, nil
	}

	hits, err := s.search(ctx, centroid, domain.ChunkFilter{ExcludeArticleID: articleID},
		limit*s.cfg.CandidateMultiplier)
	if err != nil {
		return nil, err
	}

	// One representative chunk per article, keeping retrieval order.
	seen := make(map[string]bool, len(hits))
	out := make([]domain.ChunkHit, 0, limit)
	for _, h := range hits {
		if seen[h.Chunk.ArticleID] {
			continue
		}
		seen[h.Chunk.ArticleID] = true
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) search(ctx context.Context, embedding []float32, f domain.ChunkFilter, topK int) ([]domain.ChunkHit, error) {
	ictx, cancel := s.indexCtx(ctx)
	defer cancel()

	hits, err := s.index.Search(ictx, embedding, f, topK)
	if err != nil {
		return nil, domain.SearchErr("search chunks", domain.TimeoutOr(err))
	}
	return hits, nil
}

// rank filters, boosts, orders and truncates retrieved hits.
// Ordering is fully deterministic: final score descending, then newer
// publication first, then chunk ID.
func (s *Service) rank(hits []domain.ChunkHit, p domain.Profile, now time.Time) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.cfg.MinRelevanceScore {
			continue
		}
		out = append(out, s.score(h, p, now))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if !a.Chunk.Meta.PublishedAt.Equal(b.Chunk.Meta.PublishedAt) {
			return a.Chunk.Meta.PublishedAt.After(b.Chunk.Meta.PublishedAt)
		}
		return a.Chunk.ID < b.Chunk.ID
	})

	if len(out) > s.cfg.MaxResults {
		out = out[:s.cfg.MaxResults]
	}
	return out
}

func (s *Service) primaryFilter(p domain.Profile) domain.ChunkFilter {
	return domain.ChunkFilter{
		Sources:        p.PreferredSources,
		ExcludeSources: p.ExcludedSources,
	}
}

func (s *Service) fallbackFilter(p domain.Profile) domain.ChunkFilter {
	return domain.ChunkFilter{ExcludeSources: p.ExcludedSources}
}

func (s *Service) indexCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.IndexTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.IndexTimeout)
}

func meanVector(chunks []domain.Chunk) []float32 {
	var dim int
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			dim = len(c.Embedding)
			break
		}
	}
	if dim == 0 {
		return nil
	}

	sum := make([]float64, dim)
	n := 0
	for _, c := range chunks {
		if len(c.Embedding) != dim {
			continue
		}
		for i, v := range c.Embedding {
			sum[i] += float64(v)
		}
		n++
	}
	if n == 0 {
		return nil
	}

	mean := make([]float32, dim)
	for i := range sum {
		mean[i] = float32(sum[i] / float64(n))
	}
	return mean
}
