package feed

import (
	"context"
	"sort"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Trending aggregates corpus activity by category over a trailing window.
// Each chunk contributes 1 - age/window to its category, so a burst of
// fresh articles scores higher than the same volume spread over the
// whole window.
func (s *Service) Trending(ctx context.Context, window time.Duration, limit int) ([]domain.TrendingTopic, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if limit <= 0 {
		limit = 10
	}

	now := s.now().UTC()

	ictx, cancel := s.indexCtx(ctx)
	defer cancel()

	refs, err := s.index.PublishedSince(ictx, now.Add(-window), s.cfg.TrendingScanLimit)
	if err != nil {
		return nil, domain.SearchErr("scan recent chunks", domain.TimeoutOr(err))
	}

	type agg struct {
		score    float64
		articles map[string]bool
	}
	byCategory := make(map[string]*agg)

	for _, ref := range refs {
		if ref.Category == "" || ref.PublishedAt.IsZero() {
			continue
		}
		weight := 1 - now.Sub(ref.PublishedAt).Seconds()/window.Seconds()
		if weight <= 0 {
			continue
		}
		a := byCategory[ref.Category]
		if a == nil {
			a = &agg{articles: make(map[string]bool)}
			byCategory[ref.Category] = a
		}
		a.score += weight
		a.articles[ref.ArticleID] = true
	}

	topics := make([]domain.TrendingTopic, 0, len(byCategory))
	for cat, a := range byCategory {
		topics = append(topics, domain.TrendingTopic{
			Topic:        cat,
			Score:        a.score,
			ArticleCount: len(a.articles),
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		a, b := topics[i], topics[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ArticleCount != b.ArticleCount {
			return a.ArticleCount > b.ArticleCount
		}
		return a.Topic < b.Topic
	})

	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics, nil
}
