package query

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Service converts preference profiles into embedded search queries.
// Conversion is stateless: the same profile always yields the same query
// text, and the embedding cache makes repeat conversions cheap.
type Service struct {
	embedder     domain.Embedder
	fallbackText string
	logger       *zap.Logger
}

// New creates a query converter. fallbackText is the generic query used
// when a profile has no topics to search by.
func New(embedder domain.Embedder, fallbackText string, logger *zap.Logger) *Service {
	return &Service{
		embedder:     embedder,
		fallbackText: fallbackText,
		logger:       logger,
	}
}

// FromProfile builds the primary preference query from the profile's
// topics, each weighted equally. A profile without topics degrades to the
// fallback query instead of failing.
func (s *Service) FromProfile(ctx context.Context, p domain.Profile) (domain.PreferenceQuery, error) {
	if len(p.Topics) == 0 {
		s.logger.Debug("Profile has no topics, using fallback query",
			zap.String("user_id", p.UserID))
		return s.Fallback(ctx)
	}

	start := time.Now()

	topics := make([]domain.WeightedTopic, len(p.Topics))
	for i, t := range p.Topics {
		topics[i] = domain.WeightedTopic{Topic: t, Weight: 1.0}
	}
	text := strings.Join(p.Topics, " ")

	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return domain.PreferenceQuery{}, domain.ConversionErr("embed preference query", domain.TimeoutOr(err))
	}

	return domain.PreferenceQuery{
		Text:           text,
		Embedding:      res.Embedding,
		WeightedTopics: topics,
		Source:         domain.QueryPrimary,
		ProcessingTime: time.Since(start),
	}, nil
}

// Fallback builds the generic query used when nothing is known about the
// user or the primary retrieval came back empty.
func (s *Service) Fallback(ctx context.Context) (domain.PreferenceQuery, error) {
	start := time.Now()

	res, err := s.embedder.Embed(ctx, s.fallbackText)
	if err != nil {
		return domain.PreferenceQuery{}, domain.ConversionErr("embed fallback query", domain.TimeoutOr(err))
	}

	return domain.PreferenceQuery{
		Text:           s.fallbackText,
		Embedding:      res.Embedding,
		Source:         domain.QueryFallback,
		ProcessingTime: time.Since(start),
	}, nil
}
