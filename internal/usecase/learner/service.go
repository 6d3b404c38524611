package learner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/metrics"
)

// Config holds the learner thresholds.
type Config struct {
	// MaxStoredInteractions caps the per-user log; older rows are pruned.
	MaxStoredInteractions int
	// AnalysisWindow is how many recent interactions an analysis reads.
	AnalysisWindow int
	// MinInteractions gates learning: below it confidence is zero.
	MinInteractions int
	// ConfidenceTau controls how fast confidence saturates with history size.
	ConfidenceTau float64
	// SignificantVolume is the minimum interaction count for an item's
	// ratio to be trusted in ranking and proposals.
	SignificantVolume int
	// RatioEpsilon is the band within which positive ratios compare equal.
	RatioEpsilon float64
	// EmergingWindowHours bounds how far back emerging-topic detection looks.
	EmergingWindowHours int
	// EmergingMinCount is the minimum positive mentions for an emerging topic.
	EmergingMinCount int
	// PreferredRatioMin is the positive ratio needed to propose a preferred source.
	PreferredRatioMin float64
	// DecliningNegativeRatio is the negative ratio marking a source as declining.
	DecliningNegativeRatio float64
	// StoreTimeout bounds each store round-trip.
	StoreTimeout time.Duration
}

// Service learns user preferences from the interaction log.
// Analysis is a pure fold over the log: nothing derived is persisted, and
// the learner never mutates profiles, it only proposes changes.
type Service struct {
	interactions InteractionStore
	profiles     ProfileReader
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
}

// New creates a learner service.
func New(interactions InteractionStore, profiles ProfileReader, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		interactions: interactions,
		profiles:     profiles,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Track validates and appends an interaction to the user's log, then prunes
// the log to its cap. A pruning failure is logged but never fails the write.
func (s *Service) Track(ctx context.Context, in domain.Interaction) (domain.Interaction, error) {
	if !in.Action.Valid() {
		return domain.Interaction{}, fmt.Errorf("action %q: %w", in.Action, domain.ErrInvalidAction)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now().UTC()
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.interactions.Insert(ctx, in); err != nil {
		return domain.Interaction{}, domain.StoreErr("track interaction", in.UserID, domain.TimeoutOr(err))
	}
	metrics.InteractionsTrackedTotal.WithLabelValues(string(in.Action)).Inc()

	if removed, err := s.interactions.TrimToCap(ctx, in.UserID, s.cfg.MaxStoredInteractions); err != nil {
		s.logger.Warn("Failed to prune interaction log",
			zap.String("user_id", in.UserID),
			zap.Error(err),
		)
	} else if removed > 0 {
		s.logger.Debug("Pruned interaction log",
			zap.String("user_id", in.UserID),
			zap.Int64("removed", removed),
		)
	}

	return in, nil
}

// Analyze folds the user's recent interactions into insights. With fewer
// than MinInteractions rows the result carries zero confidence and no
// derived fields. Emerging topics are judged against the user's current
// profile. Calling it twice without new interactions yields the same
// insights (modulo LastAnalyzed).
func (s *Service) Analyze(ctx context.Context, userID string) (domain.Insights, error) {
	start := time.Now()
	defer func() {
		metrics.LearnerAnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	total, err := s.interactions.Count(ctx, userID)
	if err != nil {
		return domain.Insights{}, domain.StoreErr("count interactions", userID, domain.TimeoutOr(err))
	}

	window, err := s.interactions.Query(ctx, userID, s.cfg.AnalysisWindow)
	if err != nil {
		return domain.Insights{}, domain.StoreErr("read interactions", userID, domain.TimeoutOr(err))
	}

	ins := domain.Insights{
		UserID:             userID,
		TotalInteractions:  int(total),
		LearningConfidence: confidence(len(window), s.cfg.MinInteractions, s.cfg.ConfidenceTau),
		LastAnalyzed:       s.now().UTC(),
	}
	if !ins.Learnable() {
		return ins, nil
	}

	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile = domain.DefaultProfile(userID, s.now().UTC())
	} else if err != nil {
		return domain.Insights{}, domain.StoreErr("read profile", userID, domain.TimeoutOr(err))
	}

	cats := aggregateAffinities(window, categoryOf)
	sortAffinities(cats, s.cfg.RatioEpsilon, s.cfg.SignificantVolume)
	srcs := aggregateAffinities(window, sourceOf)
	sortAffinities(srcs, s.cfg.RatioEpsilon, s.cfg.SignificantVolume)

	ins.TopCategories = cats
	ins.TopSources = srcs
	ins.EmergingTopics = s.emergingTopics(window, profile)
	ins.DecliningSources = s.decliningSources(srcs)

	return ins, nil
}

// ProposeUpdates turns fresh insights into preference change proposals.
// Nothing is written: the caller decides which proposals to commit.
func (s *Service) ProposeUpdates(ctx context.Context, userID string) ([]domain.PreferenceChange, error) {
	ins, err := s.Analyze(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ins.Learnable() {
		return nil, nil
	}

	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile = domain.DefaultProfile(userID, s.now().UTC())
	} else if err != nil {
		return nil, domain.StoreErr("read profile", userID, domain.TimeoutOr(err))
	}

	var changes []domain.PreferenceChange

	if newTopics := s.topicsToAdd(ins, profile); len(newTopics) > 0 {
		proposed := profile.WithTopics(newTopics...)
		changes = append(changes, domain.PreferenceChange{
			Field:      "topics",
			OldValue:   profile.Topics,
			NewValue:   proposed.Topics,
			Reason:     "added emerging topics",
			Confidence: ins.LearningConfidence,
		})
	}

	if toPrefer := s.sourcesToPrefer(ins, profile); len(toPrefer) > 0 {
		proposed := profile
		for _, src := range toPrefer {
			proposed = proposed.WithPreferredSource(src)
		}
		changes = append(changes, domain.PreferenceChange{
			Field:      "preferred_sources",
			OldValue:   profile.PreferredSources,
			NewValue:   proposed.PreferredSources,
			Reason:     "positive source interactions",
			Confidence: ins.LearningConfidence,
		})
	}

	if toExclude := s.sourcesToExclude(ins, profile); len(toExclude) > 0 {
		proposed := profile
		for _, src := range toExclude {
			proposed = proposed.WithExcludedSource(src)
		}
		changes = append(changes, domain.PreferenceChange{
			Field:      "excluded_sources",
			OldValue:   profile.ExcludedSources,
			NewValue:   proposed.ExcludedSources,
			Reason:     "negative interactions",
			Confidence: ins.LearningConfidence,
		})
	}

	return changes, nil
}

// Stats returns the lightweight per-user summary. Unlike Analyze it is
// never confidence-gated.
func (s *Service) Stats(ctx context.Context, userID string) (domain.InteractionStats, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	total, err := s.interactions.Count(ctx, userID)
	if err != nil {
		return domain.InteractionStats{}, domain.StoreErr("count interactions", userID, domain.TimeoutOr(err))
	}

	window, err := s.interactions.Query(ctx, userID, s.cfg.AnalysisWindow)
	if err != nil {
		return domain.InteractionStats{}, domain.StoreErr("read interactions", userID, domain.TimeoutOr(err))
	}

	stats := domain.InteractionStats{
		UserID:   userID,
		Total:    int(total),
		ByAction: make(map[domain.Action]int),
		Trend:    domain.TrendStable,
	}

	cutoff := s.now().UTC().Add(-time.Duration(s.cfg.EmergingWindowHours) * time.Hour)
	mid := len(window) / 2
	recent, older := 0, 0
	for i, in := range window {
		stats.ByAction[in.Action]++
		if in.CreatedAt.After(cutoff) {
			stats.RecentCount++
		}
		if i >= mid {
			recent++
		} else {
			older++
		}
	}
	if len(window) > 0 {
		stats.Trend = trendOf(recent, older)
	}

	return stats, nil
}

// Reset erases the user's entire interaction history. Irreversible; the
// preference profile is untouched.
func (s *Service) Reset(ctx context.Context, userID string) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.interactions.DeleteAll(ctx, userID); err != nil {
		return domain.StoreErr("reset interactions", userID, domain.TimeoutOr(err))
	}
	s.logger.Info("Interaction history reset", zap.String("user_id", userID))
	return nil
}

// emergingTopics collects tags and categories that accumulated at least
// EmergingMinCount positive interactions inside the recency window. A topic
// the profile already holds is established, not emerging, and is skipped.
func (s *Service) emergingTopics(window []domain.Interaction, p domain.Profile) []string {
	cutoff := s.now().UTC().Add(-time.Duration(s.cfg.EmergingWindowHours) * time.Hour)

	counts := make(map[string]int)
	for _, in := range window {
		if !in.Action.Positive() || !in.CreatedAt.After(cutoff) {
			continue
		}
		for _, tag := range in.Article.Tags {
			if tag != "" {
				counts[strings.ToLower(tag)]++
			}
		}
		if in.Article.Category != "" {
			counts[strings.ToLower(in.Article.Category)]++
		}
	}

	var topics []string
	for topic, n := range counts {
		if n >= s.cfg.EmergingMinCount && !p.HasTopic(topic) {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// decliningSources picks sources with enough volume, a decreasing
// engagement trend, and a negative share past the declining threshold.
// A burst of fresh hides alone trends upward and does not qualify.
func (s *Service) decliningSources(srcs []domain.Affinity) []string {
	var out []string
	for _, a := range srcs {
		if a.Total < s.cfg.SignificantVolume {
			continue
		}
		if a.Trend != domain.TrendDecreasing {
			continue
		}
		if float64(a.Negative)/float64(a.Total) >= s.cfg.DecliningNegativeRatio {
			out = append(out, a.Item)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Service) topicsToAdd(ins domain.Insights, p domain.Profile) []string {
	var out []string
	for _, t := range ins.EmergingTopics {
		if !p.HasTopic(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Service) sourcesToPrefer(ins domain.Insights, p domain.Profile) []string {
	var out []string
	for _, a := range ins.TopSources {
		if a.Total < s.cfg.SignificantVolume || a.PositiveRatio < s.cfg.PreferredRatioMin {
			continue
		}
		if !p.PrefersSource(a.Item) {
			out = append(out, a.Item)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Service) sourcesToExclude(ins domain.Insights, p domain.Profile) []string {
	var out []string
	for _, src := range ins.DecliningSources {
		if !p.ExcludesSource(src) {
			out = append(out, src)
		}
	}
	return out
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}
