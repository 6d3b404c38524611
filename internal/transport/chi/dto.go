package chi

import (
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/usecase/health"
	"github.com/kailas-cloud/newsdex/internal/usecase/usage"
)

type articleMetaDTO struct {
	Source   string   `json:"source,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type trackRequest struct {
	UserID    string         `json:"user_id"`
	ArticleID string         `json:"article_id"`
	Action    string         `json:"action"`
	Article   articleMetaDTO `json:"article"`
}

func (r trackRequest) toDomain() domain.Interaction {
	return domain.Interaction{
		UserID:    r.UserID,
		ArticleID: r.ArticleID,
		Action:    domain.Action(r.Action),
		Article: domain.ArticleMeta{
			Source:   r.Article.Source,
			Category: r.Article.Category,
			Tags:     r.Article.Tags,
		},
	}
}

type interactionResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	ArticleID string         `json:"article_id"`
	Action    string         `json:"action"`
	CreatedAt time.Time      `json:"created_at"`
	Article   articleMetaDTO `json:"article"`
}

func toInteractionResponse(in domain.Interaction) interactionResponse {
	return interactionResponse{
		ID:        in.ID,
		UserID:    in.UserID,
		ArticleID: in.ArticleID,
		Action:    string(in.Action),
		CreatedAt: in.CreatedAt,
		Article: articleMetaDTO{
			Source:   in.Article.Source,
			Category: in.Article.Category,
			Tags:     in.Article.Tags,
		},
	}
}

type affinityDTO struct {
	Item            string    `json:"item"`
	Total           int       `json:"total"`
	Positive        int       `json:"positive"`
	Negative        int       `json:"negative"`
	PositiveRatio   float64   `json:"positive_ratio"`
	LastInteraction time.Time `json:"last_interaction"`
	Trend           string    `json:"trend,omitempty"`
}

func toAffinityDTOs(list []domain.Affinity) []affinityDTO {
	out := make([]affinityDTO, len(list))
	for i, a := range list {
		out[i] = affinityDTO{
			Item:            a.Item,
			Total:           a.Total,
			Positive:        a.Positive,
			Negative:        a.Negative,
			PositiveRatio:   a.PositiveRatio,
			LastInteraction: a.LastInteraction,
			Trend:           string(a.Trend),
		}
	}
	return out
}

type insightsResponse struct {
	UserID             string        `json:"user_id"`
	TotalInteractions  int           `json:"total_interactions"`
	LearningConfidence float64       `json:"learning_confidence"`
	TopCategories      []affinityDTO `json:"top_categories"`
	TopSources         []affinityDTO `json:"top_sources"`
	EmergingTopics     []string      `json:"emerging_topics"`
	DecliningSources   []string      `json:"declining_sources"`
	LastAnalyzed       time.Time     `json:"last_analyzed"`
}

func toInsightsResponse(ins domain.Insights) insightsResponse {
	return insightsResponse{
		UserID:             ins.UserID,
		TotalInteractions:  ins.TotalInteractions,
		LearningConfidence: ins.LearningConfidence,
		TopCategories:      toAffinityDTOs(ins.TopCategories),
		TopSources:         toAffinityDTOs(ins.TopSources),
		EmergingTopics:     ins.EmergingTopics,
		DecliningSources:   ins.DecliningSources,
		LastAnalyzed:       ins.LastAnalyzed,
	}
}

type changeDTO struct {
	Field      string   `json:"field"`
	OldValue   []string `json:"old_value"`
	NewValue   []string `json:"new_value"`
	Reason     string   `json:"reason"`
	Confidence float64  `json:"confidence"`
}

func toChangeDTOs(changes []domain.PreferenceChange) []changeDTO {
	out := make([]changeDTO, len(changes))
	for i, c := range changes {
		out[i] = changeDTO{
			Field:      c.Field,
			OldValue:   c.OldValue,
			NewValue:   c.NewValue,
			Reason:     c.Reason,
			Confidence: c.Confidence,
		}
	}
	return out
}

type proposalsResponse struct {
	UserID  string      `json:"user_id"`
	Changes []changeDTO `json:"changes"`
}

type profileDTO struct {
	UserID           string    `json:"user_id"`
	Topics           []string  `json:"topics"`
	Tone             string    `json:"tone"`
	ReadingTimeMin   int       `json:"reading_time_min"`
	PreferredSources []string  `json:"preferred_sources"`
	ExcludedSources  []string  `json:"excluded_sources"`
	LastUpdated      time.Time `json:"last_updated"`
}

func toProfileDTO(p domain.Profile) profileDTO {
	return profileDTO{
		UserID:           p.UserID,
		Topics:           p.Topics,
		Tone:             string(p.Tone),
		ReadingTimeMin:   p.ReadingTimeMin,
		PreferredSources: p.PreferredSources,
		ExcludedSources:  p.ExcludedSources,
		LastUpdated:      p.LastUpdated,
	}
}

type updateProfileRequest struct {
	Topics           []string `json:"topics"`
	Tone             string   `json:"tone"`
	ReadingTimeMin   int      `json:"reading_time_min"`
	PreferredSources []string `json:"preferred_sources"`
	ExcludedSources  []string `json:"excluded_sources"`
}

func (r updateProfileRequest) toDomain(userID string) domain.Profile {
	return domain.Profile{
		UserID:           userID,
		Topics:           r.Topics,
		Tone:             domain.Tone(r.Tone),
		ReadingTimeMin:   r.ReadingTimeMin,
		PreferredSources: r.PreferredSources,
		ExcludedSources:  r.ExcludedSources,
	}
}

type learnResponse struct {
	Profile profileDTO  `json:"profile"`
	Changes []changeDTO `json:"changes"`
}

type statsResponse struct {
	UserID      string         `json:"user_id"`
	Total       int            `json:"total"`
	ByAction    map[string]int `json:"by_action"`
	RecentCount int            `json:"recent_count"`
	Trend       string         `json:"trend"`
}

func toStatsResponse(st domain.InteractionStats) statsResponse {
	byAction := make(map[string]int, len(st.ByAction))
	for action, n := range st.ByAction {
		byAction[string(action)] = n
	}
	return statsResponse{
		UserID:      st.UserID,
		Total:       st.Total,
		ByAction:    byAction,
		RecentCount: st.RecentCount,
		Trend:       string(st.Trend),
	}
}

type chunkDTO struct {
	ID          string    `json:"id"`
	ArticleID   string    `json:"article_id"`
	Content     string    `json:"content"`
	Source      string    `json:"source,omitempty"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	ChunkIndex  int       `json:"chunk_index"`
	WordCount   int       `json:"word_count"`
}

func toChunkDTO(c domain.Chunk) chunkDTO {
	return chunkDTO{
		ID:          c.ID,
		ArticleID:   c.ArticleID,
		Content:     c.Content,
		Source:      c.Meta.Source,
		Category:    c.Meta.Category,
		PublishedAt: c.Meta.PublishedAt,
		ChunkIndex:  c.Meta.ChunkIndex,
		WordCount:   c.Meta.WordCount,
	}
}

type scoredChunkDTO struct {
	Chunk              chunkDTO `json:"chunk"`
	BaseScore          float64  `json:"base_score"`
	CategoryBoost      float64  `json:"category_boost"`
	SourceBoost        float64  `json:"source_boost"`
	RecencyBoost       float64  `json:"recency_boost"`
	FinalScore         float64  `json:"final_score"`
	MatchedPreferences []string `json:"matched_preferences,omitempty"`
}

type feedMetricsDTO struct {
	Source       string `json:"source"`
	FallbackUsed bool   `json:"fallback_used"`
	PrimaryHits  int    `json:"primary_hits"`
	Returned     int    `json:"returned"`
	ElapsedMs    int64  `json:"elapsed_ms"`
}

type feedResponse struct {
	UserID  string           `json:"user_id"`
	Results []scoredChunkDTO `json:"results"`
	Metrics feedMetricsDTO   `json:"metrics"`
}

func toFeedResponse(userID string, res domain.FeedResult) feedResponse {
	results := make([]scoredChunkDTO, len(res.Results))
	for i, sc := range res.Results {
		results[i] = scoredChunkDTO{
			Chunk:              toChunkDTO(sc.Chunk),
			BaseScore:          sc.BaseScore,
			CategoryBoost:      sc.CategoryBoost,
			SourceBoost:        sc.SourceBoost,
			RecencyBoost:       sc.RecencyBoost,
			FinalScore:         sc.FinalScore,
			MatchedPreferences: sc.MatchedPreferences,
		}
	}
	return feedResponse{
		UserID:  userID,
		Results: results,
		Metrics: feedMetricsDTO{
			Source:       string(res.Metrics.Source),
			FallbackUsed: res.Metrics.FallbackUsed,
			PrimaryHits:  res.Metrics.PrimaryHits,
			Returned:     res.Metrics.Returned,
			ElapsedMs:    res.Metrics.Elapsed.Milliseconds(),
		},
	}
}

type chunkHitDTO struct {
	Chunk chunkDTO `json:"chunk"`
	Score float64  `json:"score"`
}

type similarResponse struct {
	ArticleID string        `json:"article_id"`
	Results   []chunkHitDTO `json:"results"`
}

func toSimilarResponse(articleID string, hits []domain.ChunkHit) similarResponse {
	results := make([]chunkHitDTO, len(hits))
	for i, h := range hits {
		results[i] = chunkHitDTO{Chunk: toChunkDTO(h.Chunk), Score: h.Score}
	}
	return similarResponse{ArticleID: articleID, Results: results}
}

type trendingTopicDTO struct {
	Topic        string  `json:"topic"`
	Score        float64 `json:"score"`
	ArticleCount int     `json:"article_count"`
}

type trendingResponse struct {
	WindowHours int                `json:"window_hours"`
	Topics      []trendingTopicDTO `json:"topics"`
}

func toTrendingResponse(window time.Duration, topics []domain.TrendingTopic) trendingResponse {
	out := make([]trendingTopicDTO, len(topics))
	for i, t := range topics {
		out[i] = trendingTopicDTO{Topic: t.Topic, Score: t.Score, ArticleCount: t.ArticleCount}
	}
	return trendingResponse{WindowHours: int(window.Hours()), Topics: out}
}

type ingestRequest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"published_at"`
}

func (r ingestRequest) toDomain() domain.Article {
	return domain.Article{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		Source:      r.Source,
		Category:    r.Category,
		Tags:        r.Tags,
		PublishedAt: r.PublishedAt,
	}
}

type ingestResponse struct {
	ArticleID string `json:"article_id"`
	Chunks    int    `json:"chunks"`
}

type usageResponse struct {
	Period      string `json:"period"`
	PeriodStart int64  `json:"period_start_ms"`
	PeriodEnd   int64  `json:"period_end_ms"`
	TokensUsed  int64  `json:"tokens_used"`
	TokenLimit  int64  `json:"token_limit"`
	Remaining   int64  `json:"tokens_remaining"`
	Exhausted   bool   `json:"exhausted"`
	ResetsAt    int64  `json:"resets_at_ms"`
}

func toUsageResponse(r usage.Report) usageResponse {
	return usageResponse{
		Period:      string(r.Period),
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		TokensUsed:  r.TokensUsed,
		TokenLimit:  r.TokenLimit,
		Remaining:   r.Remaining,
		Exhausted:   r.Exhausted,
		ResetsAt:    r.ResetsAt,
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func toHealthResponse(rep health.Report) healthResponse {
	checks := make(map[string]string, len(rep.Checks))
	for name, res := range rep.Checks {
		checks[name] = string(res)
	}
	return healthResponse{Status: string(rep.Status), Checks: checks}
}
