package domain

import "time"

// ChunkMeta is the metadata stored alongside an embedded article chunk.
// Source, Category and PublishedAt may be absent; scoring treats them as neutral.
type ChunkMeta struct {
	Source      string
	Category    string
	PublishedAt time.Time
	ChunkIndex  int
	WordCount   int
}

// Chunk is a unit of embedded article text, the atomic retrieval unit.
type Chunk struct {
	ID        string
	ArticleID string
	Content   string
	Embedding []float32
	Meta      ChunkMeta
}

// ChunkHit is a chunk returned by the vector index with its similarity score.
type ChunkHit struct {
	Chunk Chunk
	// Score is cosine similarity in [0,1].
	Score float64
}

// ChunkFilter narrows a vector index search before KNN scoring.
type ChunkFilter struct {
	Sources           []string
	Categories        []string
	ExcludeSources    []string
	ExcludeCategories []string
	ExcludeArticleID  string
	PublishedAfter    time.Time
}

// ScoredChunk wraps a retrieved chunk with its ranking breakdown.
// FinalScore = BaseScore * CategoryBoost * SourceBoost * RecencyBoost.
type ScoredChunk struct {
	Chunk              Chunk
	BaseScore          float64
	CategoryBoost      float64
	SourceBoost        float64
	RecencyBoost       float64
	FinalScore         float64
	MatchedPreferences []string
}

// ChunkRef is a lightweight chunk reference used for corpus-level aggregation.
type ChunkRef struct {
	ArticleID   string
	Category    string
	PublishedAt time.Time
}

// TrendingTopic is a category trending within a trailing window.
// Score folds both frequency and recency; ArticleCount is distinct articles.
type TrendingTopic struct {
	Topic        string
	Score        float64
	ArticleCount int
}
