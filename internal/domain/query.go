package domain

import "time"

// QuerySource tags which stage of the search state machine produced a query.
type QuerySource string

const (
	// QueryPrimary is a query derived from the user's preference profile.
	QueryPrimary QuerySource = "primary"
	// QueryFallback is the generic query used when the primary retrieval is empty.
	QueryFallback QuerySource = "fallback"
)

// WeightedTopic is one topic term with its query weight.
type WeightedTopic struct {
	Topic  string
	Weight float64
}

// PreferenceQuery is a preference profile converted into retrievable form.
type PreferenceQuery struct {
	Text           string
	Embedding      []float32
	WeightedTopics []WeightedTopic
	Source         QuerySource
	ProcessingTime time.Duration
}

// Fallback reports whether the query came from the fallback generator.
func (q PreferenceQuery) Fallback() bool {
	return q.Source == QueryFallback
}

// SearchMetrics describes how a feed search executed.
type SearchMetrics struct {
	Source       QuerySource
	FallbackUsed bool
	PrimaryHits  int
	Returned     int
	Elapsed      time.Duration
}

// FeedResult is a ranked, truncated feed retrieval.
type FeedResult struct {
	Results []ScoredChunk
	Metrics SearchMetrics
}
