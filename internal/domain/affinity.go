package domain

import "time"

// Trend describes how a user's interaction volume with an item is moving,
// comparing the recent half of the analysis window against the older half.
type Trend string

const (
	// TrendIncreasing means recent activity clearly exceeds older activity.
	TrendIncreasing Trend = "increasing"
	// TrendStable means activity is roughly level.
	TrendStable Trend = "stable"
	// TrendDecreasing means recent activity clearly fell off.
	TrendDecreasing Trend = "decreasing"
)

// Affinity is a derived engagement statistic for one category or source.
// Computed fresh per analysis call, never persisted.
type Affinity struct {
	Item            string
	Total           int
	Positive        int
	Negative        int
	PositiveRatio   float64
	LastInteraction time.Time
	Trend           Trend
}
